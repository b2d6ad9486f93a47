package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/budget-insights/internal/api/middleware"
	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/insights"
	"github.com/dvloznov/budget-insights/internal/store"
)

// BudgetHandler handles budget endpoints.
type BudgetHandler struct {
	budgets store.BudgetRepository
	users   store.UserRepository
	txs     store.TransactionRepository
	clock   Clock
}

// NewBudgetHandler creates a new budget handler.
func NewBudgetHandler(budgets store.BudgetRepository, users store.UserRepository, txs store.TransactionRepository, clock Clock) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, users: users, txs: txs, clock: clock}
}

// BudgetRequest is the body of PUT and PATCH .../budget.
type BudgetRequest struct {
	Categories map[domain.Category]float64 `json:"categories" validate:"required,min=1,dive,keys,category,endkeys,gte=0"`
}

// GetBudget handles GET /api/users/{userID}/budget
func (h *BudgetHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)

	b, err := h.budgets.GetBudget(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load budget")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, b)
}

// ReplaceBudget handles PUT /api/users/{userID}/budget
func (h *BudgetHandler) ReplaceBudget(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)
	ctx := r.Context()

	var req BudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Invalid budget")
		return
	}

	current, err := store.FindBudget(ctx, h.budgets, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load budget")
		return
	}

	now := h.clock.Now()
	b := &domain.Budget{
		UserID:     id,
		Categories: req.Categories,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if current != nil {
		b.CreatedAt = current.CreatedAt
	}

	if err := h.budgets.SaveBudget(ctx, b); err != nil {
		writeServiceError(w, r, err, "Failed to save budget")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, b)
}

// MergeBudget handles PATCH /api/users/{userID}/budget
func (h *BudgetHandler) MergeBudget(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)

	var req BudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Invalid budget")
		return
	}

	b, err := store.MergeBudget(r.Context(), h.budgets, id, req.Categories, h.clock.Now())
	if err != nil {
		writeServiceError(w, r, err, "Failed to save budget")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, b)
}

// GetProgress handles GET /api/users/{userID}/budget/progress?month=YYYY-MM
func (h *BudgetHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)
	ctx := r.Context()

	window := budget.CurrentMonth(h.clock.Now())
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := time.Parse("2006-01", raw)
		if err != nil {
			writeServiceError(w, r, badRequest("month must be YYYY-MM"), "Invalid month")
			return
		}
		window = budget.Month(m.Year(), m.Month(), time.UTC)
	}

	b, err := store.FindBudget(ctx, h.budgets, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load budget")
		return
	}

	txs, err := h.txs.QueryTransactions(ctx, id, domain.TransactionFilter{Start: window.Start, End: window.End})
	if err != nil {
		writeServiceError(w, r, err, "Failed to load transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, budget.BuildProgress(txs, b, window))
}

// GetDefaultBudget handles GET /api/users/{userID}/budget/default
func (h *BudgetHandler) GetDefaultBudget(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)

	profile, err := store.FindUser(r.Context(), h.users, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load profile")
		return
	}
	if profile == nil || profile.MonthlyIncome <= 0 {
		writeServiceError(w, r, insights.ErrIncomeNotSet, "Failed to build default budget")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories":     budget.DefaultAllocation(profile.MonthlyIncome),
		"monthly_income": profile.MonthlyIncome,
	})
}
