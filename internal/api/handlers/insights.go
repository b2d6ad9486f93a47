package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dvloznov/budget-insights/internal/api/middleware"
	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/insights"
	"github.com/dvloznov/budget-insights/internal/logger"
	"github.com/dvloznov/budget-insights/internal/store"
)

// DefaultInsightLimit is the page size of GET .../insights.
const DefaultInsightLimit = 10

// InsightsHandler handles the insight log and the AI endpoints.
type InsightsHandler struct {
	store    store.Store
	ai       AIService
	exporter InsightExporter
	clock    Clock
}

// NewInsightsHandler creates a new insights handler. ai may be nil when no
// generation backend is configured; exporter may be nil.
func NewInsightsHandler(s store.Store, ai AIService, exporter InsightExporter, clock Clock) *InsightsHandler {
	return &InsightsHandler{store: s, ai: ai, exporter: exporter, clock: clock}
}

// ListInsights handles GET /api/users/{userID}/insights?limit=10
func (h *InsightsHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)

	limit, err := queryInt(r, "limit", DefaultInsightLimit)
	if err != nil {
		writeServiceError(w, r, err, "Invalid limit")
		return
	}

	list, err := h.store.ListInsights(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list insights")
		return
	}
	if list == nil {
		list = []domain.Insight{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": list,
		"count":    len(list),
	})
}

// userContext is what every AI endpoint loads before calling the model.
type userContext struct {
	profile *domain.UserProfile
	budget  *domain.Budget
	txs     []domain.Transaction
}

func (h *InsightsHandler) load(r *http.Request, id string, w budget.Window) (*userContext, error) {
	ctx := r.Context()

	profile, err := store.FindUser(ctx, h.store, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &domain.UserProfile{ID: id, Currency: domain.DefaultCurrency}
	}

	b, err := store.FindBudget(ctx, h.store, id)
	if err != nil {
		return nil, err
	}

	txs, err := h.store.QueryTransactions(ctx, id, domain.TransactionFilter{Start: w.Start, End: w.End})
	if err != nil {
		return nil, err
	}

	return &userContext{profile: profile, budget: b, txs: txs}, nil
}

func (h *InsightsHandler) enabled(w http.ResponseWriter) bool {
	if h.ai == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, insights.ErrGenerationDisabled.Error())
		return false
	}
	return true
}

// Analyze handles POST /api/users/{userID}/ai/analysis
func (h *InsightsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	id, r := userID(r)

	uc, err := h.load(r, id, budget.LastNDays(h.clock.Now(), budget.AnalysisLookbackDays))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load spending data")
		return
	}

	out, err := h.ai.AnalyzeSpending(r.Context(), uc.txs, uc.profile)
	if err != nil {
		writeServiceError(w, r, err, "Failed to analyze spending")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}

// Recommend handles POST /api/users/{userID}/ai/recommendations
func (h *InsightsHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	id, r := userID(r)

	uc, err := h.load(r, id, budget.LastNDays(h.clock.Now(), budget.AnalysisLookbackDays))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load spending data")
		return
	}

	out, err := h.ai.RecommendBudget(r.Context(), uc.txs, uc.profile, uc.budget)
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate budget recommendations")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}

// Overspending handles POST /api/users/{userID}/ai/overspending
func (h *InsightsHandler) Overspending(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	id, r := userID(r)

	uc, err := h.load(r, id, budget.CurrentMonth(h.clock.Now()))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load spending data")
		return
	}
	if uc.budget == nil {
		writeServiceError(w, r, domain.ErrNotFound, "No budget set")
		return
	}

	out, err := h.ai.DetectOverspending(r.Context(), uc.txs, uc.budget, uc.profile)
	if err != nil {
		writeServiceError(w, r, err, "Failed to detect overspending")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}

// MonthlySummary handles POST /api/users/{userID}/ai/monthly-summary. The
// summary is appended to the user's insight log.
func (h *InsightsHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	id, r := userID(r)
	ctx := r.Context()

	now := h.clock.Now()
	uc, err := h.load(r, id, budget.CurrentMonth(now))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load spending data")
		return
	}

	text, err := h.ai.MonthlySummary(ctx, uc.txs, uc.budget, uc.profile)
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate monthly summary")
		return
	}

	sum := insights.Summarize(uc.txs)
	in := domain.Insight{
		ID:               uuid.NewString(),
		UserID:           id,
		Type:             domain.InsightTypeMonthly,
		Summary:          text,
		TotalSpent:       sum.TotalSpent,
		TransactionCount: sum.TransactionCount,
		TopCategories:    sum.TopCategories,
		Concerns:         []string{},
		CreatedAt:        now,
	}
	if err := h.store.AddInsight(ctx, &in); err != nil {
		writeServiceError(w, r, err, "Failed to save monthly summary")
		return
	}

	if h.exporter != nil {
		if err := h.exporter.ExportInsight(ctx, in); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("insight_id", in.ID).Msg("Failed to export insight")
		}
	}

	middleware.WriteJSON(w, http.StatusCreated, in)
}

// AdjustmentsRequest is the body of POST .../ai/adjustments.
type AdjustmentsRequest struct {
	LifeChange string `json:"life_change" validate:"required"`
}

// Adjustments handles POST /api/users/{userID}/ai/adjustments
func (h *InsightsHandler) Adjustments(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	id, r := userID(r)
	ctx := r.Context()

	var req AdjustmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Invalid request")
		return
	}

	profile, err := store.FindUser(ctx, h.store, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load profile")
		return
	}
	b, err := store.FindBudget(ctx, h.store, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load budget")
		return
	}
	if profile == nil {
		profile = &domain.UserProfile{ID: id, Currency: domain.DefaultCurrency}
	}

	out, err := h.ai.SuggestAdjustments(ctx, req.LifeChange, b, profile)
	if err != nil {
		writeServiceError(w, r, err, "Failed to suggest adjustments")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}
