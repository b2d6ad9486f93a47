package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dvloznov/budget-insights/internal/api/middleware"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/jobs"
	"github.com/dvloznov/budget-insights/internal/logger"
	"github.com/dvloznov/budget-insights/internal/store"
)

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	txs       store.TransactionRepository
	publisher jobs.Publisher
	clock     Clock
}

// NewTransactionsHandler creates a new transactions handler. publisher may be
// nil, in which case no budget check is queued after a create.
func NewTransactionsHandler(txs store.TransactionRepository, publisher jobs.Publisher, clock Clock) *TransactionsHandler {
	return &TransactionsHandler{txs: txs, publisher: publisher, clock: clock}
}

// CreateTransactionRequest is the body of POST .../transactions.
type CreateTransactionRequest struct {
	Description string  `json:"description" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Category    string  `json:"category" validate:"required,category"`
	Type        string  `json:"type" validate:"required,transaction_type"`
	Date        string  `json:"date" validate:"required"`
}

// CreateTransaction handles POST /api/users/{userID}/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)
	ctx := r.Context()

	var req CreateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "Invalid transaction")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeServiceError(w, r, badRequest("description is required"), "Invalid transaction")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeServiceError(w, r, badRequest("date must be YYYY-MM-DD or RFC 3339"), "Invalid transaction")
		return
	}

	now := h.clock.Now()
	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      id,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Category:    domain.Category(req.Category),
		Type:        domain.TransactionType(req.Type),
		Date:        date,
		CreatedAt:   now,
	}

	if err := h.txs.AddTransaction(ctx, tx); err != nil {
		writeServiceError(w, r, err, "Failed to save transaction")
		return
	}

	resp := map[string]interface{}{"transaction": tx}

	if h.publisher != nil {
		job := &jobs.TransactionCreatedJob{UserID: id, TransactionID: tx.ID}
		if err := h.publisher.PublishTransactionCreated(ctx, job); err != nil {
			// The transaction is stored; the next scheduled run still covers it.
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to enqueue budget check")
		} else {
			resp["job_id"] = job.JobID
		}
	}

	middleware.WriteJSON(w, http.StatusCreated, resp)
}

// ListTransactions handles GET /api/users/{userID}/transactions with optional
// start_date, end_date (inclusive), category, type and limit filters.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)

	filter, err := transactionFilter(r)
	if err != nil {
		writeServiceError(w, r, err, "Invalid filter")
		return
	}

	txs, err := h.txs.QueryTransactions(r.Context(), id, filter)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// DeleteTransaction handles DELETE /api/users/{userID}/transactions/{transactionID}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)
	txID := chi.URLParam(r, "transactionID")

	if err := h.txs.DeleteTransaction(r.Context(), id, txID); err != nil {
		writeServiceError(w, r, err, "Failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func transactionFilter(r *http.Request) (domain.TransactionFilter, error) {
	q := r.URL.Query()
	var f domain.TransactionFilter

	if raw := q.Get("start_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return f, badRequest("start_date must be YYYY-MM-DD or RFC 3339")
		}
		f.Start = t
	}
	if raw := q.Get("end_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return f, badRequest("end_date must be YYYY-MM-DD or RFC 3339")
		}
		// A bare date includes the whole day.
		if len(raw) == len("2006-01-02") {
			t = t.AddDate(0, 0, 1)
		}
		f.End = t
	}
	if raw := q.Get("category"); raw != "" {
		c := domain.Category(raw)
		if !c.IsValid() {
			return f, badRequest("category must be one of: %s", categoryList())
		}
		f.Category = c
	}
	if raw := q.Get("type"); raw != "" {
		t := domain.TransactionType(raw)
		if !t.IsValid() {
			return f, badRequest("type must be expense or income")
		}
		f.Type = t
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return f, err
	}
	f.Limit = limit

	return f, nil
}
