// Package handlers implements the HTTP endpoints of the budget API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dvloznov/budget-insights/internal/api/middleware"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/insights"
	"github.com/dvloznov/budget-insights/internal/jobs"
	"github.com/dvloznov/budget-insights/internal/logger"
)

// AIService is the set of generation flows exposed over HTTP.
// *insights.Service implements it.
type AIService interface {
	AnalyzeSpending(ctx context.Context, txs []domain.Transaction, profile *domain.UserProfile) (*insights.SpendingAnalysis, error)
	RecommendBudget(ctx context.Context, txs []domain.Transaction, profile *domain.UserProfile, current *domain.Budget) (*insights.BudgetRecommendation, error)
	DetectOverspending(ctx context.Context, txs []domain.Transaction, b *domain.Budget, profile *domain.UserProfile) (*insights.OverspendReport, error)
	MonthlySummary(ctx context.Context, txs []domain.Transaction, b *domain.Budget, profile *domain.UserProfile) (string, error)
	SuggestAdjustments(ctx context.Context, lifeChange string, b *domain.Budget, profile *domain.UserProfile) (*insights.BudgetAdjustments, error)
}

var _ AIService = (*insights.Service)(nil)

// InsightExporter mirrors persisted insights elsewhere. Failures never fail
// the request.
type InsightExporter interface {
	ExportInsight(ctx context.Context, in domain.Insight) error
}

// Clock returns the current time.
type Clock func() time.Time

// Now returns the clock time, or time.Now for a nil Clock.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// userID extracts the {userID} path parameter and tags the request logger.
func userID(r *http.Request) (string, *http.Request) {
	id := chi.URLParam(r, "userID")
	return id, r.WithContext(logger.WithUser(r.Context(), id))
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return &requestError{msg: "Invalid request body"}
	}
	return validate(dst)
}

// requestError is a client error reported as 400 with its message.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// writeServiceError maps err to an HTTP status and logs server-side failures.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var reqErr *requestError
	var parseErr *insights.GenerationParseError

	switch {
	case errors.As(err, &reqErr):
		middleware.WriteError(w, http.StatusBadRequest, reqErr.msg)
	case errors.Is(err, insights.ErrIncomeNotSet):
		middleware.WriteError(w, http.StatusBadRequest, "Monthly income is not set")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &parseErr):
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Str("flow", parseErr.Flow).Msg(action)
		middleware.WriteError(w, http.StatusBadGateway, parseErr.Message)
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg(action)
		middleware.WriteError(w, http.StatusInternalServerError, action)
	}
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", key)
	}
	return n, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
