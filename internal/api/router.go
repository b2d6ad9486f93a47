// Package api wires the HTTP handlers into a router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/budget-insights/internal/api/handlers"
	"github.com/dvloznov/budget-insights/internal/api/middleware"
	"github.com/dvloznov/budget-insights/internal/jobs"
	"github.com/dvloznov/budget-insights/internal/store"
)

// Deps are the collaborators of the HTTP API. AI, Publisher and Exporter
// are optional.
type Deps struct {
	Store     store.Store
	AI        handlers.AIService
	Publisher jobs.Publisher
	Jobs      jobs.JobStore
	Exporter  handlers.InsightExporter
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewRouter builds the API handler with the standard middleware chain.
func NewRouter(d Deps) http.Handler {
	clock := handlers.Clock(d.Now)

	users := handlers.NewUsersHandler(d.Store, clock)
	txs := handlers.NewTransactionsHandler(d.Store, d.Publisher, clock)
	budgets := handlers.NewBudgetHandler(d.Store, d.Store, d.Store, clock)
	ins := handlers.NewInsightsHandler(d.Store, d.AI, d.Exporter, clock)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   clock.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Get("/profile", users.GetProfile)
		r.Put("/profile", users.UpdateProfile)

		r.Post("/transactions", txs.CreateTransaction)
		r.Get("/transactions", txs.ListTransactions)
		r.Delete("/transactions/{transactionID}", txs.DeleteTransaction)

		r.Get("/budget", budgets.GetBudget)
		r.Put("/budget", budgets.ReplaceBudget)
		r.Patch("/budget", budgets.MergeBudget)
		r.Get("/budget/progress", budgets.GetProgress)
		r.Get("/budget/default", budgets.GetDefaultBudget)

		r.Get("/insights", ins.ListInsights)
		r.Post("/ai/analysis", ins.Analyze)
		r.Post("/ai/recommendations", ins.Recommend)
		r.Post("/ai/overspending", ins.Overspending)
		r.Post("/ai/monthly-summary", ins.MonthlySummary)
		r.Post("/ai/adjustments", ins.Adjustments)
	})

	if d.Jobs != nil {
		jh := handlers.NewJobsHandler(d.Jobs)
		r.Get("/api/jobs", jh.ListJobs)
		r.Get("/api/jobs/{jobID}", jh.GetJob)
	}

	return r
}
