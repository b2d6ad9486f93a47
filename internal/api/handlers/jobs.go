package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dvloznov/budget-insights/internal/api/middleware"
	"github.com/dvloznov/budget-insights/internal/jobs"
)

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// GetJob handles GET /api/jobs/{jobID}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.store.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs?user_id=&status=&limit=&offset=
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("user_id"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		writeServiceError(w, r, err, "Invalid limit")
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		writeServiceError(w, r, err, "Invalid offset")
		return
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list jobs")
		return
	}
	if list == nil {
		list = []*jobs.TransactionCreatedJob{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}
