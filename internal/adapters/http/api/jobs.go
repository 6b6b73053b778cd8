package api

import (
	"context"
	"net/http"

	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
)

// JobsDependencies defines the job read operations.
type JobsDependencies interface {
	Jobs(ctx context.Context, f filter.JobFilter) []model.Job
}

// JobsHandler handles job listing requests.
type JobsHandler struct {
	deps JobsDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobsDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleList handles GET /api/jobs?region&jobType&dateFrom&dateTo&technicianId.
func (h *JobsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.deps.Jobs(r.Context(), jobFilter(r.URL.Query()))))
}
