package api

import (
	"context"
	"net/http"

	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
)

// TechniciansDependencies defines the technician read operations.
type TechniciansDependencies interface {
	FilterTechnicians(ctx context.Context, f filter.TechnicianFilter) []model.Technician
	Technician(ctx context.Context, networkID string) (model.Technician, error)
	TechnicianJobs(ctx context.Context, networkID string, f filter.JobFilter) ([]model.Job, error)
}

// TechniciansHandler handles technician requests.
type TechniciansHandler struct {
	deps TechniciansDependencies
}

// NewTechniciansHandler creates a new technicians handler.
func NewTechniciansHandler(deps TechniciansDependencies) *TechniciansHandler {
	return &TechniciansHandler{deps: deps}
}

// HandleList handles GET /api/technicians?region&role&nom&rom.
func (h *TechniciansHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	techs := h.deps.FilterTechnicians(r.Context(), technicianFilter(r.URL.Query()))
	writeJSON(w, http.StatusOK, nonNil(techs))
}

// HandleGet handles GET /api/technicians/{id}.
func (h *TechniciansHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.deps.Technician(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleJobs handles GET /api/technicians/{id}/jobs?jobType&dateFrom&dateTo.
func (h *TechniciansHandler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jf := filter.JobFilter{
		JobType:  q.Get("jobType"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
	}
	jobs, err := h.deps.TechnicianJobs(r.Context(), r.PathValue("id"), jf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(jobs))
}
