package api

import (
	"context"
	"net/http"

	"github.com/fieldops/techrank/internal/domain/stats"
)

// SummaryDependencies defines the summary operation.
type SummaryDependencies interface {
	Summary(ctx context.Context) (stats.Summary, bool)
}

// SummaryHandler handles summary requests.
type SummaryHandler struct {
	deps SummaryDependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleSummary handles GET /api/summary. With no active technician the
// body is an empty object.
func (h *SummaryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.deps.Summary(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, s)
}
