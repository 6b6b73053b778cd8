package api

import (
	"context"
	"net/http"

	"github.com/fieldops/techrank/internal/adapters/insight"
)

// InsightsDependencies defines the insight operation.
type InsightsDependencies interface {
	Insights(ctx context.Context, networkID string) (insight.Response, error)
}

// InsightsHandler handles AI insight requests.
type InsightsHandler struct {
	deps InsightsDependencies
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(deps InsightsDependencies) *InsightsHandler {
	return &InsightsHandler{deps: deps}
}

// HandleInsights handles GET /api/technicians/{id}/ai-insights.
func (h *InsightsHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	resp, err := h.deps.Insights(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
