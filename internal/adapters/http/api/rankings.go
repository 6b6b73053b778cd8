package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fieldops/techrank/internal/domain/ranking"
	"github.com/fieldops/techrank/internal/domain/types"
)

// RankingsDependencies defines the ranking operation.
type RankingsDependencies interface {
	Rankings(ctx context.Context, q ranking.Query) types.Ranking
}

// RankingsHandler handles ranking requests.
type RankingsHandler struct {
	deps RankingsDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// HandleRankings handles GET /api/rankings. Technician filters narrow the
// candidate set; dateFrom, dateTo and jobType recompute metrics from the
// matching jobs. Unknown sortBy or order values are rejected with 400.
func (h *RankingsHandler) HandleRankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jf := jobFilter(q)
	jf.Region = ""
	jf.TechnicianID = ""

	query, err := ranking.ParseQuery(technicianFilter(q), jf, q.Get("sortBy"), q.Get("order"))
	if err != nil {
		writeDomainError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	res := h.deps.Rankings(r.Context(), query)
	res.Technicians = nonNil(res.Technicians)
	writeJSON(w, http.StatusOK, res)
}
