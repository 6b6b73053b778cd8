package api

import (
	"context"
	"net/http"

	"github.com/fieldops/techrank/internal/domain/model"
)

// MetadataDependencies exposes dataset-level metadata.
type MetadataDependencies interface {
	Thresholds(ctx context.Context) map[string]model.Threshold
	FilterOptions(ctx context.Context) model.FilterOptions
	DateRange(ctx context.Context) model.DateRange
}

// MetadataHandler serves thresholds, filter options and the date range.
type MetadataHandler struct {
	deps MetadataDependencies
}

// NewMetadataHandler creates a new metadata handler.
func NewMetadataHandler(deps MetadataDependencies) *MetadataHandler {
	return &MetadataHandler{deps: deps}
}

func (h *MetadataHandler) HandleThresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Thresholds(r.Context()))
}

func (h *MetadataHandler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	fo := h.deps.FilterOptions(r.Context())
	fo.Regions = nonNil(fo.Regions)
	fo.JobTypes = nonNil(fo.JobTypes)
	fo.Roles = nonNil(fo.Roles)
	fo.Noms = nonNil(fo.Noms)
	fo.Roms = nonNil(fo.Roms)
	writeJSON(w, http.StatusOK, fo)
}

func (h *MetadataHandler) HandleDateRange(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.DateRange(r.Context()))
}
