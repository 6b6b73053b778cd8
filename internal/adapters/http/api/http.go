// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldops/techrank/internal/adapters/insight"
	"github.com/fieldops/techrank/internal/adapters/repository"
	"github.com/fieldops/techrank/internal/domain/ranking"
	"github.com/fieldops/techrank/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	TechniciansDependencies
	JobsDependencies
	MetadataDependencies
	RankingsDependencies
	SummaryDependencies
	InsightsDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	techniciansHandler *TechniciansHandler
	jobsHandler        *JobsHandler
	metadataHandler    *MetadataHandler
	rankingsHandler    *RankingsHandler
	summaryHandler     *SummaryHandler
	insightsHandler    *InsightsHandler
	corsOrigin         string
	logger             logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigin sets the Access-Control-Allow-Origin value.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithLogger sets the access logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		techniciansHandler: NewTechniciansHandler(deps),
		jobsHandler:        NewJobsHandler(deps),
		metadataHandler:    NewMetadataHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps),
		summaryHandler:     NewSummaryHandler(deps),
		insightsHandler:    NewInsightsHandler(deps),
		corsOrigin:         "*",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/technicians", MetricsMiddleware(s.techniciansHandler.HandleList, "technicians"))
	mux.HandleFunc("GET /api/technicians/{id}", MetricsMiddleware(s.techniciansHandler.HandleGet, "technician"))
	mux.HandleFunc("GET /api/technicians/{id}/jobs", MetricsMiddleware(s.techniciansHandler.HandleJobs, "technician_jobs"))
	mux.HandleFunc("GET /api/technicians/{id}/ai-insights", MetricsMiddleware(s.insightsHandler.HandleInsights, "ai_insights"))
	mux.HandleFunc("GET /api/jobs", MetricsMiddleware(s.jobsHandler.HandleList, "jobs"))
	mux.HandleFunc("GET /api/thresholds", MetricsMiddleware(s.metadataHandler.HandleThresholds, "thresholds"))
	mux.HandleFunc("GET /api/filters", MetricsMiddleware(s.metadataHandler.HandleFilters, "filters"))
	mux.HandleFunc("GET /api/date-range", MetricsMiddleware(s.metadataHandler.HandleDateRange, "date_range"))
	mux.HandleFunc("GET /api/rankings", MetricsMiddleware(s.rankingsHandler.HandleRankings, "rankings"))
	mux.HandleFunc("GET /api/summary", MetricsMiddleware(s.summaryHandler.HandleSummary, "summary"))
}

// Handler wraps next with request IDs, CORS and access logging.
func (s *Server) Handler(next http.Handler) http.Handler {
	return RequestIDMiddleware(CORSMiddleware(s.corsOrigin, AccessLogMiddleware(s.logger, next)))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates upstream errors into status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, insight.ErrNoJobs):
		writeError(w, http.StatusNotFound, "no_job_data", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ranking.ErrInvalidSortKey),
		errors.Is(err, ranking.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, insight.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "insight_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// nonNil makes empty collections encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
