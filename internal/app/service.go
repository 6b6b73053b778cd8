// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldops/techrank/internal/adapters/insight"
	"github.com/fieldops/techrank/internal/adapters/repository"
	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/internal/domain/ranking"
	"github.com/fieldops/techrank/internal/domain/stats"
	"github.com/fieldops/techrank/internal/domain/types"
	"github.com/fieldops/techrank/pkg/logger"
	"github.com/fieldops/techrank/pkg/metrics"
)

// ErrNotStarted is returned by lookups made before Start.
var ErrNotStarted = errors.New("service not started")

// InsightGenerator produces coaching advice for one technician.
type InsightGenerator interface {
	Generate(ctx context.Context, s insight.Subject) (insight.Response, error)
}

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	global    *stats.Global
	generator InsightGenerator

	// Configuration
	dataPath    string
	dataFormat  string
	dropOrphans bool

	// State
	started  bool
	loadedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore uses an already loaded store instead of reading the data path.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithDataPath sets the dataset file read on Start.
func WithDataPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dataPath = path
		}
	}
}

// WithDataFormat sets the dataset format, json or sqlite.
func WithDataFormat(format string) Option {
	return func(s *Service) {
		if format != "" {
			s.dataFormat = format
		}
	}
}

// WithDropOrphans drops jobs of unknown technicians instead of failing the load.
func WithDropOrphans(drop bool) Option {
	return func(s *Service) {
		s.dropOrphans = drop
	}
}

// WithGenerator enables the insight endpoint.
func WithGenerator(g InsightGenerator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataPath:   "data/technicians.json",
		dataFormat: repository.FormatJSON,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the dataset and builds the global reference statistics.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		store, err := repository.Load(ctx, s.dataPath, s.dataFormat,
			repository.WithLogger(s.logger),
			repository.WithDropOrphans(s.dropOrphans),
		)
		if err != nil {
			return fmt.Errorf("load dataset %q: %w", s.dataPath, err)
		}
		s.store = store
	}

	s.global = stats.Build(s.store.Technicians(ctx), s.store.Jobs(ctx))
	s.loadedAt = time.Now()
	s.started = true

	techs, jobs := s.store.Count(ctx)
	s.logger.Info(ctx, "ranking service started",
		logger.Int("technicians", techs),
		logger.Int("jobs", jobs),
		logger.Any("insights_enabled", s.generator != nil),
	)
	return nil
}

// Stop marks the service stopped. Lookups made afterwards return zero values.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

func (s *Service) state() (repository.Store, *stats.Global, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store, s.global, s.started
}

// FilterTechnicians returns the technicians matching f in load order.
func (s *Service) FilterTechnicians(ctx context.Context, f filter.TechnicianFilter) []model.Technician {
	store, _, ok := s.state()
	if !ok {
		return nil
	}
	return filter.Technicians(store.Technicians(ctx), f)
}

// Technician returns one technician by network ID.
func (s *Service) Technician(ctx context.Context, id string) (model.Technician, error) {
	store, _, ok := s.state()
	if !ok {
		return model.Technician{}, ErrNotStarted
	}
	return store.Technician(ctx, id)
}

// TechnicianJobs returns the jobs of one technician matching f.
func (s *Service) TechnicianJobs(ctx context.Context, id string, f filter.JobFilter) ([]model.Job, error) {
	store, _, ok := s.state()
	if !ok {
		return nil, ErrNotStarted
	}
	if _, err := store.Technician(ctx, id); err != nil {
		return nil, err
	}
	f.TechnicianID = id
	return filter.Jobs(store.JobsFor(ctx, id), f), nil
}

// Jobs returns every job matching f in load order.
func (s *Service) Jobs(ctx context.Context, f filter.JobFilter) []model.Job {
	store, _, ok := s.state()
	if !ok {
		return nil
	}
	if f.TechnicianID != "" {
		return filter.Jobs(store.JobsFor(ctx, f.TechnicianID), f)
	}
	return filter.Jobs(store.Jobs(ctx), f)
}

// Thresholds returns the dataset-level decile thresholds.
func (s *Service) Thresholds(ctx context.Context) map[string]model.Threshold {
	store, _, ok := s.state()
	if !ok {
		return map[string]model.Threshold{}
	}
	return store.Thresholds(ctx)
}

// FilterOptions returns the distinct categorical values of the dataset.
func (s *Service) FilterOptions(ctx context.Context) model.FilterOptions {
	store, _, ok := s.state()
	if !ok {
		return model.FilterOptions{}
	}
	return store.FilterOptions(ctx)
}

// DateRange returns the span of job dates.
func (s *Service) DateRange(ctx context.Context) model.DateRange {
	store, _, ok := s.state()
	if !ok {
		return model.DateRange{}
	}
	return store.DateRange(ctx)
}

// Rankings ranks the technicians selected by q.Technicians. Job filters in
// q.Jobs recompute metrics from each technician's matching jobs.
func (s *Service) Rankings(ctx context.Context, q ranking.Query) types.Ranking {
	store, _, ok := s.state()
	if !ok {
		return ranking.Rank(nil, nil, q.Jobs, q.SortBy, q.Order)
	}

	start := time.Now()
	techs := filter.Technicians(store.Technicians(ctx), q.Technicians)
	jobsFor := func(id string) []model.Job { return store.JobsFor(ctx, id) }
	res := ranking.Rank(techs, jobsFor, q.Jobs, q.SortBy, q.Order)
	metrics.RecordRanking(q.SortBy.String(), q.Jobs.Recomputes(), time.Since(start), res.Meta.Total)

	s.logger.Debug(ctx, "ranked technicians",
		logger.String("sort_by", q.SortBy.String()),
		logger.String("order", string(q.Order)),
		logger.Int("candidates", len(techs)),
		logger.Int("ranked", res.Meta.Total),
	)
	return res
}

// Summary averages stored metrics over active technicians.
func (s *Service) Summary(ctx context.Context) (stats.Summary, bool) {
	store, _, ok := s.state()
	if !ok {
		return stats.Summary{}, false
	}
	return stats.Summarize(store.Technicians(ctx))
}

// Insights asks the generator for advice on one technician. Unknown IDs
// return repository.ErrNotFound, technicians without jobs insight.ErrNoJobs,
// and a disabled generator insight.ErrUnavailable.
func (s *Service) Insights(ctx context.Context, id string) (insight.Response, error) {
	store, global, ok := s.state()
	if !ok {
		return insight.Response{}, ErrNotStarted
	}
	t, err := store.Technician(ctx, id)
	if err != nil {
		return insight.Response{}, err
	}
	jobs := store.JobsFor(ctx, id)
	if len(jobs) == 0 {
		return insight.Response{}, fmt.Errorf("%w: %s", insight.ErrNoJobs, id)
	}
	if s.generator == nil {
		return insight.Response{}, fmt.Errorf("%w: generator disabled", insight.ErrUnavailable)
	}

	overall, _ := global.Overall()
	return s.generator.Generate(ctx, insight.Subject{
		Technician: t,
		Overall:    overall,
		Comparison: stats.CompareJobTypes(jobs, global),
		Peers:      stats.RegionPeers(t, store.Technicians(ctx)),
	})
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]interface{}{
		"started":         s.started,
		"dataPath":        s.dataPath,
		"dataFormat":      s.dataFormat,
		"insightsEnabled": s.generator != nil,
	}

	if s.started {
		techs, jobs := s.store.Count(ctx)
		jobTypes := len(s.global.JobTypes())

		out["technicians"] = techs
		out["jobs"] = jobs
		out["jobTypes"] = jobTypes
		out["loadedAt"] = s.loadedAt.UTC().Format(time.RFC3339)

		metrics.UpdateDatasetSize(techs, jobs, jobTypes)
	}

	return out
}
