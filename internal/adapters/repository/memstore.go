package repository

import (
	"context"
	"fmt"

	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/pkg/logger"
	"github.com/fieldops/techrank/pkg/metrics"
)

// MemStore is an immutable in-memory Store. All state is fixed in
// NewMemStore, so reads need no locking.
type MemStore struct {
	technicians []model.Technician
	jobs        []model.Job
	byID        map[string]int
	jobsByTech  map[string][]int

	thresholds    map[string]model.Threshold
	filterOptions model.FilterOptions
	dateRange     model.DateRange

	dropOrphans bool
	logger      logger.Logger
}

var _ Store = (*MemStore)(nil)

// NewMemStore validates ds and indexes it. Dangling technician references,
// duplicate or empty network IDs, malformed dates and non-positive
// completion times are reported as ErrIntegrity.
func NewMemStore(ctx context.Context, ds model.Dataset, opts ...Option) (*MemStore, error) {
	s := &MemStore{
		byID:       make(map[string]int, len(ds.Technicians)),
		jobsByTech: make(map[string][]int, len(ds.Technicians)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.technicians = make([]model.Technician, 0, len(ds.Technicians))
	for i, t := range ds.Technicians {
		if t.NetworkID == "" {
			return nil, fmt.Errorf("%w: technician %d has no network id", ErrIntegrity, i)
		}
		if _, dup := s.byID[t.NetworkID]; dup {
			return nil, fmt.Errorf("%w: duplicate network id %q", ErrIntegrity, t.NetworkID)
		}
		s.byID[t.NetworkID] = len(s.technicians)
		s.technicians = append(s.technicians, t.Clone())
	}

	s.jobs = make([]model.Job, 0, len(ds.Jobs))
	orphans := 0
	for i, j := range ds.Jobs {
		if _, err := j.Day(); err != nil {
			return nil, fmt.Errorf("%w: job %d has malformed date %q", ErrIntegrity, i, j.Date)
		}
		if j.CompletionTimeMinutes <= 0 {
			return nil, fmt.Errorf("%w: job %d has non-positive completion time %d", ErrIntegrity, i, j.CompletionTimeMinutes)
		}
		if _, ok := s.byID[j.TechnicianID]; !ok {
			if !s.dropOrphans {
				return nil, fmt.Errorf("%w: job %d references unknown technician %q", ErrIntegrity, i, j.TechnicianID)
			}
			orphans++
			continue
		}
		s.jobsByTech[j.TechnicianID] = append(s.jobsByTech[j.TechnicianID], len(s.jobs))
		s.jobs = append(s.jobs, j)
	}
	if orphans > 0 {
		s.logger.Warn(ctx, "dropped jobs referencing unknown technicians", logger.Int("orphans", orphans))
	}

	s.filterOptions = deriveFilterOptions(s.technicians, s.jobs)
	if ds.FilterOptions != nil {
		s.filterOptions = *ds.FilterOptions
	}
	s.dateRange = deriveDateRange(s.jobs)
	if ds.DateRange != nil {
		s.dateRange = *ds.DateRange
	}
	s.thresholds = deriveThresholds(s.technicians)
	if len(ds.Thresholds) > 0 {
		s.thresholds = make(map[string]model.Threshold, len(ds.Thresholds))
		for k, v := range ds.Thresholds {
			s.thresholds[k] = v
		}
	}

	metrics.UpdateDatasetSize(len(s.technicians), len(s.jobs), len(s.filterOptions.JobTypes))
	s.logger.Info(ctx, "record store loaded",
		logger.Int("technicians", len(s.technicians)),
		logger.Int("jobs", len(s.jobs)),
	)
	return s, nil
}

// Technicians returns every technician in load order.
func (s *MemStore) Technicians(_ context.Context) []model.Technician {
	out := make([]model.Technician, len(s.technicians))
	for i, t := range s.technicians {
		out[i] = t.Clone()
	}
	return out
}

// Technician returns one technician by network ID.
func (s *MemStore) Technician(_ context.Context, networkID string) (model.Technician, error) {
	i, ok := s.byID[networkID]
	if !ok {
		return model.Technician{}, fmt.Errorf("%w: %s", ErrNotFound, networkID)
	}
	return s.technicians[i].Clone(), nil
}

// Jobs returns every job in load order.
func (s *MemStore) Jobs(_ context.Context) []model.Job {
	return append([]model.Job(nil), s.jobs...)
}

// JobsFor returns the jobs owned by one technician in load order.
func (s *MemStore) JobsFor(_ context.Context, networkID string) []model.Job {
	idx := s.jobsByTech[networkID]
	out := make([]model.Job, len(idx))
	for i, j := range idx {
		out[i] = s.jobs[j]
	}
	return out
}

// Thresholds returns the dataset-level decile thresholds per metric.
func (s *MemStore) Thresholds(_ context.Context) map[string]model.Threshold {
	out := make(map[string]model.Threshold, len(s.thresholds))
	for k, v := range s.thresholds {
		out[k] = v
	}
	return out
}

// FilterOptions returns the distinct categorical values in the data.
func (s *MemStore) FilterOptions(_ context.Context) model.FilterOptions {
	fo := s.filterOptions
	return model.FilterOptions{
		Regions:  append([]string(nil), fo.Regions...),
		JobTypes: append([]string(nil), fo.JobTypes...),
		Roles:    append([]string(nil), fo.Roles...),
		Noms:     append([]string(nil), fo.Noms...),
		Roms:     append([]string(nil), fo.Roms...),
	}
}

// DateRange returns the span of job dates.
func (s *MemStore) DateRange(_ context.Context) model.DateRange {
	return s.dateRange
}

// Count returns the number of technicians and jobs.
func (s *MemStore) Count(_ context.Context) (int, int) {
	return len(s.technicians), len(s.jobs)
}
