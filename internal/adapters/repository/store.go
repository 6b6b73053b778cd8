// Package repository provides the read-only record store backing every
// query: technicians and jobs loaded once at startup.
package repository

import (
	"context"

	"github.com/fieldops/techrank/internal/domain/model"
)

// Store provides read access to the canonical record collections. Returned
// slices are copies; callers may reorder them freely.
type Store interface {
	// Technicians returns every technician in load order.
	Technicians(ctx context.Context) []model.Technician

	// Technician returns one technician by network ID.
	// Returns ErrNotFound if the ID is unknown.
	Technician(ctx context.Context, networkID string) (model.Technician, error)

	// Jobs returns every job in load order.
	Jobs(ctx context.Context) []model.Job

	// JobsFor returns the jobs owned by one technician in load order.
	JobsFor(ctx context.Context, networkID string) []model.Job

	// Thresholds returns the dataset-level decile thresholds per metric.
	Thresholds(ctx context.Context) map[string]model.Threshold

	// FilterOptions returns the distinct categorical values in the data.
	FilterOptions(ctx context.Context) model.FilterOptions

	// DateRange returns the span of job dates.
	DateRange(ctx context.Context) model.DateRange

	// Count returns the number of technicians and jobs.
	Count(ctx context.Context) (technicians, jobs int)
}
