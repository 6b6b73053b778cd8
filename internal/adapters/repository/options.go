package repository

import "github.com/fieldops/techrank/pkg/logger"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithLogger sets the logger used to report load-time findings.
func WithLogger(l logger.Logger) Option {
	return func(s *MemStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDropOrphans makes the store log and drop jobs whose technician is
// unknown instead of failing the load with ErrIntegrity.
func WithDropOrphans(drop bool) Option {
	return func(s *MemStore) {
		s.dropOrphans = drop
	}
}
