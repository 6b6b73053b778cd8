// Package datagen builds synthetic, reproducible technician datasets for
// demos, the generate command and tests.
package datagen

import (
	"errors"
	"runtime"
	"time"
)

// ErrInvalidConfig is returned for non-positive sizes.
var ErrInvalidConfig = errors.New("invalid generator config")

// Config holds generator settings. The same Config always yields the same
// dataset.
type Config struct {
	Technicians int       // Number of technicians to create
	Days        int       // Length of the job history window
	Start       time.Time // First day of the window
	Seed        uint64    // PRNG seed
	Workers     int       // Concurrent per-technician generators
	// InactiveShare is the fraction of technicians that get no jobs.
	InactiveShare float64
}

// Option applies a configuration option to the Config.
type Option func(*Config)

// WithTechnicians sets the number of technicians.
func WithTechnicians(n int) Option {
	return func(c *Config) { c.Technicians = n }
}

// WithDays sets the length of the history window.
func WithDays(n int) Option {
	return func(c *Config) { c.Days = n }
}

// WithStart sets the first day of the history window.
func WithStart(t time.Time) Option {
	return func(c *Config) {
		if !t.IsZero() {
			c.Start = t
		}
	}
}

// WithSeed sets the PRNG seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithWorkers sets the number of concurrent generators.
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithInactiveShare sets the fraction of technicians without jobs.
func WithInactiveShare(f float64) Option {
	return func(c *Config) {
		if f >= 0 && f < 1 {
			c.InactiveShare = f
		}
	}
}

// NewConfig returns a Config with defaults and opts applied.
func NewConfig(opts ...Option) Config {
	c := Config{
		Technicians:   50,
		Days:          90,
		Start:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Seed:          42,
		Workers:       runtime.NumCPU(),
		InactiveShare: 0.05,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
