// Package verify checks a running techrank server against rankings computed
// locally from the same dataset.
package verify

import (
	"errors"
	"time"
)

// Sentinel error kinds for verification.
var (
	ErrUnhealthy = errors.New("service health check failed")
	ErrMismatch  = errors.New("server rankings differ from local rankings")
)

// Config holds configuration for a verification run.
type Config struct {
	BaseURL string        // Base URL of the service
	Timeout time.Duration // HTTP request timeout
	Workers int           // Concurrent ranking requests
}

// Mismatch is one disagreement between the server and the local ranking.
type Mismatch struct {
	SortBy   string `json:"sortBy"`
	Order    string `json:"order"`
	Position int    `json:"position"`
	Want     string `json:"want"`
	Got      string `json:"got"`
}

// Report summarizes a verification run.
type Report struct {
	Checked    int           `json:"checked"`
	Rows       int           `json:"rows"`
	Mismatches []Mismatch    `json:"mismatches"`
	Duration   time.Duration `json:"duration"`
}

// OK reports whether every ranking matched.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}
