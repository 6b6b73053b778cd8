package insight

import "errors"

// Sentinel kinds for insight generation errors.
var (
	// ErrUnavailable covers every failure to obtain a model response:
	// missing credentials, transport errors, non-success statuses after
	// retries and timeouts.
	ErrUnavailable = errors.New("insight service unavailable")
	ErrNoJobs      = errors.New("no job data available")
)

// degradedError carries raw model text that could not be parsed, so the
// caller can still answer with it.
type degradedError struct {
	raw string
}

func (e *degradedError) Error() string { return "model returned unstructured output" }
