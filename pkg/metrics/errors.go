package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrDisabled = errors.New("metrics disabled")
)
