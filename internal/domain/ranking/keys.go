package ranking

import (
	"fmt"
	"strings"

	"github.com/fieldops/techrank/internal/domain/model"
)

// SortKey selects the metric a ranking is ordered by.
type SortKey int

// Supported sort keys.
const (
	PerformanceScore SortKey = iota
	FirstTimeFixRate
	AvgCompletionTimeMinutes
	JobsPerWeek
	CompletionRate
	SLAComplianceRate
)

// DefaultSortKey is used when no key is requested.
const DefaultSortKey = PerformanceScore

type keyDef struct {
	name          string
	value         func(model.Technician) float64
	lowerIsBetter bool
}

var keyDefs = map[SortKey]keyDef{
	PerformanceScore: {
		name:  "performanceScore",
		value: func(t model.Technician) float64 { return t.PerformanceScore },
	},
	FirstTimeFixRate: {
		name:  "firstTimeFixRate",
		value: func(t model.Technician) float64 { return t.FirstTimeFixRate },
	},
	AvgCompletionTimeMinutes: {
		name:          "avgCompletionTimeMinutes",
		value:         func(t model.Technician) float64 { return t.AvgCompletionTimeMinutes },
		lowerIsBetter: true,
	},
	JobsPerWeek: {
		name:  "jobsPerWeek",
		value: func(t model.Technician) float64 { return t.JobsPerWeek },
	},
	CompletionRate: {
		name:  "completionRate",
		value: func(t model.Technician) float64 { return t.CompletionRate },
	},
	SLAComplianceRate: {
		name:  "slaComplianceRate",
		value: func(t model.Technician) float64 { return t.SLAComplianceRate },
	},
}

// SortKeys lists every supported key in declaration order.
func SortKeys() []SortKey {
	return []SortKey{PerformanceScore, FirstTimeFixRate, AvgCompletionTimeMinutes, JobsPerWeek, CompletionRate, SLAComplianceRate}
}

// ParseSortKey maps a wire name to a SortKey. An empty name yields the default.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSortKey, nil
	}
	for k, def := range keyDefs {
		if def.name == s {
			return k, nil
		}
	}
	return DefaultSortKey, fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
}

// String returns the wire name of the key.
func (k SortKey) String() string {
	if def, ok := keyDefs[k]; ok {
		return def.name
	}
	return fmt.Sprintf("SortKey(%d)", int(k))
}

// Value reads the key's metric from t.
func (k SortKey) Value(t model.Technician) float64 {
	def, ok := keyDefs[k]
	if !ok {
		return 0
	}
	return def.value(t)
}

// LowerIsBetter reports whether smaller values rank higher.
func (k SortKey) LowerIsBetter() bool {
	return keyDefs[k].lowerIsBetter
}

// Order is the requested display direction.
type Order string

// Supported orders.
const (
	Desc Order = "desc"
	Asc  Order = "asc"
)

// ParseOrder maps a wire value to an Order. An empty value yields Desc.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", Desc:
		return Desc, nil
	case Asc:
		return Asc, nil
	default:
		return Desc, fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
}

// descending reports whether values are sorted largest first for key k.
// Lower-is-better keys invert the requested direction so that "desc"
// always surfaces the best performers first.
func (o Order) descending(k SortKey) bool {
	desc := o != Asc
	if k.LowerIsBetter() {
		return !desc
	}
	return desc
}
