// Package ranking orders technicians by a selectable metric, assigns dense
// ranks and computes decile thresholds over the ranked values.
package ranking

import (
	"errors"
	"math"
	"sort"

	"github.com/fieldops/techrank/internal/domain/aggregate"
	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/internal/domain/types"
)

const (
	topDecile    = 0.9
	bottomDecile = 0.1
)

// Sentinel kinds for ranking errors.
var (
	ErrInvalidSortKey = errors.New("invalid sort key")
	ErrInvalidOrder   = errors.New("invalid sort order")
)

// JobLookup returns the full job history of a technician.
type JobLookup func(networkID string) []model.Job

// Recompute derives a technician's metrics from jobs, which must already be
// filtered. CompletionRate and TotalTasksAssigned pass through unchanged and
// PerformanceScore is carried forward; none of them can be derived from job
// records. With no jobs, every metric is zeroed.
func Recompute(t model.Technician, jobs []model.Job) model.Technician {
	out := t.Clone()
	b, err := aggregate.Jobs(jobs)
	if err != nil {
		out.StoredMetrics = model.StoredMetrics{PerformanceTier: t.PerformanceTier}
		return out
	}
	out.StoredMetrics = model.StoredMetrics{
		TotalTasksAssigned:       t.TotalTasksAssigned,
		TotalJobsCompleted:       b.Count,
		CompletionRate:           t.CompletionRate,
		FirstTimeFixRate:         b.FirstTimeFixRate,
		AvgCompletionTimeMinutes: b.AvgCompletionTimeMinutes,
		JobsPerWeek:              b.JobsPerWeek,
		SLAComplianceRate:        b.SLAComplianceRate,
		RepeatVisitRate:          b.RevisitRate,
		PerformanceScore:         t.PerformanceScore,
		PerformanceTier:          t.PerformanceTier,
	}
	return out
}

// Rank orders techs by key. When jf narrows dates or job type, metrics are
// first recomputed from each technician's matching jobs. Technicians with no
// completed jobs are dropped. Exact ties keep their input order.
func Rank(techs []model.Technician, jobsFor JobLookup, jf filter.JobFilter, key SortKey, order Order) types.Ranking {
	rows := make([]model.Technician, 0, len(techs))
	recompute := jf.Recomputes() && jobsFor != nil
	for _, t := range techs {
		if recompute {
			t = Recompute(t, filter.Jobs(jobsFor(t.NetworkID), jobFilterFor(t.NetworkID, jf)))
		} else {
			t = t.Clone()
		}
		if t.Active() {
			rows = append(rows, t)
		}
	}

	desc := order.descending(key)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := key.Value(rows[i]), key.Value(rows[j])
		if desc {
			return a > b
		}
		return a < b
	})

	ranked := make([]types.RankedTechnician, len(rows))
	values := make([]float64, len(rows))
	for i, t := range rows {
		ranked[i] = types.RankedTechnician{Technician: t, Rank: i + 1}
		values[i] = key.Value(t)
	}

	if order != Asc {
		order = Desc
	}
	return types.Ranking{
		Technicians: ranked,
		Meta: types.RankingMeta{
			Total:      len(ranked),
			SortBy:     key.String(),
			Order:      string(order),
			Thresholds: Thresholds(values),
		},
	}
}

// Thresholds returns the values at floor(N*0.9) and floor(N*0.1) of the
// ascending-sorted input, clamped to valid indexes. Empty input yields zeros.
func Thresholds(values []float64) types.Thresholds {
	n := len(values)
	if n == 0 {
		return types.Thresholds{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return types.Thresholds{
		Top10:    sorted[decileIndex(n, topDecile)],
		Bottom10: sorted[decileIndex(n, bottomDecile)],
	}
}

func decileIndex(n int, q float64) int {
	i := int(math.Floor(float64(n) * q))
	if i > n-1 {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// jobFilterFor restricts jf to the date and job-type predicates, scoped to
// one technician.
func jobFilterFor(networkID string, jf filter.JobFilter) filter.JobFilter {
	return filter.JobFilter{
		TechnicianID: networkID,
		JobType:      jf.JobType,
		DateFrom:     jf.DateFrom,
		DateTo:       jf.DateTo,
	}
}
