// Package aggregate derives performance metrics from a sequence of jobs.
//
// The same formulas and the same rounding are applied at every scope: the
// whole corpus, one technician, or one job-type bucket.
package aggregate

import (
	"errors"
	"math"
	"time"

	"github.com/fieldops/techrank/internal/domain/model"
)

const (
	percent     = 100
	daysPerWeek = 7
	hoursPerDay = 24
	minWeeks    = 1
)

// ErrEmpty is returned when aggregating an empty job sequence. Callers that
// need a per-entity fallback use JobsOrZero instead.
var ErrEmpty = errors.New("no jobs to aggregate")

// Bundle is the derived metric set for a group of jobs.
type Bundle struct {
	Count                    int     `json:"count"`
	FirstTimeFixRate         float64 `json:"firstTimeFixRate"`
	AvgCompletionTimeMinutes float64 `json:"avgCompletionTimeMinutes"`
	JobsPerWeek              float64 `json:"jobsPerWeek"`
	SLAComplianceRate        float64 `json:"slaComplianceRate"`
	RevisitRate              float64 `json:"revisitRate"`
}

// Jobs aggregates jobs into a Bundle.
func Jobs(jobs []model.Job) (Bundle, error) {
	if len(jobs) == 0 {
		return Bundle{}, ErrEmpty
	}
	var acc accumulator
	for _, j := range jobs {
		acc.add(j)
	}
	return acc.bundle(), nil
}

// JobsOrZero aggregates jobs, returning an all-zero Bundle for an empty slice.
func JobsOrZero(jobs []model.Job) Bundle {
	b, err := Jobs(jobs)
	if err != nil {
		return Bundle{}
	}
	return b
}

// ByJobType partitions jobs by exact job-type label and aggregates each
// bucket independently.
func ByJobType(jobs []model.Job) map[string]Bundle {
	buckets := make(map[string]*accumulator)
	for _, j := range jobs {
		acc, ok := buckets[j.JobType]
		if !ok {
			acc = &accumulator{}
			buckets[j.JobType] = acc
		}
		acc.add(j)
	}

	out := make(map[string]Bundle, len(buckets))
	for jt, acc := range buckets {
		out[jt] = acc.bundle()
	}
	return out
}

// JobTypes returns the distinct job types in first-seen order.
func JobTypes(jobs []model.Job) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, j := range jobs {
		if _, ok := seen[j.JobType]; ok {
			continue
		}
		seen[j.JobType] = struct{}{}
		out = append(out, j.JobType)
	}
	return out
}

// accumulator holds running sums for one bucket.
type accumulator struct {
	count        int
	ftfCount     int
	slaCount     int
	revisitCount int
	totalTime    int

	hasSpan  bool
	earliest time.Time
	latest   time.Time
}

func (a *accumulator) add(j model.Job) {
	a.count++
	a.totalTime += j.CompletionTimeMinutes
	if j.FirstTimeFix {
		a.ftfCount++
	}
	if j.SLACompliant {
		a.slaCount++
	}
	if j.RevisitRequired {
		a.revisitCount++
	}

	day, err := j.Day()
	if err != nil {
		return
	}
	if !a.hasSpan {
		a.hasSpan = true
		a.earliest, a.latest = day, day
		return
	}
	if day.Before(a.earliest) {
		a.earliest = day
	}
	if day.After(a.latest) {
		a.latest = day
	}
}

func (a *accumulator) bundle() Bundle {
	if a.count == 0 {
		return Bundle{}
	}
	n := float64(a.count)
	return Bundle{
		Count:                    a.count,
		FirstTimeFixRate:         Rate(a.ftfCount, a.count),
		AvgCompletionTimeMinutes: RoundInt(float64(a.totalTime) / n),
		JobsPerWeek:              Round1(n / a.weeks()),
		SLAComplianceRate:        Rate(a.slaCount, a.count),
		RevisitRate:              Rate(a.revisitCount, a.count),
	}
}

// weeks is the span between earliest and latest job, floored at one week.
func (a *accumulator) weeks() float64 {
	if !a.hasSpan {
		return minWeeks
	}
	days := a.latest.Sub(a.earliest).Hours() / hoursPerDay
	return math.Max(minWeeks, days/daysPerWeek)
}

// Rate returns part/total as a percentage rounded to one decimal. A zero
// total yields 0.
func Rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round1(float64(part) / float64(total) * percent)
}

// Round1 rounds half away from zero to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// RoundInt rounds half away from zero to the nearest integer.
func RoundInt(x float64) float64 {
	return math.Round(x)
}
