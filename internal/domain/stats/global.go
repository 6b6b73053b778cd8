// Package stats builds company-wide reference statistics and compares a
// single technician against them.
package stats

import (
	"github.com/fieldops/techrank/internal/domain/aggregate"
	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
)

// Overall holds company averages of stored metrics over active technicians.
type Overall struct {
	AvgFTFR           float64 `json:"avgFTFR"`
	AvgTime           float64 `json:"avgTime"`
	AvgCompletionRate float64 `json:"avgCompletionRate"`
	AvgJobsPerWeek    float64 `json:"avgJobsPerWeek"`
	AvgSLA            float64 `json:"avgSLA"`
	AvgScore          float64 `json:"avgScore"`
}

// Global is the read-only reference data built once from the full dataset.
// It is safe for concurrent use because nothing mutates it after Build.
type Global struct {
	jobTypes map[string]aggregate.Bundle
	overall  *Overall
}

// Build computes the per-job-type and overall company statistics.
func Build(techs []model.Technician, jobs []model.Job) *Global {
	return &Global{
		jobTypes: aggregate.ByJobType(jobs),
		overall:  buildOverall(techs),
	}
}

// JobType returns the global bucket for jobType.
func (g *Global) JobType(jobType string) (aggregate.Bundle, bool) {
	if g == nil {
		return aggregate.Bundle{}, false
	}
	b, ok := g.jobTypes[jobType]
	return b, ok
}

// JobTypes returns a copy of every global bucket.
func (g *Global) JobTypes() map[string]aggregate.Bundle {
	out := make(map[string]aggregate.Bundle)
	if g == nil {
		return out
	}
	for k, v := range g.jobTypes {
		out[k] = v
	}
	return out
}

// Overall returns the company averages; false when no technician is active.
func (g *Global) Overall() (Overall, bool) {
	if g == nil || g.overall == nil {
		return Overall{}, false
	}
	return *g.overall, true
}

func buildOverall(techs []model.Technician) *Overall {
	active := filter.Active(techs)
	if len(active) == 0 {
		return nil
	}
	var s sums
	for _, t := range active {
		s.add(t)
	}
	n := float64(len(active))
	return &Overall{
		AvgFTFR:           aggregate.Round1(s.ftfr / n),
		AvgTime:           aggregate.RoundInt(s.time / n),
		AvgCompletionRate: aggregate.Round1(s.completion / n),
		AvgJobsPerWeek:    aggregate.Round1(s.jobsPerWeek / n),
		AvgSLA:            aggregate.Round1(s.sla / n),
		AvgScore:          aggregate.Round1(s.score / n),
	}
}

// sums accumulates stored metrics across technicians.
type sums struct {
	ftfr        float64
	time        float64
	completion  float64
	jobsPerWeek float64
	sla         float64
	score       float64
	jobs        int
}

func (s *sums) add(t model.Technician) {
	s.ftfr += t.FirstTimeFixRate
	s.time += t.AvgCompletionTimeMinutes
	s.completion += t.CompletionRate
	s.jobsPerWeek += t.JobsPerWeek
	s.sla += t.SLAComplianceRate
	s.score += t.PerformanceScore
	s.jobs += t.TotalJobsCompleted
}
