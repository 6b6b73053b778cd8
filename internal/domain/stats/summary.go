package stats

import (
	"github.com/fieldops/techrank/internal/domain/aggregate"
	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
)

// Summary is the company-wide overview over active technicians.
type Summary struct {
	TotalTechnicians    int     `json:"totalTechnicians"`
	TotalJobs           int     `json:"totalJobs"`
	AvgFirstTimeFixRate float64 `json:"avgFirstTimeFixRate"`
	AvgCompletionTime   float64 `json:"avgCompletionTime"`
	AvgJobsPerWeek      float64 `json:"avgJobsPerWeek"`
	AvgCompletionRate   float64 `json:"avgCompletionRate"`
	AvgSLACompliance    float64 `json:"avgSlaCompliance"`
	AvgPerformanceScore float64 `json:"avgPerformanceScore"`
}

// Summarize averages stored metrics over the technicians with completed
// jobs. It returns false when no technician qualifies.
func Summarize(techs []model.Technician) (Summary, bool) {
	active := filter.Active(techs)
	if len(active) == 0 {
		return Summary{}, false
	}
	var s sums
	for _, t := range active {
		s.add(t)
	}
	n := float64(len(active))
	return Summary{
		TotalTechnicians:    len(active),
		TotalJobs:           s.jobs,
		AvgFirstTimeFixRate: aggregate.Round1(s.ftfr / n),
		AvgCompletionTime:   aggregate.RoundInt(s.time / n),
		AvgJobsPerWeek:      aggregate.Round1(s.jobsPerWeek / n),
		AvgCompletionRate:   aggregate.Round1(s.completion / n),
		AvgSLACompliance:    aggregate.Round1(s.sla / n),
		AvgPerformanceScore: aggregate.Round1(s.score / n),
	}, true
}
