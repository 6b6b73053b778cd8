package stats

import (
	"sort"

	"github.com/fieldops/techrank/internal/domain/aggregate"
	"github.com/fieldops/techrank/internal/domain/model"
)

// JobTypeComparison pairs a technician's bucket for one job type with the
// company bucket for the same type.
type JobTypeComparison struct {
	JobType          string  `json:"jobType"`
	Count            int     `json:"count"`
	TechFTFR         float64 `json:"techFTFR"`
	GlobalFTFR       float64 `json:"globalFTFR"`
	TechAvgTime      float64 `json:"techAvgTime"`
	GlobalAvgTime    float64 `json:"globalAvgTime"`
	TechSLA          float64 `json:"techSLA"`
	GlobalSLA        float64 `json:"globalSLA"`
	TechRepeatRate   float64 `json:"techRepeatRate"`
	GlobalRepeatRate float64 `json:"globalRepeatRate"`
}

// CompareJobTypes buckets techJobs by job type and pairs each bucket with
// the global one. A job type missing from global compares against zeros.
// The result is ordered by the technician's job count, largest first.
func CompareJobTypes(techJobs []model.Job, global *Global) []JobTypeComparison {
	buckets := aggregate.ByJobType(techJobs)
	out := make([]JobTypeComparison, 0, len(buckets))
	for _, jt := range aggregate.JobTypes(techJobs) {
		b := buckets[jt]
		g, _ := global.JobType(jt)
		out = append(out, JobTypeComparison{
			JobType:          jt,
			Count:            b.Count,
			TechFTFR:         b.FirstTimeFixRate,
			GlobalFTFR:       g.FirstTimeFixRate,
			TechAvgTime:      b.AvgCompletionTimeMinutes,
			GlobalAvgTime:    g.AvgCompletionTimeMinutes,
			TechSLA:          b.SLAComplianceRate,
			GlobalSLA:        g.SLAComplianceRate,
			TechRepeatRate:   b.RevisitRate,
			GlobalRepeatRate: g.RevisitRate,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// PeerContext describes a technician's regional peer group.
type PeerContext struct {
	AvgScore float64 `json:"regionAvgScore"`
	Count    int     `json:"regionPeerCount"`
}

// RegionPeers averages the performance score of active technicians in the
// subject's region, excluding the subject. With no peers the average is 0.
func RegionPeers(subject model.Technician, techs []model.Technician) PeerContext {
	var (
		total float64
		n     int
	)
	for _, t := range techs {
		if t.Region != subject.Region || t.NetworkID == subject.NetworkID || !t.Active() {
			continue
		}
		total += t.PerformanceScore
		n++
	}
	if n == 0 {
		return PeerContext{}
	}
	return PeerContext{AvgScore: aggregate.Round1(total / float64(n)), Count: n}
}
