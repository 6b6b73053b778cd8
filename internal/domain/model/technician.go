// Package model contains domain models passed between layers.
package model

// StoredMetrics is the aggregate bundle computed once at data-preparation
// time over a technician's full job history. It is only valid for the
// unfiltered job set.
type StoredMetrics struct {
	TotalTasksAssigned       int     `json:"totalTasksAssigned"`
	TotalJobsCompleted       int     `json:"totalJobsCompleted"`
	CompletionRate           float64 `json:"completionRate"`
	FirstTimeFixRate         float64 `json:"firstTimeFixRate"`
	AvgCompletionTimeMinutes float64 `json:"avgCompletionTimeMinutes"`
	JobsPerWeek              float64 `json:"jobsPerWeek"`
	SLAComplianceRate        float64 `json:"slaComplianceRate"`
	RepeatVisitRate          float64 `json:"repeatVisitRate"`
	PerformanceScore         float64 `json:"performanceScore"`
	PerformanceTier          string  `json:"performanceTier"`
}

// Technician is a field-service technician record.
type Technician struct {
	NetworkID      string   `json:"networkId"`
	Name           string   `json:"name"`
	Region         string   `json:"region"`
	City           string   `json:"city"`
	Role           string   `json:"role"`
	Nom            string   `json:"nom"`
	Rom            string   `json:"rom"`
	Skills         []string `json:"skills"`
	ActivationDate string   `json:"activationDate"`

	StoredMetrics
}

// Active reports whether the technician has completed at least one job.
// Inactive technicians are excluded from rankings and summaries.
func (t Technician) Active() bool {
	return t.TotalJobsCompleted > 0
}

// Clone returns a copy that shares no mutable state with t.
func (t Technician) Clone() Technician {
	c := t
	if t.Skills != nil {
		c.Skills = append([]string(nil), t.Skills...)
	}
	return c
}
