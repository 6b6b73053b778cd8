// Package insight turns a technician's metrics into coaching advice from a
// language model.
package insight

import (
	"encoding/json"

	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/internal/domain/stats"
)

type Improvement struct {
	Area           string `json:"area"`
	Detail         string `json:"detail"`
	Recommendation string `json:"recommendation"`
}

type Training struct {
	Skill  string `json:"skill"`
	Reason string `json:"reason"`
}

// Insights is the structured advice the model is asked to return.
type Insights struct {
	Summary                 string        `json:"summary"`
	Strengths               []string      `json:"strengths"`
	Improvements            []Improvement `json:"improvements"`
	TrainingRecommendations []Training    `json:"trainingRecommendations"`
}

// Context is the data the advice was generated from.
type Context struct {
	CompanyAvg        stats.Overall             `json:"companyAvg"`
	JobTypeComparison []stats.JobTypeComparison `json:"jobTypeComparison"`
	RegionAvgScore    float64                   `json:"regionAvgScore"`
	RegionPeerCount   int                       `json:"regionPeerCount"`
}

// Response is returned to API clients. A degraded response carries the raw
// model text as the summary and an empty context object.
type Response struct {
	Insights Insights `json:"insights"`
	Context  Context  `json:"context"`
	Degraded bool     `json:"-"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	var ctx any = r.Context
	if r.Degraded {
		ctx = struct{}{}
	}
	return json.Marshal(struct {
		Insights Insights `json:"insights"`
		Context  any      `json:"context"`
	}{r.Insights, ctx})
}

// Degraded wraps unparseable model output.
func Degraded(raw string) Response {
	return Response{
		Insights: Insights{
			Summary:                 raw,
			Strengths:               []string{},
			Improvements:            []Improvement{},
			TrainingRecommendations: []Training{},
		},
		Degraded: true,
	}
}

// Subject is everything the prompt says about one technician.
type Subject struct {
	Technician model.Technician
	Overall    stats.Overall
	Comparison []stats.JobTypeComparison
	Peers      stats.PeerContext
}

func (s Subject) context() Context {
	cmp := s.Comparison
	if cmp == nil {
		cmp = []stats.JobTypeComparison{}
	}
	return Context{
		CompanyAvg:        s.Overall,
		JobTypeComparison: cmp,
		RegionAvgScore:    s.Peers.AvgScore,
		RegionPeerCount:   s.Peers.Count,
	}
}
