// Package types contains common types used across the application
package types

import "github.com/fieldops/techrank/internal/domain/model"

// RankedTechnician is a technician row with its position in one ranking.
type RankedTechnician struct {
	model.Technician
	Rank int `json:"rank"`
}

// Thresholds are the decile cut-offs of the ranked metric values.
type Thresholds struct {
	Top10    float64 `json:"top10"`
	Bottom10 float64 `json:"bottom10"`
}

// RankingMeta describes how a ranking was produced.
type RankingMeta struct {
	Total      int        `json:"total"`
	SortBy     string     `json:"sortBy"`
	Order      string     `json:"order"`
	Thresholds Thresholds `json:"thresholds"`
}

// Ranking is the read shape returned by ranking queries.
type Ranking struct {
	Technicians []RankedTechnician `json:"technicians"`
	Meta        RankingMeta        `json:"meta"`
}
