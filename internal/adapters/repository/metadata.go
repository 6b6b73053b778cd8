package repository

import (
	"sort"

	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/internal/domain/ranking"
)

// thresholdKeys names the dataset thresholds the UI highlights, keyed the
// way the data file stores them.
var thresholdKeys = map[string]ranking.SortKey{
	"ftfr":             ranking.FirstTimeFixRate,
	"avgTime":          ranking.AvgCompletionTimeMinutes,
	"jobsPerWeek":      ranking.JobsPerWeek,
	"completionRate":   ranking.CompletionRate,
	"slaCompliance":    ranking.SLAComplianceRate,
	"performanceScore": ranking.PerformanceScore,
}

// deriveThresholds computes decile thresholds over active technicians for
// datasets that do not ship them. Cut-offs are read from ascending values for
// every metric, matching the thresholds returned with a ranking.
func deriveThresholds(techs []model.Technician) map[string]model.Threshold {
	active := filter.Active(techs)
	out := make(map[string]model.Threshold, len(thresholdKeys))
	for name, key := range thresholdKeys {
		values := make([]float64, len(active))
		for i, t := range active {
			values[i] = key.Value(t)
		}
		th := ranking.Thresholds(values)
		out[name] = model.Threshold{Top10: th.Top10, Bottom10: th.Bottom10}
	}
	return out
}

func deriveFilterOptions(techs []model.Technician, jobs []model.Job) model.FilterOptions {
	regions := newStringSet()
	roles := newStringSet()
	noms := newStringSet()
	roms := newStringSet()
	jobTypes := newStringSet()
	for _, t := range techs {
		regions.add(t.Region)
		roles.add(t.Role)
		noms.add(t.Nom)
		roms.add(t.Rom)
	}
	for _, j := range jobs {
		regions.add(j.Region)
		jobTypes.add(j.JobType)
	}
	return model.FilterOptions{
		Regions:  regions.sorted(),
		JobTypes: jobTypes.sorted(),
		Roles:    roles.sorted(),
		Noms:     noms.sorted(),
		Roms:     roms.sorted(),
	}
}

func deriveDateRange(jobs []model.Job) model.DateRange {
	var dr model.DateRange
	for _, j := range jobs {
		if dr.Min == "" || j.Date < dr.Min {
			dr.Min = j.Date
		}
		if dr.Max == "" || j.Date > dr.Max {
			dr.Max = j.Date
		}
	}
	return dr
}

type stringSet map[string]struct{}

func newStringSet() stringSet { return make(stringSet) }

func (s stringSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
