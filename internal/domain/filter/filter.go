// Package filter applies conjunctive predicates to technician and job
// sequences. Every predicate is optional: an empty value imposes no
// constraint, mirroring an unset query parameter. Results preserve input
// order and are always freshly allocated.
package filter

import "github.com/fieldops/techrank/internal/domain/model"

// TechnicianFilter selects technicians by exact categorical match.
type TechnicianFilter struct {
	Region string
	Role   string
	Nom    string
	Rom    string
}

// Empty reports whether no predicate is set.
func (f TechnicianFilter) Empty() bool {
	return f == TechnicianFilter{}
}

// Match reports whether t satisfies every supplied predicate.
func (f TechnicianFilter) Match(t model.Technician) bool {
	return matches(f.Region, t.Region) &&
		matches(f.Role, t.Role) &&
		matches(f.Nom, t.Nom) &&
		matches(f.Rom, t.Rom)
}

// JobFilter selects jobs by exact categorical match and an inclusive date
// window. Dates are ISO-8601 calendar days compared lexicographically.
type JobFilter struct {
	TechnicianID string
	Region       string
	JobType      string
	DateFrom     string
	DateTo       string
}

// Empty reports whether no predicate is set.
func (f JobFilter) Empty() bool {
	return f == JobFilter{}
}

// Recomputes reports whether the filter narrows a technician's job history
// enough that stored metrics no longer apply.
func (f JobFilter) Recomputes() bool {
	return f.DateFrom != "" || f.DateTo != "" || f.JobType != ""
}

// Match reports whether j satisfies every supplied predicate.
func (f JobFilter) Match(j model.Job) bool {
	if !matches(f.TechnicianID, j.TechnicianID) ||
		!matches(f.Region, j.Region) ||
		!matches(f.JobType, j.JobType) {
		return false
	}
	if f.DateFrom != "" && j.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && j.Date > f.DateTo {
		return false
	}
	return true
}

// Technicians returns the technicians matching f.
func Technicians(techs []model.Technician, f TechnicianFilter) []model.Technician {
	out := make([]model.Technician, 0, len(techs))
	for _, t := range techs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Jobs returns the jobs matching f.
func Jobs(jobs []model.Job, f JobFilter) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}

// Active returns the technicians with at least one completed job.
func Active(techs []model.Technician) []model.Technician {
	out := make([]model.Technician, 0, len(techs))
	for _, t := range techs {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out
}

func matches(want, got string) bool {
	return want == "" || want == got
}
