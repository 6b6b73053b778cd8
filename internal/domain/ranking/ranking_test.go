package ranking_test

import (
	"errors"
	"testing"

	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/internal/domain/ranking"
	"github.com/fieldops/techrank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func tech(id string, score, avgTime float64, done int) model.Technician {
	t := model.Technician{NetworkID: id, Region: "North"}
	t.PerformanceScore = score
	t.AvgCompletionTimeMinutes = avgTime
	t.TotalJobsCompleted = done
	t.TotalTasksAssigned = done + 2
	t.CompletionRate = 91.5
	t.PerformanceTier = "Core"
	return t
}

func rankedIDs(r types.Ranking) []string {
	out := make([]string, len(r.Technicians))
	for i, t := range r.Technicians {
		out[i] = t.NetworkID
	}
	return out
}

func TestRank(t *testing.T) {
	Convey("Given three technicians scored 70, 90 and 80", t, func() {
		techs := []model.Technician{
			tech("A", 70, 50, 5),
			tech("B", 90, 40, 5),
			tech("C", 80, 60, 5),
		}

		Convey("When ranking by performance score descending", func() {
			r := ranking.Rank(techs, nil, filter.JobFilter{}, ranking.PerformanceScore, ranking.Desc)

			Convey("Then ranks follow descending score", func() {
				So(rankedIDs(r), ShouldResemble, []string{"B", "C", "A"})
				So(r.Technicians[0].Rank, ShouldEqual, 1)
				So(r.Technicians[2].Rank, ShouldEqual, 3)
			})

			Convey("And thresholds index the ascending values", func() {
				So(r.Meta.Thresholds.Top10, ShouldEqual, 90)
				So(r.Meta.Thresholds.Bottom10, ShouldEqual, 70)
			})

			Convey("And meta reports what was used", func() {
				So(r.Meta.Total, ShouldEqual, 3)
				So(r.Meta.SortBy, ShouldEqual, "performanceScore")
				So(r.Meta.Order, ShouldEqual, "desc")
			})
		})

		Convey("When ranking ascending", func() {
			r := ranking.Rank(techs, nil, filter.JobFilter{}, ranking.PerformanceScore, ranking.Asc)
			So(rankedIDs(r), ShouldResemble, []string{"A", "C", "B"})
			So(r.Meta.Thresholds.Top10, ShouldEqual, 90)
		})

		Convey("When ranking by average completion time descending", func() {
			r := ranking.Rank(techs, nil, filter.JobFilter{}, ranking.AvgCompletionTimeMinutes, ranking.Desc)

			Convey("Then the fastest technician ranks first", func() {
				So(rankedIDs(r), ShouldResemble, []string{"B", "A", "C"})
			})
		})

		Convey("When ranking by average completion time ascending", func() {
			r := ranking.Rank(techs, nil, filter.JobFilter{}, ranking.AvgCompletionTimeMinutes, ranking.Asc)
			So(rankedIDs(r), ShouldResemble, []string{"C", "A", "B"})
		})

		Convey("The input collection is not mutated", func() {
			_ = ranking.Rank(techs, nil, filter.JobFilter{}, ranking.PerformanceScore, ranking.Desc)
			So(techs[0].NetworkID, ShouldEqual, "A")
		})
	})

	Convey("Given exact ties", t, func() {
		techs := []model.Technician{tech("X", 80, 0, 1), tech("Y", 90, 0, 1), tech("Z", 80, 0, 1)}

		Convey("Then ties keep input order in both directions", func() {
			So(rankedIDs(ranking.Rank(techs, nil, filter.JobFilter{}, ranking.PerformanceScore, ranking.Desc)), ShouldResemble, []string{"Y", "X", "Z"})
			So(rankedIDs(ranking.Rank(techs, nil, filter.JobFilter{}, ranking.PerformanceScore, ranking.Asc)), ShouldResemble, []string{"X", "Z", "Y"})
		})
	})

	Convey("Given technicians with zero completed jobs", t, func() {
		techs := []model.Technician{tech("A", 50, 0, 0), tech("B", 60, 0, 3), tech("C", 70, 0, 0), tech("D", 40, 0, 2)}

		Convey("Then the ranking is a permutation of the active technicians", func() {
			r := ranking.Rank(techs, nil, filter.JobFilter{}, ranking.PerformanceScore, ranking.Desc)
			So(rankedIDs(r), ShouldResemble, []string{"B", "D"})
			for i, row := range r.Technicians {
				So(row.Rank, ShouldEqual, i+1)
			}
		})
	})

	Convey("Given an empty collection", t, func() {
		r := ranking.Rank(nil, nil, filter.JobFilter{}, ranking.JobsPerWeek, ranking.Desc)

		Convey("Then the result is empty with zero thresholds", func() {
			So(r.Technicians, ShouldBeEmpty)
			So(r.Meta.Total, ShouldEqual, 0)
			So(r.Meta.Thresholds, ShouldResemble, types.Thresholds{})
		})
	})
}

func TestRankWithJobFilter(t *testing.T) {
	Convey("Given technicians and their job histories", t, func() {
		techs := []model.Technician{tech("A", 70, 99, 9), tech("B", 90, 99, 9), tech("C", 80, 99, 9)}
		jobs := map[string][]model.Job{
			"A": {
				{TechnicianID: "A", JobType: "Install", Date: "2024-01-02", CompletionTimeMinutes: 30, FirstTimeFix: true, SLACompliant: true},
				{TechnicianID: "A", JobType: "Repair", Date: "2024-01-03", CompletionTimeMinutes: 80},
			},
			"B": {
				{TechnicianID: "B", JobType: "Install", Date: "2024-03-01", CompletionTimeMinutes: 45},
			},
			"C": {
				{TechnicianID: "C", JobType: "Install", Date: "2024-01-05", CompletionTimeMinutes: 50, RevisitRequired: true},
				{TechnicianID: "C", JobType: "Install", Date: "2024-01-06", CompletionTimeMinutes: 70, FirstTimeFix: true},
			},
		}
		lookup := func(id string) []model.Job { return jobs[id] }

		Convey("When restricting to January installs", func() {
			jf := filter.JobFilter{JobType: "Install", DateFrom: "2024-01-01", DateTo: "2024-01-31"}
			r := ranking.Rank(techs, lookup, jf, ranking.FirstTimeFixRate, ranking.Desc)

			Convey("Then the technician without matching jobs is excluded", func() {
				So(rankedIDs(r), ShouldResemble, []string{"A", "C"})
			})

			Convey("And metrics are recomputed from the matching jobs only", func() {
				a := r.Technicians[0]
				So(a.TotalJobsCompleted, ShouldEqual, 1)
				So(a.FirstTimeFixRate, ShouldEqual, 100.0)
				So(a.AvgCompletionTimeMinutes, ShouldEqual, 30)
				So(a.SLAComplianceRate, ShouldEqual, 100.0)

				c := r.Technicians[1]
				So(c.TotalJobsCompleted, ShouldEqual, 2)
				So(c.FirstTimeFixRate, ShouldEqual, 50.0)
				So(c.RepeatVisitRate, ShouldEqual, 50.0)
				So(c.AvgCompletionTimeMinutes, ShouldEqual, 60)
			})

			Convey("And stored pass-through fields are carried forward", func() {
				a := r.Technicians[0]
				So(a.CompletionRate, ShouldEqual, 91.5)
				So(a.TotalTasksAssigned, ShouldEqual, 11)
				So(a.PerformanceScore, ShouldEqual, 70)
				So(a.PerformanceTier, ShouldEqual, "Core")
			})
		})

		Convey("When a filter that does not recompute is supplied", func() {
			r := ranking.Rank(techs, lookup, filter.JobFilter{Region: "South"}, ranking.PerformanceScore, ranking.Desc)

			Convey("Then stored metrics are used", func() {
				So(rankedIDs(r), ShouldResemble, []string{"B", "C", "A"})
				So(r.Technicians[0].TotalJobsCompleted, ShouldEqual, 9)
			})
		})
	})
}

func TestRecompute(t *testing.T) {
	Convey("Given a technician with no jobs in the window", t, func() {
		orig := tech("A", 70, 40, 9)
		got := ranking.Recompute(orig, nil)

		Convey("Then every recomputed metric is zero", func() {
			So(got.TotalJobsCompleted, ShouldEqual, 0)
			So(got.TotalTasksAssigned, ShouldEqual, 0)
			So(got.CompletionRate, ShouldEqual, 0)
			So(got.PerformanceScore, ShouldEqual, 0)
			So(got.AvgCompletionTimeMinutes, ShouldEqual, 0)
			So(got.Active(), ShouldBeFalse)
		})

		Convey("And the stored record is untouched", func() {
			So(orig.PerformanceScore, ShouldEqual, 70)
			So(orig.TotalJobsCompleted, ShouldEqual, 9)
		})
	})
}

func TestThresholds(t *testing.T) {
	Convey("Given ranked values", t, func() {
		Convey("A single value is both thresholds", func() {
			th := ranking.Thresholds([]float64{42})
			So(th.Top10, ShouldEqual, 42)
			So(th.Bottom10, ShouldEqual, 42)
		})

		Convey("Ten values index 9 and 1", func() {
			th := ranking.Thresholds([]float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1})
			So(th.Top10, ShouldEqual, 10)
			So(th.Bottom10, ShouldEqual, 2)
		})

		Convey("Bottom never exceeds top and both stay within range", func() {
			vals := []float64{3, 1, 4, 1, 5, 9, 2, 6}
			th := ranking.Thresholds(vals)
			So(th.Bottom10, ShouldBeLessThanOrEqualTo, th.Top10)
			So(th.Bottom10, ShouldBeGreaterThanOrEqualTo, 1)
			So(th.Top10, ShouldBeLessThanOrEqualTo, 9)
		})

		Convey("The input slice keeps its order", func() {
			vals := []float64{3, 1, 2}
			_ = ranking.Thresholds(vals)
			So(vals, ShouldResemble, []float64{3, 1, 2})
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Sort keys parse from their wire names", t, func() {
		for _, k := range ranking.SortKeys() {
			got, err := ranking.ParseSortKey(k.String())
			So(err, ShouldBeNil)
			So(got, ShouldEqual, k)
		}

		k, err := ranking.ParseSortKey("")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, ranking.PerformanceScore)

		_, err = ranking.ParseSortKey("name")
		So(errors.Is(err, ranking.ErrInvalidSortKey), ShouldBeTrue)
	})

	Convey("Only avgCompletionTimeMinutes is lower-is-better", t, func() {
		for _, k := range ranking.SortKeys() {
			So(k.LowerIsBetter(), ShouldEqual, k == ranking.AvgCompletionTimeMinutes)
		}
	})

	Convey("Orders parse with a desc default", t, func() {
		o, err := ranking.ParseOrder("")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, ranking.Desc)

		o, err = ranking.ParseOrder("ASC")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, ranking.Asc)

		_, err = ranking.ParseOrder("sideways")
		So(errors.Is(err, ranking.ErrInvalidOrder), ShouldBeTrue)
	})
}
