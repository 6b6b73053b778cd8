package filter_test

import (
	"testing"

	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func techs() []model.Technician {
	mk := func(id, region, role, nom, rom string, done int) model.Technician {
		t := model.Technician{NetworkID: id, Region: region, Role: role, Nom: nom, Rom: rom}
		t.TotalJobsCompleted = done
		return t
	}
	return []model.Technician{
		mk("T1", "North", "Senior", "N1", "R1", 10),
		mk("T2", "South", "Junior", "N2", "R1", 0),
		mk("T3", "North", "Junior", "N1", "R2", 4),
		mk("T4", "North", "Senior", "N2", "R2", 7),
	}
}

func jobs() []model.Job {
	return []model.Job{
		{TechnicianID: "T1", Region: "North", JobType: "Install", Date: "2024-01-01"},
		{TechnicianID: "T1", Region: "North", JobType: "Repair", Date: "2024-01-15"},
		{TechnicianID: "T3", Region: "North", JobType: "Install", Date: "2024-02-01"},
		{TechnicianID: "T4", Region: "South", JobType: "Repair", Date: "2024-02-28"},
		{TechnicianID: "T4", Region: "North", JobType: "Install", Date: "2024-03-10"},
	}
}

func ids(ts []model.Technician) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.NetworkID
	}
	return out
}

func TestTechnicians(t *testing.T) {
	Convey("Given a technician collection", t, func() {
		all := techs()

		Convey("An empty filter returns everything in order", func() {
			So(ids(filter.Technicians(all, filter.TechnicianFilter{})), ShouldResemble, []string{"T1", "T2", "T3", "T4"})
		})

		Convey("Predicates combine with AND", func() {
			got := filter.Technicians(all, filter.TechnicianFilter{Region: "North", Role: "Senior"})
			So(ids(got), ShouldResemble, []string{"T1", "T4"})

			got = filter.Technicians(all, filter.TechnicianFilter{Nom: "N1", Rom: "R2"})
			So(ids(got), ShouldResemble, []string{"T3"})
		})

		Convey("Unknown values match nothing", func() {
			So(filter.Technicians(all, filter.TechnicianFilter{Region: "Atlantis"}), ShouldBeEmpty)
		})

		Convey("Filtering is idempotent", func() {
			f := filter.TechnicianFilter{Region: "North"}
			once := filter.Technicians(all, f)
			twice := filter.Technicians(once, f)
			So(twice, ShouldResemble, once)
		})

		Convey("The input is never mutated", func() {
			before := ids(all)
			out := filter.Technicians(all, filter.TechnicianFilter{})
			out[0].NetworkID = "changed"
			So(ids(all), ShouldResemble, before)
		})

		Convey("Active drops technicians with zero completed jobs", func() {
			So(ids(filter.Active(all)), ShouldResemble, []string{"T1", "T3", "T4"})
		})
	})
}

func TestJobs(t *testing.T) {
	Convey("Given a job collection", t, func() {
		all := jobs()

		Convey("Date bounds are inclusive on both ends", func() {
			got := filter.Jobs(all, filter.JobFilter{DateFrom: "2024-01-15", DateTo: "2024-02-28"})
			So(len(got), ShouldEqual, 3)
			So(got[0].Date, ShouldEqual, "2024-01-15")
			So(got[2].Date, ShouldEqual, "2024-02-28")
		})

		Convey("Only a lower bound", func() {
			So(len(filter.Jobs(all, filter.JobFilter{DateFrom: "2024-02-01"})), ShouldEqual, 3)
		})

		Convey("Only an upper bound", func() {
			So(len(filter.Jobs(all, filter.JobFilter{DateTo: "2024-01-01"})), ShouldEqual, 1)
		})

		Convey("Categorical predicates combine with the window", func() {
			got := filter.Jobs(all, filter.JobFilter{JobType: "Install", Region: "North", TechnicianID: "T4"})
			So(len(got), ShouldEqual, 1)
			So(got[0].Date, ShouldEqual, "2024-03-10")
		})

		Convey("Empty strings are treated as absent", func() {
			So(len(filter.Jobs(all, filter.JobFilter{TechnicianID: "", JobType: ""})), ShouldEqual, len(all))
		})

		Convey("Filtering is idempotent", func() {
			f := filter.JobFilter{JobType: "Install", DateFrom: "2024-01-01"}
			once := filter.Jobs(all, f)
			So(filter.Jobs(once, f), ShouldResemble, once)
		})

		Convey("Recomputes only for date or job type predicates", func() {
			So(filter.JobFilter{Region: "North"}.Recomputes(), ShouldBeFalse)
			So(filter.JobFilter{JobType: "Install"}.Recomputes(), ShouldBeTrue)
			So(filter.JobFilter{DateFrom: "2024-01-01"}.Recomputes(), ShouldBeTrue)
			So(filter.JobFilter{DateTo: "2024-01-01"}.Recomputes(), ShouldBeTrue)
			So(filter.JobFilter{}.Empty(), ShouldBeTrue)
		})
	})
}
