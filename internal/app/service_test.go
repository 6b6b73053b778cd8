package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldops/techrank/internal/adapters/insight"
	"github.com/fieldops/techrank/internal/adapters/repository"
	service "github.com/fieldops/techrank/internal/app"
	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/internal/domain/ranking"
	"github.com/fieldops/techrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func tech(id, region string, score, ftfr float64, done int) model.Technician {
	t := model.Technician{NetworkID: id, Name: "Tech " + id, Region: region, Role: "Field"}
	t.TotalJobsCompleted = done
	t.TotalTasksAssigned = done
	t.PerformanceScore = score
	t.FirstTimeFixRate = ftfr
	t.CompletionRate = 100
	return t
}

func job(id, jobType, date string, minutes int, ftf bool) model.Job {
	return model.Job{
		TechnicianID: id, Region: "North", JobType: jobType, Date: date,
		CompletionTimeMinutes: minutes, FirstTimeFix: ftf, SLACompliant: true,
	}
}

func dataset() model.Dataset {
	return model.Dataset{
		Technicians: []model.Technician{
			tech("T1", "North", 70, 50, 2),
			tech("T2", "North", 90, 100, 1),
			tech("T3", "South", 80, 100, 1),
			tech("T4", "North", 0, 0, 0),
		},
		Jobs: []model.Job{
			job("T1", "Install", "2024-01-10", 60, true),
			job("T1", "Repair", "2024-02-10", 30, false),
			job("T2", "Install", "2024-01-20", 40, true),
			job("T3", "Repair", "2024-03-01", 50, true),
		},
	}
}

type fakeGenerator struct {
	calls   int
	subject insight.Subject
	resp    insight.Response
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, s insight.Subject) (insight.Response, error) {
	f.calls++
	f.subject = s
	return f.resp, f.err
}

func started(opts ...service.Option) *service.Service {
	ctx := context.Background()
	store, err := repository.NewMemStore(ctx, dataset())
	So(err, ShouldBeNil)
	svc := service.New(append([]service.Option{service.WithStore(store)}, opts...)...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it is not started", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("And lookups report it", func() {
			_, err := svc.Technician(context.Background(), "T1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.FilterTechnicians(context.Background(), filter.TechnicianFilter{}), ShouldBeEmpty)
			r := svc.Rankings(context.Background(), ranking.Query{SortBy: ranking.PerformanceScore, Order: ranking.Desc})
			So(r.Meta.Total, ShouldEqual, 0)
		})
	})

	Convey("Given a dataset file on disk", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		dir := t.TempDir()

		Convey("When it is JSON", func() {
			path := filepath.Join(dir, "data.json")
			f, err := os.Create(path)
			So(err, ShouldBeNil)
			So(repository.WriteJSON(f, dataset()), ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			svc := service.New(service.WithDataPath(path))
			defer svc.Stop()

			Convey("Then Start loads it", func() {
				So(svc.Start(ctx), ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["technicians"], ShouldEqual, 4)
				So(stats["jobs"], ShouldEqual, 4)
				So(stats["jobTypes"], ShouldEqual, 2)
				So(stats["insightsEnabled"], ShouldEqual, false)
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And Stop marks it stopped", func() {
				So(svc.Start(ctx), ShouldBeNil)
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When it is SQLite", func() {
			path := filepath.Join(dir, "data.db")
			So(repository.WriteSQLite(ctx, path, dataset()), ShouldBeNil)
			svc := service.New(service.WithDataPath(path), service.WithDataFormat(repository.FormatSQLite))
			defer svc.Stop()

			Convey("Then Start loads it", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.GetStats()["technicians"], ShouldEqual, 4)
			})
		})

		Convey("When it references unknown technicians", func() {
			ds := dataset()
			ds.Jobs = append(ds.Jobs, job("ghost", "Install", "2024-01-01", 10, true))
			path := filepath.Join(dir, "orphans.json")
			f, err := os.Create(path)
			So(err, ShouldBeNil)
			So(repository.WriteJSON(f, ds), ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			Convey("Then Start fails with an integrity fault", func() {
				err := service.New(service.WithDataPath(path)).Start(ctx)
				So(errors.Is(err, repository.ErrIntegrity), ShouldBeTrue)
			})

			Convey("And orphans can be dropped instead", func() {
				svc := service.New(service.WithDataPath(path), service.WithDropOrphans(true))
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.GetStats()["jobs"], ShouldEqual, 4)
			})
		})

		Convey("When it is missing", func() {
			err := service.New(service.WithDataPath(filepath.Join(dir, "nope.json"))).Start(ctx)

			Convey("Then Start fails", func() {
				So(errors.Is(err, repository.ErrLoad), ShouldBeTrue)
			})
		})
	})
}

func TestService_Queries(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := started()
		defer svc.Stop()

		Convey("Then technicians filter by region", func() {
			got := svc.FilterTechnicians(ctx, filter.TechnicianFilter{Region: "North"})
			So(len(got), ShouldEqual, 3)
			So(got[0].NetworkID, ShouldEqual, "T1")
		})

		Convey("And listed technicians do not share skills with the store", func() {
			ds := dataset()
			ds.Technicians[0].Skills = []string{"fiber"}
			store, err := repository.NewMemStore(ctx, ds)
			So(err, ShouldBeNil)
			own := service.New(service.WithStore(store))
			So(own.Start(ctx), ShouldBeNil)
			defer own.Stop()

			got := own.FilterTechnicians(ctx, filter.TechnicianFilter{})
			got[0].Skills[0] = "mutated"
			ranked := own.Rankings(ctx, ranking.Query{SortBy: ranking.FirstTimeFixRate, Order: ranking.Asc})
			So(ranked.Technicians[0].NetworkID, ShouldEqual, "T1")
			ranked.Technicians[0].Skills[0] = "mutated"

			again, err := own.Technician(ctx, "T1")
			So(err, ShouldBeNil)
			So(again.Skills, ShouldResemble, []string{"fiber"})
		})

		Convey("And unknown technicians are not found", func() {
			_, err := svc.Technician(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.TechnicianJobs(ctx, "nope", filter.JobFilter{})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("And technician jobs apply the job filter", func() {
			jobs, err := svc.TechnicianJobs(ctx, "T1", filter.JobFilter{JobType: "Repair"})
			So(err, ShouldBeNil)
			So(len(jobs), ShouldEqual, 1)
			So(jobs[0].Date, ShouldEqual, "2024-02-10")
		})

		Convey("And jobs filter by technician and date", func() {
			So(len(svc.Jobs(ctx, filter.JobFilter{TechnicianID: "T1"})), ShouldEqual, 2)
			So(len(svc.Jobs(ctx, filter.JobFilter{DateFrom: "2024-02-01"})), ShouldEqual, 2)
			So(len(svc.Jobs(ctx, filter.JobFilter{})), ShouldEqual, 4)
		})

		Convey("And metadata is derived from the data", func() {
			So(svc.DateRange(ctx), ShouldResemble, model.DateRange{Min: "2024-01-10", Max: "2024-03-01"})
			So(svc.FilterOptions(ctx).JobTypes, ShouldResemble, []string{"Install", "Repair"})
			So(svc.Thresholds(ctx), ShouldContainKey, "performanceScore")
		})

		Convey("And the summary covers active technicians only", func() {
			sum, ok := svc.Summary(ctx)
			So(ok, ShouldBeTrue)
			So(sum.TotalTechnicians, ShouldEqual, 3)
			So(sum.TotalJobs, ShouldEqual, 4)
			So(sum.AvgPerformanceScore, ShouldEqual, 80)
		})
	})
}

func TestService_Rankings(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := started()
		defer svc.Stop()

		Convey("When ranking by stored score", func() {
			r := svc.Rankings(ctx, ranking.Query{SortBy: ranking.PerformanceScore, Order: ranking.Desc})

			Convey("Then inactive technicians are excluded and ranks are dense", func() {
				So(r.Meta.Total, ShouldEqual, 3)
				So(r.Technicians[0].NetworkID, ShouldEqual, "T2")
				So(r.Technicians[0].Rank, ShouldEqual, 1)
				So(r.Technicians[2].NetworkID, ShouldEqual, "T1")
				So(r.Technicians[2].Rank, ShouldEqual, 3)
			})
		})

		Convey("When ranking within a region", func() {
			r := svc.Rankings(ctx, ranking.Query{
				Technicians: filter.TechnicianFilter{Region: "South"},
				SortBy:      ranking.PerformanceScore,
				Order:       ranking.Desc,
			})

			Convey("Then only that region is ranked", func() {
				So(r.Meta.Total, ShouldEqual, 1)
				So(r.Technicians[0].NetworkID, ShouldEqual, "T3")
			})
		})

		Convey("When a job filter narrows the window", func() {
			r := svc.Rankings(ctx, ranking.Query{
				Jobs:   filter.JobFilter{DateFrom: "2024-02-01"},
				SortBy: ranking.FirstTimeFixRate,
				Order:  ranking.Desc,
			})

			Convey("Then metrics are recomputed from matching jobs", func() {
				So(r.Meta.Total, ShouldEqual, 2)
				for _, row := range r.Technicians {
					So(row.TotalJobsCompleted, ShouldEqual, 1)
				}
			})
		})
	})
}

func TestService_Insights(t *testing.T) {
	Convey("Given a service without a generator", t, func() {
		ctx := context.Background()
		svc := started()
		defer svc.Stop()

		Convey("Then insights are unavailable", func() {
			_, err := svc.Insights(ctx, "T1")
			So(errors.Is(err, insight.ErrUnavailable), ShouldBeTrue)
		})

		Convey("And unknown technicians are still not found", func() {
			_, err := svc.Insights(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a service with a generator", t, func() {
		ctx := context.Background()
		gen := &fakeGenerator{resp: insight.Response{Insights: insight.Insights{Summary: "steady"}}}
		svc := started(service.WithGenerator(gen))
		defer svc.Stop()

		Convey("When the technician has no jobs", func() {
			_, err := svc.Insights(ctx, "T4")

			Convey("Then no_job_data is reported without calling the model", func() {
				So(errors.Is(err, insight.ErrNoJobs), ShouldBeTrue)
				So(gen.calls, ShouldEqual, 0)
			})
		})

		Convey("When the technician has jobs", func() {
			resp, err := svc.Insights(ctx, "T1")

			Convey("Then the subject carries the comparison context", func() {
				So(err, ShouldBeNil)
				So(resp.Insights.Summary, ShouldEqual, "steady")
				So(gen.calls, ShouldEqual, 1)
				So(gen.subject.Technician.NetworkID, ShouldEqual, "T1")
				So(gen.subject.Overall.AvgScore, ShouldEqual, 80)
				So(len(gen.subject.Comparison), ShouldEqual, 2)
				So(gen.subject.Peers.Count, ShouldEqual, 1)
				So(gen.subject.Peers.AvgScore, ShouldEqual, 90)
			})
		})

		Convey("When the generator fails", func() {
			gen.err = insight.ErrUnavailable
			_, err := svc.Insights(ctx, "T1")

			Convey("Then the error is passed through", func() {
				So(errors.Is(err, insight.ErrUnavailable), ShouldBeTrue)
			})
		})

		Convey("Then stats report insights enabled", func() {
			So(svc.GetStats()["insightsEnabled"], ShouldEqual, true)
		})
	})
}
