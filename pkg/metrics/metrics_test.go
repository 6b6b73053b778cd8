package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When building a manager with them", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("ns"),
				WithSubsystem("sub"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the fields reflect every option", func() {
				So(m.namespace, ShouldEqual, "ns")
				So(m.subsystem, ShouldEqual, "sub")
				So(m.metricPrefix, ShouldEqual, "pfx")
				So(m.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(m.enabled.Load(), ShouldBeFalse)
				So(m.refreshInterval, ShouldEqual, 5*time.Second)
				So(m.customLabels["env"], ShouldEqual, "test")
			})

			Convey("And metric names carry namespace, subsystem and prefix", func() {
				m.datasetJobs.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "ns_sub_pfx_dataset_jobs" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When passing zero values", func() {
			m := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults survive", func() {
				So(m.namespace, ShouldEqual, "techrank")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(m.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		SetEnabled(true)

		Convey("When the dataset size is published", func() {
			UpdateDatasetSize(12, 340, 5)

			Convey("Then the gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.datasetTechnicians), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.datasetJobs), ShouldEqual, 340)
				So(testutil.ToFloat64(globalManager.datasetJobTypes), ShouldEqual, 5)
			})
		})

		Convey("When insight outcomes are recorded", func() {
			before := testutil.ToFloat64(globalManager.insightRequests.WithLabelValues("ok"))
			hits := testutil.ToFloat64(globalManager.insightCacheHits)
			RecordInsightRequest("ok")
			RecordInsightCacheHit()

			Convey("Then the counters advance", func() {
				So(testutil.ToFloat64(globalManager.insightRequests.WithLabelValues("ok")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.insightCacheHits), ShouldEqual, hits+1)
			})
		})

		Convey("When recording is disabled", func() {
			SetEnabled(false)
			before := testutil.ToFloat64(globalManager.insightCacheMisses)
			RecordInsightCacheMiss()
			after := testutil.ToFloat64(globalManager.insightCacheMisses)
			SetEnabled(true)

			Convey("Then observations are dropped", func() {
				So(after, ShouldEqual, before)
			})
		})

		Convey("When recording the remaining series", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordRanking("performanceScore", false, 3*time.Millisecond, 40)
					RecordRanking("avgCompletionTimeMinutes", true, time.Millisecond, 0)
					RecordInsightError("timeout")
					RecordInsightLatency(1200 * time.Millisecond)
					RecordHTTPRequest("/api/rankings", "GET", "200")
					RecordHTTPRequestDuration("/api/rankings", "GET", "200", 4.2)
					RecordErrorByType("not_found", "warning")
					RecordErrorByEndpoint("/api/technicians/{id}", "GET", "not_found")
					UpdateSystemMemoryUsage(1024 * 1024)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestSystemCollector(t *testing.T) {
	Convey("Given the system collector", t, func() {
		Convey("When started with recording on", func() {
			SetEnabled(true)
			ctx, cancel := context.WithCancel(context.Background())
			err := StartSystemCollector(ctx)
			cancel()

			Convey("Then it starts and samples the runtime", func() {
				So(err, ShouldBeNil)
				sampleRuntime(0)
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When recording is off", func() {
			SetEnabled(false)
			err := StartSystemCollector(context.Background())
			SetEnabled(true)

			Convey("Then it refuses to start", func() {
				So(err, ShouldEqual, ErrDisabled)
			})
		})
	})
}

func TestRegistryExposition(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		UpdateDatasetSize(1, 2, 3)
		n, err := testutil.GatherAndCount(GetRegistry(), "techrank_api_dataset_jobs")

		Convey("Then dataset gauges are exposed", func() {
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})
	})
}
