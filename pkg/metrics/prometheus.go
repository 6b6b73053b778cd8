// Package metrics provides Prometheus metrics for the techrank service.
package metrics

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the techrank service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Dataset
	datasetTechnicians prometheus.Gauge
	datasetJobs        prometheus.Gauge
	datasetJobTypes    prometheus.Gauge

	// Ranking
	rankingDuration *prometheus.HistogramVec
	rankingSize     prometheus.Histogram

	// Insight collaborator
	insightRequests    *prometheus.CounterVec
	insightErrors      *prometheus.CounterVec
	insightLatency     prometheus.Histogram
	insightCacheHits   prometheus.Counter
	insightCacheMisses prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "techrank",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.datasetTechnicians = auto.NewGauge(m.gaugeOpts("dataset_technicians", "Technicians in the loaded dataset"))
	m.datasetJobs = auto.NewGauge(m.gaugeOpts("dataset_jobs", "Jobs in the loaded dataset"))
	m.datasetJobTypes = auto.NewGauge(m.gaugeOpts("dataset_job_types", "Distinct job types in the loaded dataset"))

	m.rankingDuration = auto.NewHistogramVec(
		m.histogramOpts("ranking_duration_milliseconds", "Time to compute one ranking in milliseconds", m.histogramBuckets),
		[]string{"sort_by", "recomputed"},
	)
	m.rankingSize = auto.NewHistogram(m.histogramOpts(
		"ranking_size", "Technicians in a computed ranking",
		[]float64{0, 10, 50, 100, 250, 500, 1000, 5000},
	))

	m.insightRequests = auto.NewCounterVec(
		m.counterOpts("insight_requests_total", "Insight generation requests by outcome"),
		[]string{"outcome"},
	)
	m.insightErrors = auto.NewCounterVec(
		m.counterOpts("insight_errors_total", "Insight generation failures by reason"),
		[]string{"reason"},
	)
	m.insightLatency = auto.NewHistogram(m.histogramOpts(
		"insight_latency_milliseconds", "Latency of calls to the language model in milliseconds",
		[]float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	))
	m.insightCacheHits = auto.NewCounter(m.counterOpts("insight_cache_hits_total", "Insight responses served from cache"))
	m.insightCacheMisses = auto.NewCounter(m.counterOpts("insight_cache_misses_total", "Insight cache lookups that missed"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// UpdateDatasetSize sets the dataset gauges.
func UpdateDatasetSize(technicians, jobs, jobTypes int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.datasetTechnicians.Set(float64(technicians))
	globalManager.datasetJobs.Set(float64(jobs))
	globalManager.datasetJobTypes.Set(float64(jobTypes))
}

// RecordRanking records one ranking computation.
func RecordRanking(sortBy string, recomputed bool, d time.Duration, size int) {
	if !globalManager.enabled.Load() {
		return
	}
	rec := "false"
	if recomputed {
		rec = "true"
	}
	globalManager.rankingDuration.WithLabelValues(sortBy, rec).Observe(float64(d.Microseconds()) / 1000)
	globalManager.rankingSize.Observe(float64(size))
}

// RecordInsightRequest counts an insight request by outcome (ok, degraded, error, cached).
func RecordInsightRequest(outcome string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.insightRequests.WithLabelValues(outcome).Inc()
}

// RecordInsightError counts an insight failure by reason.
func RecordInsightError(reason string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.insightErrors.WithLabelValues(reason).Inc()
}

// RecordInsightLatency records the latency of one model call.
func RecordInsightLatency(d time.Duration) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.insightLatency.Observe(float64(d.Milliseconds()))
}

// RecordInsightCacheHit increments the insight cache hit counter.
func RecordInsightCacheHit() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.insightCacheHits.Inc()
}

// RecordInsightCacheMiss increments the insight cache miss counter.
func RecordInsightCacheMiss() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.insightCacheMisses.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// StartSystemCollector samples runtime memory, goroutine and GC statistics
// every refresh interval until ctx is done. It returns ErrDisabled without
// starting when recording is off.
func StartSystemCollector(ctx context.Context) error {
	if !globalManager.enabled.Load() {
		return ErrDisabled
	}
	interval := globalManager.refreshInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var lastGC uint32
		for {
			lastGC = sampleRuntime(lastGC)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return nil
}

// sampleRuntime publishes one runtime sample and returns the GC cycle count
// seen, so pauses are observed once each.
func sampleRuntime(lastGC uint32) uint32 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.HeapAlloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())

	n := ms.NumGC - lastGC
	if n > uint32(len(ms.PauseNs)) {
		n = uint32(len(ms.PauseNs))
	}
	for i := uint32(0); i < n; i++ {
		idx := (ms.NumGC - i + 255) % 256
		RecordSystemGCPauseTime(float64(ms.PauseNs[idx]) / 1e6)
	}
	return ms.NumGC
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
