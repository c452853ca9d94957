// Package metrics provides Prometheus metrics for the tipping-point viewer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the viewer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Dataset
	datasetRecords      prometheus.Gauge
	datasetYears        prometheus.Gauge
	datasetScenarios    prometheus.Gauge
	datasetReloads      prometheus.Counter
	datasetLoadErrors   prometheus.Counter
	datasetLoadDuration prometheus.Histogram
	datasetLastLoadUnix prometheus.Gauge
	watcherEvents       *prometheus.CounterVec

	// Tipping-point model
	stopsTotal            prometheus.Gauge
	stopDerivationLatency prometheus.Histogram
	evaluations           prometheus.Counter
	evaluationLatency     prometheus.Histogram
	scenarioApplications  *prometheus.CounterVec
	selectionActions      *prometheus.CounterVec
	sweepChecks           *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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
		namespace:        "tipping",
		subsystem:        "viewer",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.datasetRecords = m.gauge("dataset_records", "Unit-year records in the active snapshot")
	m.datasetYears = m.gauge("dataset_years", "Distinct years in the active snapshot")
	m.datasetScenarios = m.gauge("dataset_scenarios", "Flip scenarios in the active snapshot")
	m.datasetReloads = m.counter("dataset_reloads_total", "Total number of successful dataset loads")
	m.datasetLoadErrors = m.counter("dataset_load_errors_total", "Total number of failed dataset loads")
	m.datasetLoadDuration = m.histogram("dataset_load_duration_milliseconds", "Dataset load duration in milliseconds",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500})
	m.datasetLastLoadUnix = m.gauge("dataset_last_load_unix", "Unix time of the last successful dataset load")
	m.watcherEvents = m.counterVec("watcher_events_total", "Dataset file events seen by the watcher", "op")

	m.stopsTotal = m.gauge("stops_total", "Stops across all years in the active snapshot")
	m.stopDerivationLatency = m.histogram("stop_derivation_latency_milliseconds", "Per-year stop derivation latency in milliseconds", m.histogramBuckets)
	m.evaluations = m.counter("evaluations_total", "Total number of evaluations")
	m.evaluationLatency = m.histogram("evaluation_latency_milliseconds", "Evaluation latency in milliseconds", m.histogramBuckets)
	m.scenarioApplications = m.counterVec("scenario_applications_total", "Evaluations with an active flip scenario", "mode")
	m.selectionActions = m.counterVec("selection_actions_total", "Selection reducer actions", "action")
	m.sweepChecks = m.counterVec("sweep_checks_total", "Sweep verifier checks by result", "result")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		ConstLabels: m.constLabels,
		Buckets:     prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")
	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "error_latency_milliseconds",
		Help:        "Latency of operations that ended in an error, in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Dataset metrics functions.

// UpdateDatasetSize sets the record, year and scenario gauges.
func UpdateDatasetSize(records, years, scenarios int) {
	globalManager.datasetRecords.Set(float64(records))
	globalManager.datasetYears.Set(float64(years))
	globalManager.datasetScenarios.Set(float64(scenarios))
}

// RecordDatasetLoad records a successful load.
func RecordDatasetLoad(durationMs float64, unix int64) {
	globalManager.datasetReloads.Inc()
	globalManager.datasetLoadDuration.Observe(durationMs)
	globalManager.datasetLastLoadUnix.Set(float64(unix))
}

// RecordDatasetLoadError increments the load error counter.
func RecordDatasetLoadError() {
	globalManager.datasetLoadErrors.Inc()
}

// RecordWatcherEvent counts a dataset file event by operation.
func RecordWatcherEvent(op string) {
	globalManager.watcherEvents.WithLabelValues(op).Inc()
}

// Model metrics functions.

// UpdateStopsTotal sets the number of stops across all years.
func UpdateStopsTotal(n int) {
	globalManager.stopsTotal.Set(float64(n))
}

// RecordStopDerivation records one year's stop derivation latency.
func RecordStopDerivation(latencyMs float64) {
	globalManager.stopDerivationLatency.Observe(latencyMs)
}

// RecordEvaluation counts an evaluation and its latency.
func RecordEvaluation(latencyMs float64) {
	globalManager.evaluations.Inc()
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordScenarioApplied counts an evaluation under a flip scenario.
func RecordScenarioApplied(mode string) {
	globalManager.scenarioApplications.WithLabelValues(mode).Inc()
}

// RecordSelectionAction counts a reducer action.
func RecordSelectionAction(action string) {
	globalManager.selectionActions.WithLabelValues(action).Inc()
}

// RecordSweepCheck counts a sweep verifier check by result.
func RecordSweepCheck(result string) {
	globalManager.sweepChecks.WithLabelValues(result).Inc()
}

// HTTP metrics functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// Error metrics functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
