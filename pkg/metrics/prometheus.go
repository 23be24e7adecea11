// Package metrics provides Prometheus metrics for the clutch retrieval service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline
	questions          *prometheus.CounterVec
	synthesisFailures  *prometheus.CounterVec
	executionLatency   prometheus.Histogram
	executionErrors    prometheus.Counter
	rowsReturned       prometheus.Histogram
	rowsDeduplicated   prometheus.Counter
	narrationLatency   prometheus.Histogram
	narrationFailures  prometheus.Counter
	boundaryTimeouts   *prometheus.CounterVec

	// Ingestion
	ingestRows       prometheus.Counter
	ingestEvents     prometheus.Counter
	ingestDuplicates prometheus.Counter
	ingestViolations *prometheus.CounterVec
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "clutch",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.questions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "questions_total",
		Help:      "Questions turned into a structured query, by synthesis path",
	}, []string{"path", "template"})

	m.synthesisFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "synthesis_failures_total",
		Help:      "Questions that produced no structured query, by failure kind",
	}, []string{"kind"})

	m.executionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "execution_latency_milliseconds",
		Help:      "Graph query execution latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.executionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "execution_errors_total",
		Help:      "Graph query executions that failed",
	})

	m.rowsReturned = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_returned",
		Help:      "Ranked rows returned per executed query",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
	})

	m.rowsDeduplicated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_deduplicated_total",
		Help:      "Raw tuples collapsed by result deduplication",
	})

	m.narrationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "narration_latency_milliseconds",
		Help:      "Narration latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.narrationFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "narration_failures_total",
		Help:      "Narration requests that returned no text",
	})

	m.boundaryTimeouts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "boundary_timeouts_total",
		Help:      "External calls that hit their caller-supplied timeout",
	}, []string{"boundary"})

	m.ingestRows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "rows_total",
		Help:      "Play-by-play rows read",
	})

	m.ingestEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "events_total",
		Help:      "Events written to the graph",
	})

	m.ingestDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "duplicates_total",
		Help:      "Play-by-play rows skipped as already ingested",
	})

	m.ingestViolations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "schema_violations_total",
		Help:      "Writes rejected by the graph schema, by field",
	}, []string{"field"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "queue_size",
		Help:      "Rows waiting for the graph writer",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "queue_capacity",
		Help:      "Capacity of the ingestion row queue",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordQuestion counts a synthesized question.
func RecordQuestion(path, template string) {
	globalManager.questions.WithLabelValues(path, template).Inc()
}

// RecordSynthesisFailure counts a question that produced no query.
func RecordSynthesisFailure(kind string) {
	globalManager.synthesisFailures.WithLabelValues(kind).Inc()
}

// RecordExecutionLatency records graph execution latency in milliseconds.
func RecordExecutionLatency(latencyMs float64) {
	globalManager.executionLatency.Observe(latencyMs)
}

// RecordExecutionError counts a failed execution.
func RecordExecutionError() {
	globalManager.executionErrors.Inc()
}

// RecordRowsReturned records the size of a ranked result set.
func RecordRowsReturned(n int) {
	globalManager.rowsReturned.Observe(float64(n))
}

// RecordRowsDeduplicated counts collapsed tuples.
func RecordRowsDeduplicated(n int) {
	if n > 0 {
		globalManager.rowsDeduplicated.Add(float64(n))
	}
}

// RecordNarrationLatency records narration latency in milliseconds.
func RecordNarrationLatency(latencyMs float64) {
	globalManager.narrationLatency.Observe(latencyMs)
}

// RecordNarrationFailure counts a narration that produced no text.
func RecordNarrationFailure() {
	globalManager.narrationFailures.Inc()
}

// RecordTimeout counts a boundary call that exceeded its deadline.
func RecordTimeout(boundary string) {
	globalManager.boundaryTimeouts.WithLabelValues(boundary).Inc()
}

// RecordIngestRow counts a play-by-play row read.
func RecordIngestRow() {
	globalManager.ingestRows.Inc()
}

// RecordIngestEvent counts an event written to the graph.
func RecordIngestEvent() {
	globalManager.ingestEvents.Inc()
}

// RecordIngestDuplicate counts a skipped duplicate row.
func RecordIngestDuplicate() {
	globalManager.ingestDuplicates.Inc()
}

// RecordSchemaViolation counts a rejected write.
func RecordSchemaViolation(field string) {
	globalManager.ingestViolations.WithLabelValues(field).Inc()
}

// UpdateQueueSize sets the current ingestion queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the ingestion queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
