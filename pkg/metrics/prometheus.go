// Package metrics provides Prometheus metrics for the MUDRA validation
// pipeline service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Breaker state gauge values.
const (
	breakerStateClosedValue   = 0
	breakerStateOpenValue     = 1
	breakerStateHalfOpenValue = 2
)

// Manager manages all Prometheus metrics for the MUDRA service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline metrics - the business core
	requestsValidated   prometheus.Counter
	requestsRetried     prometheus.Counter
	requestsTerminal    prometheus.Counter
	reconcileApplies    prometheus.Counter
	reconcileDuplicates prometheus.Counter
	progressRecords     prometheus.Gauge

	// Capability metrics - external scorer and synthesizer health
	scorerLatency      prometheus.Histogram
	scorerErrors       prometheus.Counter
	synthLatency       prometheus.Histogram
	synthErrors        prometheus.Counter
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
	breakerRejections  *prometheus.CounterVec

	// Queue metrics
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueDrops         prometheus.Counter
	queueCancels       prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec
	queueDepth         prometheus.Gauge

	// Capture buffer metrics
	captureOverwrites prometheus.Counter
	captureBufferSize prometheus.Gauge

	// Worker metrics
	userWorkersStarted      prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mudra",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.requestsValidated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_validated_total",
		Help:      "Total number of validation requests resolved with a result",
	})

	m.requestsRetried = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_retried_total",
		Help:      "Total number of scorer dispatch retries",
	})

	m.requestsTerminal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_terminal_total",
		Help:      "Total number of requests retired as terminal failures",
	})

	m.reconcileApplies = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_applies_total",
		Help:      "Total number of results applied to progress records",
	})

	m.reconcileDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_duplicates_total",
		Help:      "Total number of duplicate deliveries absorbed by the reconciler",
	})

	m.progressRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "progress_records",
		Help:      "Number of progress records tracked in the store",
	})

	m.scorerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scorer_latency_milliseconds",
		Help:      "Histogram of scorer call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.scorerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scorer_errors_total",
		Help:      "Total number of failed scorer attempts (timeouts included)",
	})

	m.synthLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "synth_latency_milliseconds",
		Help:      "Histogram of synthesizer call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.synthErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "synth_errors_total",
		Help:      "Total number of failed synthesis calls (non-fatal, text-only fallback)",
	})

	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "breaker_state",
		Help:      "Circuit breaker state per capability (0=closed, 1=open, 2=half-open)",
	}, []string{"capability"})

	m.breakerTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "breaker_transitions_total",
		Help:      "Total breaker state transitions per capability and target state",
	}, []string{"capability", "to"})

	m.breakerRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "breaker_rejections_total",
		Help:      "Total calls rejected fail-fast by an open breaker",
	}, []string{"capability"})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total requests enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total requests dequeued for dispatch",
	})

	m.queueDrops = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_drops_total",
		Help:      "Total oldest-request drops caused by per-user overflow",
	})

	m.queueCancels = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_cancels_total",
		Help:      "Total still-queued requests canceled by their owner",
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total enqueue errors by reason",
	}, []string{"reason"})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_depth",
		Help:      "Total queued requests across all users",
	})

	m.captureOverwrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "capture_overwrites_total",
		Help:      "Total unconsumed samples overwritten by a fresher frame",
	})

	m.captureBufferSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "capture_buffer_size",
		Help:      "Number of sessions with a pending frame in the capture buffer",
	})

	m.userWorkersStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "user_workers_started_total",
		Help:      "Total per-user dispatch workers spawned",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Histogram of end-to-end request processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total errors by component and error type",
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Total errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "error_latency_milliseconds",
		Help:      "Histogram of latency for failed operations in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers recording against the global manager.

// RecordRequestValidated counts one request resolved with a result.
func RecordRequestValidated() {
	globalManager.requestsValidated.Inc()
}

// RecordRetry counts one scorer dispatch retry.
func RecordRetry() {
	globalManager.requestsRetried.Inc()
}

// RecordTerminalFailure counts one request retired as a terminal failure.
func RecordTerminalFailure() {
	globalManager.requestsTerminal.Inc()
}

// RecordReconcileApply counts one result applied to a progress record.
func RecordReconcileApply() {
	globalManager.reconcileApplies.Inc()
}

// RecordReconcileDuplicate counts one absorbed duplicate delivery.
func RecordReconcileDuplicate() {
	globalManager.reconcileDuplicates.Inc()
}

// UpdateProgressRecords sets the tracked progress record count.
func UpdateProgressRecords(count int) {
	globalManager.progressRecords.Set(float64(count))
}

// RecordScorerLatency observes one scorer call latency.
func RecordScorerLatency(latencyMs float64) {
	globalManager.scorerLatency.Observe(latencyMs)
}

// RecordScorerError counts one failed scorer attempt.
func RecordScorerError() {
	globalManager.scorerErrors.Inc()
}

// RecordSynthLatency observes one synthesizer call latency.
func RecordSynthLatency(latencyMs float64) {
	globalManager.synthLatency.Observe(latencyMs)
}

// RecordSynthesisError counts one failed synthesis call.
func RecordSynthesisError() {
	globalManager.synthErrors.Inc()
}

// UpdateBreakerState sets the breaker state gauge for a capability.
func UpdateBreakerState(capability, state string) {
	value := float64(breakerStateClosedValue)
	switch state {
	case "open":
		value = breakerStateOpenValue
	case "half-open":
		value = breakerStateHalfOpenValue
	}
	globalManager.breakerState.WithLabelValues(capability).Set(value)
}

// RecordBreakerTransition counts one breaker state transition.
func RecordBreakerTransition(capability, to string) {
	globalManager.breakerTransitions.WithLabelValues(capability, to).Inc()
}

// RecordBreakerRejection counts one fail-fast rejection by an open breaker.
func RecordBreakerRejection(capability string) {
	globalManager.breakerRejections.WithLabelValues(capability).Inc()
}

// RecordQueueEnqueue counts one enqueued request.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue counts one dequeued request.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueDrop counts one drop-oldest overflow eviction.
func RecordQueueDrop() {
	globalManager.queueDrops.Inc()
}

// RecordQueueCancel counts one canceled still-queued request.
func RecordQueueCancel() {
	globalManager.queueCancels.Inc()
}

// RecordQueueEnqueueError counts one enqueue error by reason.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateQueueDepth sets the total queued request count.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// RecordCaptureOverwrite counts one overwritten unconsumed sample.
func RecordCaptureOverwrite() {
	globalManager.captureOverwrites.Inc()
}

// UpdateCaptureBufferSize sets the pending-sample session count.
func UpdateCaptureBufferSize(size int) {
	globalManager.captureBufferSize.Set(float64(size))
}

// RecordUserWorkerStarted counts one spawned per-user worker.
func RecordUserWorkerStarted() {
	globalManager.userWorkersStarted.Inc()
}

// RecordWorkerProcessingLatency observes one end-to-end processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts one error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType counts one error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts one error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency observes one failed-operation latency.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets current allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes average GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
