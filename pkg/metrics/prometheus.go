// Package metrics provides Prometheus metrics for the swing moment service.
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

// Manager manages all Prometheus metrics for the swing service.
type Manager struct {
	namespace         string
	subsystem         string
	httpBuckets       []float64
	generationBuckets []float64
	enabled           bool
	refreshInterval   time.Duration
	constLabels       map[string]string
	metricPrefix      string
	registry          prometheus.Registerer

	// Generation metrics
	generationRuns     *prometheus.CounterVec
	generationLatency  *prometheus.HistogramVec
	finalMoments       *prometheus.HistogramVec
	merges             *prometheus.CounterVec
	validatorRejects   *prometheus.CounterVec
	versionCommits     *prometheus.CounterVec
	batchGames         *prometheus.CounterVec
	activeGames        prometheus.Gauge
	versionCommitDelay prometheus.Histogram

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Artifact cache
	artifactCache *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec

	// System metrics
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

// Configure rebuilds the global manager on a fresh registry with opts and
// returns that registry. It must run at startup, before any handler or
// worker records a metric; handlers built earlier keep the old registry.
func Configure(opts ...Option) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	opts = append(opts, WithPrometheusRegistry(registry))
	globalManager = NewManager(opts...)
	customRegistry = registry
	return registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:         "swing",
		subsystem:         "moments",
		httpBuckets:       prometheus.DefBuckets,
		generationBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250},
		enabled:           true,
		refreshInterval:   defaultRefreshInterval,
		registry:          prometheus.DefaultRegisterer,
	}

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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.generationRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("generation_runs_total"),
		Help:        "Generation runs by sport and outcome (ok, input, config, validation, skipped)",
		ConstLabels: labels,
	}, []string{"sport", "outcome"})

	m.generationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("generation_latency_ms"),
		Help:        "Pipeline latency per game in milliseconds",
		Buckets:     m.generationBuckets,
		ConstLabels: labels,
	}, []string{"sport"})

	m.finalMoments = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("final_moments"),
		Help:        "Final moment count per generated game",
		Buckets:     []float64{2, 4, 6, 8, 10, 12, 16, 20, 30},
		ConstLabels: labels,
	}, []string{"sport"})

	m.merges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("merges_total"),
		Help:        "Merge displacements by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.validatorRejects = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("validator_rejections_total"),
		Help:        "Candidates rejected by the validator, by issue",
		ConstLabels: labels,
	}, []string{"issue"})

	m.versionCommits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("version_commits_total"),
		Help:        "Payload versions committed, by generation source",
		ConstLabels: labels,
	}, []string{"source"})

	m.versionCommitDelay = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("version_commit_latency_ms"),
		Help:        "Version store commit latency in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 500},
		ConstLabels: labels,
	})

	m.batchGames = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_games_total"),
		Help:        "Batch per-game outcomes (succeeded, failed, skipped, cancelled)",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.activeGames = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("games_with_active_version"),
		Help:        "Games that have an active payload version",
		ConstLabels: labels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_size"),
		Help:        "Current number of batch jobs waiting in the queue",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_capacity"),
		Help:        "Maximum capacity of the batch job queue",
		ConstLabels: labels,
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_total"),
		Help:        "Total batch jobs enqueued",
		ConstLabels: labels,
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_dequeue_total"),
		Help:        "Total batch jobs dequeued",
		ConstLabels: labels,
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_errors_total"),
		Help:        "Total enqueue failures (queue full or closed)",
		ConstLabels: labels,
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_count"),
		Help:        "Configured number of batch workers",
		ConstLabels: labels,
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active"),
		Help:        "Workers currently generating a game",
		ConstLabels: labels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_processing_latency_ms"),
		Help:        "Time a worker spends on one job in milliseconds",
		Buckets:     []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
		ConstLabels: labels,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_errors_total"),
		Help:        "Total jobs that ended in an error",
		ConstLabels: labels,
	})

	m.artifactCache = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("artifact_cache_total"),
		Help:        "Artifact cache lookups and evictions by result (hit, miss, expired, evicted)",
		ConstLabels: labels,
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total HTTP requests by endpoint and status",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_seconds"),
		Help:        "HTTP request duration in seconds",
		Buckets:     m.httpBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_component_total"),
		Help:        "Errors by component and type",
		ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_bytes"),
		Help:        "Heap memory in use in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutines"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_ms"),
		Help:        "Most recent GC pause in milliseconds",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
		ConstLabels: labels,
	})
}

// Generation Metrics Functions.

// RecordGeneration records one generation run outcome and its latency.
func RecordGeneration(sport, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.generationRuns.WithLabelValues(sport, outcome).Inc()
	if outcome == "ok" {
		globalManager.generationLatency.WithLabelValues(sport).Observe(latencyMs)
	}
}

// RecordFinalMoments records the final moment count of a run.
func RecordFinalMoments(sport string, count int) {
	globalManager.finalMoments.WithLabelValues(sport).Observe(float64(count))
}

// RecordMerge increments the merge counter for reason.
func RecordMerge(reason string) {
	globalManager.merges.WithLabelValues(reason).Inc()
}

// RecordValidatorRejection increments the rejection counter for issue.
func RecordValidatorRejection(issue string) {
	globalManager.validatorRejects.WithLabelValues(issue).Inc()
}

// RecordVersionCommit records a committed version and the commit latency.
func RecordVersionCommit(source string, latencyMs float64) {
	globalManager.versionCommits.WithLabelValues(source).Inc()
	globalManager.versionCommitDelay.Observe(latencyMs)
}

// RecordBatchGame records one game's batch outcome.
func RecordBatchGame(outcome string) {
	globalManager.batchGames.WithLabelValues(outcome).Inc()
}

// UpdateActiveGames sets the number of games with an active version.
func UpdateActiveGames(count int) {
	globalManager.activeGames.Set(float64(count))
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordArtifactCache counts one cache result: hit, miss, expired or evicted.
func RecordArtifactCache(result string) {
	globalManager.artifactCache.WithLabelValues(result).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

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

// RefreshInterval returns how often gauge updaters should poll their sources.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
