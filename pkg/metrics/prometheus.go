// Package metrics provides Prometheus metrics for the skins settlement service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skin kinds used as label values.
const (
	KindRegular = "regular"
	KindCTP     = "ctp"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Settlement business metrics
	gamesSubmitted    prometheus.Counter
	gamesDuplicate    prometheus.Counter
	gamesSettled      prometheus.Counter
	gamesFailed       prometheus.Counter
	previews          prometheus.Counter
	skinsAwarded      *prometheus.CounterVec
	potDistributed    prometheus.Counter
	potsUndistributed prometheus.Counter
	engineLatency     prometheus.Histogram

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository
	moneyListPlayers        prometheus.Gauge
	resultsStored           prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skins",
		subsystem:        "settlement",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.gamesSubmitted = m.counter("games_submitted_total", "Completed games accepted for settlement")
	m.gamesDuplicate = m.counter("games_duplicate_total", "Game submissions rejected as already seen")
	m.gamesSettled = m.counter("games_settled_total", "Games settled successfully")
	m.gamesFailed = m.counter("games_failed_total", "Games whose settlement failed validation")
	m.previews = m.counter("previews_total", "Synchronous skins computations that were not recorded")
	m.skinsAwarded = m.counterVec("skins_awarded_total", "Skins awarded by kind", "kind")
	m.potDistributed = m.counter("pot_distributed_units_total", "Currency units paid out across settled games")
	m.potsUndistributed = m.counter("pots_undistributed_total", "Settled games in which no skin was won")
	m.engineLatency = m.histogram("engine_latency_milliseconds", "Time spent computing skins and payouts", m.histogramBuckets)

	m.queueSize = m.gauge("queue_size", "Current settlement queue length")
	m.queueCapacity = m.gauge("queue_capacity", "Settlement queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue length divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Settlements enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Settlements dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Settlements rejected by the queue")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Configured settlement workers")
	m.workerActive = m.gauge("worker_active_count", "Workers currently settling a game")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "End-to-end settlement latency per game", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Settlement errors seen by workers")

	m.moneyListPlayers = m.gauge("money_list_players", "Players on the money list")
	m.resultsStored = m.gauge("results_stored", "Game records held by the results store")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Money list update latency", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Money list query latency", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordGameSubmitted counts an accepted settlement request.
func RecordGameSubmitted() { globalManager.gamesSubmitted.Inc() }

// RecordGameDuplicate counts a repeated settlement request.
func RecordGameDuplicate() { globalManager.gamesDuplicate.Inc() }

// RecordGameSettled counts a successful settlement.
func RecordGameSettled() { globalManager.gamesSettled.Inc() }

// RecordGameFailed counts a settlement rejected by the engine.
func RecordGameFailed() { globalManager.gamesFailed.Inc() }

// RecordPreview counts a synchronous computation.
func RecordPreview() { globalManager.previews.Inc() }

// RecordSkinsAwarded adds n awards of the given kind.
func RecordSkinsAwarded(kind string, n int) {
	if n > 0 {
		globalManager.skinsAwarded.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordPotDistributed adds paid-out currency units.
func RecordPotDistributed(units int64) {
	if units > 0 {
		globalManager.potDistributed.Add(float64(units))
	}
}

// RecordPotUndistributed counts a settled game with no skins.
func RecordPotUndistributed() { globalManager.potsUndistributed.Inc() }

// RecordEngineLatency observes engine latency in milliseconds.
func RecordEngineLatency(ms float64) { globalManager.engineLatency.Observe(ms) }

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets queue utilization in [0,1].
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

// RecordQueueEnqueue counts an enqueued settlement.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued settlement.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency observes enqueue latency.
func RecordQueueProcessingLatency(ms float64) { globalManager.queueProcessingLatency.Observe(ms) }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// AddWorkerActive moves the active-worker gauge by delta.
func AddWorkerActive(delta int) { globalManager.workerActive.Add(float64(delta)) }

// RecordWorkerProcessingLatency observes settlement latency per game.
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerProcessingLatency.Observe(ms) }

// RecordWorkerError counts a worker-side failure.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// UpdateMoneyListPlayers sets the money list size.
func UpdateMoneyListPlayers(count int) { globalManager.moneyListPlayers.Set(float64(count)) }

// UpdateResultsStored sets the number of game records.
func UpdateResultsStored(count int) { globalManager.resultsStored.Set(float64(count)) }

// RecordRepositoryUpdateLatency observes money list write latency.
func RecordRepositoryUpdateLatency(ms float64) { globalManager.repositoryUpdateLatency.Observe(ms) }

// RecordRepositoryQueryLatency observes money list read latency.
func RecordRepositoryQueryLatency(ms float64) { globalManager.repositoryQueryLatency.Observe(ms) }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an HTTP error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency observes the latency of a failed operation.
func RecordErrorLatency(component, errorType string, ms float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(ms)
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime observes average GC pause.
func RecordSystemGCPauseTime(ms float64) { globalManager.systemGCPauseTime.Observe(ms) }

// GetRegistry returns the registry the service exposes on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
