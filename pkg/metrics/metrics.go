package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the dedicated registry exposed on /api/metrics. A custom
// registry keeps the default Go collectors out of the scrape payload.
var Registry = prometheus.NewRegistry()

var (
	// Custom histogram buckets tuned for proxied SaaS calls, which routinely
	// take multiple seconds when the worker or the upstream is slow
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

	factory = promauto.With(Registry)

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// External collaborator metrics (CMS, sheet backend, membership backend)
	ExternalRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_client_operation_duration_seconds",
			Help:    "External service client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"service", "operation", "status"},
	)

	ExternalRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_client_operation_total",
			Help: "Total number of external service client operations",
		},
		[]string{"service", "operation", "status"},
	)

	// Cache Metrics
	CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	// Business Metrics
	JobPublishTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorjobs_job_publish_total",
			Help: "Total job publish transactions by outcome",
		},
		[]string{"status"},
	)

	PublishStageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatorjobs_publish_stage_duration_seconds",
			Help:    "Duration of individual publish transaction stages",
			Buckets: CustomAPIBuckets,
		},
		[]string{"stage", "status"},
	)

	CompensationTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorjobs_compensation_total",
			Help: "Total compensating deletions by outcome",
		},
		[]string{"status"},
	)

	OutboxPendingTasks = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "creatorjobs_outbox_pending_tasks",
			Help: "Number of compensation tasks waiting in the outbox",
		},
	)

	IdempotencyReplays = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "creatorjobs_idempotency_replays_total",
			Help: "Submissions answered from a previously stored outcome",
		},
	)

	// Infrastructure Metrics
	GoRoutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// ObserveExternalCall records duration and count for one collaborator call
func ObserveExternalCall(service, operation, status string, duration float64) {
	ExternalRequestDuration.WithLabelValues(service, operation, status).Observe(duration)
	ExternalRequestTotal.WithLabelValues(service, operation, status).Inc()
}
