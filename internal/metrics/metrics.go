// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taquilla_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taquilla_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CacheLookups counts response-cache lookups; result is hit | miss | error.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taquilla_cache_lookups_total",
		Help: "Response cache lookups by pool and result.",
	}, []string{"pool", "result"})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taquilla_cache_evictions_total",
		Help: "Keys evicted by pattern invalidation.",
	})

	// WorkerJobs counts background jobs; result is ok | retried | dead.
	WorkerJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taquilla_worker_jobs_total",
		Help: "Background jobs by queue and outcome.",
	}, []string{"queue", "result"})

	WorkerQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "taquilla_worker_queue_depth",
		Help: "Jobs waiting for a worker.",
	}, []string{"queue"})
)
