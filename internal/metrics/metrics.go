// Package metrics exposes Prometheus metrics for the oak backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all oak Prometheus metrics.
type Metrics struct {
	// Cache metrics
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheFailures      prometheus.Counter
	CacheInvalidations prometheus.Counter

	// Reconciler metrics
	FlagsCleared *prometheus.CounterVec

	// Section count drift corrections
	CountsCorrected *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers and returns the oak metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oak_cache_hits_total",
			Help: "Cache hits by key namespace",
		}, []string{"namespace"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oak_cache_misses_total",
			Help: "Cache misses by key namespace (fail-open errors count as misses)",
		}, []string{"namespace"}),
		CacheFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "oak_cache_failures_total",
			Help: "Cache backend errors swallowed by the fail-open policy",
		}),
		CacheInvalidations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "oak_cache_invalidations_total",
			Help: "Pattern invalidation passes executed",
		}),
		FlagsCleared: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oak_flags_cleared_total",
			Help: "Expired status flags cleared by the reconciler",
		}, []string{"site", "flag"}),
		CountsCorrected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oak_section_counts_corrected_total",
			Help: "Section article counts corrected by the synchronizer",
		}, []string{"site"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oak_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oak_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
