package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics emitted by the registry service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SyncAttemptsTotal  *prometheus.CounterVec // status: ok|duplicate|conflict|store_error
	SyncDuration       *prometheus.HistogramVec
	ReferentialConflictsTotal *prometheus.CounterVec // code: NO_PRODUCER_FOR_INTERFACE|NO_OTHER_PRODUCER_FOR_USED_INTERFACE

	ReadDuration      *prometheus.HistogramVec
	CacheHitsTotal    *prometheus.CounterVec
	CacheMissesTotal  *prometheus.CounterVec

	DBConnectionsOpen prometheus.Gauge
	DBConnectionsIdle prometheus.Gauge
}

// NewMetrics registers every metric against registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ifreg_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ifreg_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		SyncAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ifreg_sync_attempts_total",
			Help: "Total number of setInterface attempts by outcome.",
		}, []string{"status"}),
		SyncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ifreg_sync_duration_seconds",
			Help:    "setInterface transaction duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		ReferentialConflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ifreg_referential_conflicts_total",
			Help: "Total number of referential conflicts raised by the triggers.",
		}, []string{"code"}),

		ReadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ifreg_read_duration_seconds",
			Help:    "getComponents duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}), // source: db|l1|l2

		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ifreg_cache_hits_total",
			Help: "Total cache hits by layer.",
		}, []string{"layer"}),
		CacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ifreg_cache_misses_total",
			Help: "Total cache misses by layer.",
		}, []string{"layer"}),

		DBConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ifreg_db_connections_open",
			Help: "Open database connections on the primary pool.",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ifreg_db_connections_idle",
			Help: "Idle database connections on the primary pool.",
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.SyncAttemptsTotal, m.SyncDuration, m.ReferentialConflictsTotal,
		m.ReadDuration, m.CacheHitsTotal, m.CacheMissesTotal,
		m.DBConnectionsOpen, m.DBConnectionsIdle,
	)
	return m
}

// ObserveHTTP records one completed HTTP request.
func (m *Metrics) ObserveHTTP(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
