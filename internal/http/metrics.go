package http

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	monthFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_month_fallbacks_total",
			Help: "Requests served with the default month instead of the requested one",
		},
		[]string{"reason"},
	)
)

var metricsOnce sync.Once

// registerMetrics registers the server metrics with the default registry.
// Guarded so tests can construct multiple servers.
func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal)
		prometheus.MustRegister(httpRequestDuration)
		prometheus.MustRegister(monthFallbacksTotal)
	})
}
