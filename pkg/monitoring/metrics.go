package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Duplicate-submission guard metrics
	dedupRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_rejections_total",
			Help: "Total number of submissions rejected as duplicates",
		},
	)

	dedupCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_cache_entries",
			Help: "Current number of entries in the duplicate-submission cache",
		},
	)

	// Authentication metrics
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		dedupRejectionsTotal,
		dedupCacheEntries,
		authAttemptsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthAttempt records an authentication attempt outcome
func RecordAuthAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	authAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordDedupRejection records a rejected duplicate submission
func RecordDedupRejection() {
	dedupRejectionsTotal.Inc()
}

// SetDedupCacheSize records the current dedup cache size
func SetDedupCacheSize(n int) {
	dedupCacheEntries.Set(float64(n))
}
