// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// GenerationDuration tracks explanation generation duration.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Explanation generation duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "level", "status"},
	)

	// GenerationTokensTotal tracks total generation tokens processed.
	GenerationTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_tokens_total",
			Help: "Total generation tokens processed",
		},
		[]string{"provider"},
	)

	// SessionsCreated tracks guest sessions created.
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guest_sessions_created_total",
			Help: "Total guest sessions created",
		},
	)

	// SessionsExpired tracks guest sessions invalidated by inactivity.
	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guest_sessions_expired_total",
			Help: "Total guest sessions removed after the inactivity timeout",
		},
	)

	// SessionsCorrupted tracks guest session envelopes dropped as unreadable.
	SessionsCorrupted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guest_sessions_corrupted_total",
			Help: "Total guest session envelopes deleted because they failed to parse or validate",
		},
	)

	// SessionsMigrated tracks guest sessions exported to accounts.
	SessionsMigrated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guest_sessions_migrated_total",
			Help: "Total guest sessions migrated to authenticated accounts",
		},
	)

	// SessionSaveFailures tracks persistence writes that were dropped.
	SessionSaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guest_session_save_failures_total",
			Help: "Total guest session writes that failed and were logged instead",
		},
	)

	// ActiveEngines tracks guest session engines held in memory.
	ActiveEngines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guest_session_engines_active",
			Help: "Number of guest session engines currently resident",
		},
	)

	// MessagesTotal tracks total messages appended to guest sessions.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guest_messages_total",
			Help: "Total messages appended to guest sessions",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGeneration records metrics for one explanation generation.
func RecordGeneration(provider, level, status string, duration float64, tokens int) {
	GenerationDuration.WithLabelValues(provider, level, status).Observe(duration)
	GenerationTokensTotal.WithLabelValues(provider).Add(float64(tokens))
}
