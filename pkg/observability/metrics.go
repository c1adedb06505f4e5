// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring basicgate.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LatencyBuckets defines histogram buckets for API and password-hashing
// latencies, ranging from 1ms to 5s. bcrypt at cost 10 lands near 50-100ms.
var LatencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basicgate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basicgate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LatencyBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthAttemptsTotal counts chain decisions by deciding scheme.
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basicgate_auth_attempts_total",
			Help: "Authentication decisions",
		},
		[]string{"scheme", "decision"},
	)

	// AuthFailuresTotal counts why a scheme found no principal.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basicgate_auth_failures_total",
			Help: "Authentication failures by kind",
		},
		[]string{"scheme", "kind"},
	)

	// StoreLookupsTotal counts principal store lookups by backend and outcome.
	StoreLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basicgate_store_lookups_total",
			Help: "Principal store lookups",
		},
		[]string{"backend", "status"},
	)

	// FailureLimitRejectedTotal counts requests refused by the failure limiter.
	FailureLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "basicgate_failure_limit_rejected_total",
			Help: "Requests rejected after repeated authentication failures",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthAttemptsTotal,
		AuthFailuresTotal,
		StoreLookupsTotal,
		FailureLimitRejectedTotal,
	)
}
