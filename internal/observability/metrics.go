package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkful_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forkful_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkful_access_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	TokenValidationsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkful_token_validations_failed_total",
			Help: "Total number of access tokens rejected by the validator",
		},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkful_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	GateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkful_gate_decisions_total",
			Help: "Total number of request gate decisions",
		},
		[]string{"decision"},
	)
)
