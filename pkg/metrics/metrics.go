package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registrations counts registration attempts by result (accepted|conflict|invalid|error).
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_registrations_total",
			Help: "Total number of registration attempts",
		},
		[]string{"result"},
	)

	// Activations counts activation attempts by result (success|mismatch|expired|invalid|conflict|error).
	Activations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_activations_total",
			Help: "Total number of activation attempts",
		},
		[]string{"result"},
	)

	// LoginAttempts records login attempts by result (success|failure).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accounts_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
