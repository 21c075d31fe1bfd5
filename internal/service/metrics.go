package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded on auth_operations_total.
const (
	outcomeSuccess             = "success"
	outcomeInvalidCredentials  = "invalid_credentials"
	outcomeDuplicateEmail      = "duplicate_email"
	outcomeInvalidRefreshToken = "invalid_refresh_token"
	outcomeReuseDetected       = "reuse_detected"
	outcomeInvalidInput        = "invalid_input"
	outcomeError               = "error"
)

var authOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_operations_total",
		Help: "Login, register and refresh attempts by outcome.",
	},
	[]string{"operation", "outcome"},
)

func recordAuth(operation, outcome string) {
	authOperations.WithLabelValues(operation, outcome).Inc()
}
