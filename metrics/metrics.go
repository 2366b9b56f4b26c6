// Package metrics provides Prometheus metrics for authentication and
// route-guard activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics emitted by the guard.
type Metrics struct {
	enabled bool

	// Authentication metrics
	authAttemptsTotal *prometheus.CounterVec
	authFailuresTotal *prometheus.CounterVec

	// Session restore metrics
	restoresTotal *prometheus.CounterVec

	// Route guard metrics
	guardDecisionsTotal *prometheus.CounterVec

	// Token metrics
	tokenDecodeFailuresTotal prometheus.Counter
}

// New creates and registers Prometheus metrics.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	m := &Metrics{enabled: enabled}

	if !enabled {
		return m
	}

	m.authAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authguard_auth_attempts_total",
		Help: "Total login and register attempts",
	}, []string{"method"})

	m.authFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authguard_auth_failures_total",
		Help: "Total login and register failures",
	}, []string{"method", "reason"})

	m.restoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authguard_session_restores_total",
		Help: "Total session restore attempts by outcome",
	}, []string{"outcome"})

	m.guardDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authguard_guard_decisions_total",
		Help: "Total route guard decisions by outcome",
	}, []string{"outcome"})

	m.tokenDecodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authguard_token_decode_failures_total",
		Help: "Total bearer tokens that failed to decode",
	})

	return m
}

// AuthAttempt records a login or register attempt. method is "login" or "register".
func (m *Metrics) AuthAttempt(method string) {
	if !m.enabled {
		return
	}
	m.authAttemptsTotal.WithLabelValues(method).Inc()
}

// AuthFailure records a failed login or register attempt.
func (m *Metrics) AuthFailure(method, reason string) {
	if !m.enabled {
		return
	}
	m.authFailuresTotal.WithLabelValues(method, reason).Inc()
}

// Restore records a session restore by outcome:
// "authenticated", "unauthenticated", "expired" or "invalid".
func (m *Metrics) Restore(outcome string) {
	if !m.enabled {
		return
	}
	m.restoresTotal.WithLabelValues(outcome).Inc()
}

// GuardDecision records a route guard decision by outcome:
// "wait", "render", "redirect_login" or "redirect_denied".
func (m *Metrics) GuardDecision(outcome string) {
	if !m.enabled {
		return
	}
	m.guardDecisionsTotal.WithLabelValues(outcome).Inc()
}

// TokenDecodeFailure records a bearer token that could not be decoded.
func (m *Metrics) TokenDecodeFailure() {
	if !m.enabled {
		return
	}
	m.tokenDecodeFailuresTotal.Inc()
}
