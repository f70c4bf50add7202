package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the auth counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	logins          *prometheus.CounterVec
	tokenFailures   prometheus.Counter
	passwordChanges *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		tokenFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_token_verification_failures_total",
			Help: "Bearer tokens that failed verification.",
		}),
		passwordChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_password_changes_total",
			Help: "Password change attempts by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.logins, m.tokenFailures, m.passwordChanges)
	}
	return m
}

func (m *Metrics) LoginAttempt(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) TokenVerificationFailed() {
	if m == nil {
		return
	}
	m.tokenFailures.Inc()
}

func (m *Metrics) PasswordChange(result string) {
	if m == nil {
		return
	}
	m.passwordChanges.WithLabelValues(result).Inc()
}

// Collectors exposes the underlying collectors, mostly for tests.
func (m *Metrics) Collectors() (logins *prometheus.CounterVec, tokenFailures prometheus.Counter, passwordChanges *prometheus.CounterVec) {
	return m.logins, m.tokenFailures, m.passwordChanges
}
