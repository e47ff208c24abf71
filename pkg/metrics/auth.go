package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login attempt outcomes.
const (
	LoginSucceeded   = "success"
	LoginInvalid     = "invalid_credentials"
	LoginLocked      = "locked"
	LoginUnverified  = "unverified"
	LoginUnavailable = "error"
)

// AuthMetrics tracks the authentication gate and account lifecycle.
type AuthMetrics struct {
	logins        *prometheus.CounterVec
	lockouts      prometheus.Counter
	registrations prometheus.Counter
	verifications *prometheus.CounterVec
}

// NewAuthMetrics registers the auth metrics on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"result"})
	lockouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_account_lockouts_total",
		Help: "Accounts locked after repeated failed logins.",
	})
	registrations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Completed self-service registrations.",
	})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_email_verifications_total",
		Help: "Email verification attempts by outcome.",
	}, []string{"result"})
	reg.MustRegister(logins, lockouts, registrations, verifications)
	return &AuthMetrics{
		logins:        logins,
		lockouts:      lockouts,
		registrations: registrations,
		verifications: verifications,
	}
}

// ObserveLogin records one pass through the authentication gate.
func (m *AuthMetrics) ObserveLogin(result string) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncLockout counts an account transitioning to locked.
func (m *AuthMetrics) IncLockout() {
	if m == nil || m.lockouts == nil {
		return
	}
	m.lockouts.Inc()
}

// IncRegistration counts a created self-service account.
func (m *AuthMetrics) IncRegistration() {
	if m == nil || m.registrations == nil {
		return
	}
	m.registrations.Inc()
}

// ObserveVerification records an email verification outcome.
func (m *AuthMetrics) ObserveVerification(ok bool) {
	if m == nil || m.verifications == nil {
		return
	}
	result := "success"
	if !ok {
		result = "invalid"
	}
	m.verifications.WithLabelValues(result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
