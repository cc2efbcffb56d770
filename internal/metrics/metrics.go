package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/bank-customer-api/internal/models"
)

// Auth holds the authentication and authorization counters.
type Auth struct {
	LoginAttempts *prometheus.CounterVec
	Lockouts      prometheus.Counter
	Registrations *prometheus.CounterVec
	Denials       *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewAuth creates and registers the auth metrics on registry.
func NewAuth(registry *prometheus.Registry) *Auth {
	m := &Auth{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_auth_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		Lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bank_auth_lockouts_total",
			Help: "Credentials locked after repeated failures",
		}),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_auth_registrations_total",
				Help: "Registered users by kind",
			},
			[]string{"kind"},
		),
		Denials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_authz_denials_total",
				Help: "Requests rejected by authorization gates",
			},
			[]string{"reason"},
		),
		registry: registry,
	}
	registry.MustRegister(m.LoginAttempts, m.Lockouts, m.Registrations, m.Denials)
	return m
}

// LoginAttempt implements auth.Observer.
func (m *Auth) LoginAttempt(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// Lockout implements auth.Observer.
func (m *Auth) Lockout() {
	m.Lockouts.Inc()
}

// Registered implements auth.Observer.
func (m *Auth) Registered(kind models.UserKind) {
	m.Registrations.WithLabelValues(kind.String()).Inc()
}

// Denied counts a gate denial.
func (m *Auth) Denied(reason string) {
	m.Denials.WithLabelValues(reason).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Auth) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
