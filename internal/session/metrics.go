package session

import (
	"errors"

	"finx-auth/internal/auth"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts session lifecycle outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	logouts   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finx",
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login attempts by method and result.",
		}, []string{"method", "result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finx",
			Subsystem: "session",
			Name:      "refreshes_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finx",
			Subsystem: "session",
			Name:      "logouts_total",
			Help:      "Logouts by server-side invalidation result.",
		}, []string{"server"}),
	}
	if reg != nil {
		reg.MustRegister(m.logins, m.refreshes, m.logouts)
	}
	return m
}

func (m *Metrics) login(method, result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(method, result).Inc()
}

func (m *Metrics) refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) logout(server string) {
	if m == nil {
		return
	}
	m.logouts.WithLabelValues(server).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, auth.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, auth.ErrProfileFetch):
		return "profile_error"
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrTokenExpired):
		return "unauthorized"
	case errors.Is(err, auth.ErrServerUnavailable):
		return "server_error"
	case errors.Is(err, auth.ErrNetwork):
		return "network_error"
	case errors.Is(err, auth.ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
