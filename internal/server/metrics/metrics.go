// Package metrics exposes the server's Prometheus instrumentation on a
// private registry. All recording methods are safe on a nil *Metrics.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for registrations and logins.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalid            = "invalid"
	OutcomeDuplicate          = "duplicate"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeLocked             = "locked"
	OutcomeError              = "error"
)

// Result labels for token validations.
const (
	ResultOK               = "ok"
	ResultExpired          = "expired"
	ResultInvalidSignature = "invalid_signature"
	ResultMalformed        = "malformed"
	ResultMissing          = "missing"
)

type Metrics struct {
	registry      *prometheus.Registry
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	validations   *prometheus.CounterVec
	hashSeconds   *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_token_validations_total",
				Help: "Access token validations by result",
			},
			[]string{"result"},
		),
		hashSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gophauth_password_hash_seconds",
				Help:    "Time spent hashing or verifying passwords",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"op"},
		),
	}

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.registry.MustRegister(m.registrations, m.logins, m.validations, m.hashSeconds)

	return m
}

// Registry is exposed for tests and for wiring extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TokenValidation(result string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(result).Inc()
}

// ObserveHash has the shape of auth.HashObserver.
func (m *Metrics) ObserveHash(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.hashSeconds.WithLabelValues(op).Observe(d.Seconds())
}

// ValidationResult maps an Authenticate error to a result label.
func ValidationResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, common.ErrMissingToken):
		return ResultMissing
	case errors.Is(err, common.ErrTokenExpired):
		return ResultExpired
	case errors.Is(err, common.ErrInvalidSignature):
		return ResultInvalidSignature
	default:
		return ResultMalformed
	}
}

// Outcome maps a Register or Login error to an outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, common.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, common.ErrDuplicateUsername):
		return OutcomeDuplicate
	case errors.Is(err, common.ErrInvalidCredentials):
		return OutcomeInvalidCredentials
	case errors.Is(err, common.ErrAccountLocked):
		return OutcomeLocked
	default:
		return OutcomeError
	}
}
