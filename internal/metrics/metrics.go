// Package metrics expone contadores Prometheus del servicio.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder es lo que usan servicios y middlewares para reportar eventos.
type Recorder interface {
	RecordRegistration(outcome string)
	RecordVerification(outcome string)
	RecordLogin(outcome string)
	RecordNotification(channel, outcome string)
	RecordCodesSwept(count int)
	RecordRateLimited(scope string)
}

// Collector implementa Recorder sobre una registry de Prometheus.
type Collector struct {
	registrations *prometheus.CounterVec
	verifications *prometheus.CounterVec
	logins        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	codesSwept    prometheus.Counter
	rateLimited   *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutritrack_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutritrack_verifications_total",
			Help: "Verification code checks by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutritrack_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutritrack_notifications_total",
			Help: "Notification dispatches by channel and outcome.",
		}, []string{"channel", "outcome"}),
		codesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutritrack_verification_codes_swept_total",
			Help: "Expired verification codes removed by the sweeper.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutritrack_rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		}, []string{"scope"}),
	}

	reg.MustRegister(
		c.registrations,
		c.verifications,
		c.logins,
		c.notifications,
		c.codesSwept,
		c.rateLimited,
	)
	return c
}

func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordVerification(outcome string) {
	c.verifications.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordNotification(channel, outcome string) {
	c.notifications.WithLabelValues(channel, outcome).Inc()
}

func (c *Collector) RecordCodesSwept(count int) {
	c.codesSwept.Add(float64(count))
}

func (c *Collector) RecordRateLimited(scope string) {
	c.rateLimited.WithLabelValues(scope).Inc()
}

// Handler devuelve el endpoint de scrape.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type nopRecorder struct{}

// Nop descarta todas las metricas. Util en tests y cuando no hay registry.
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) RecordRegistration(string)         {}
func (nopRecorder) RecordVerification(string)         {}
func (nopRecorder) RecordLogin(string)                {}
func (nopRecorder) RecordNotification(string, string) {}
func (nopRecorder) RecordCodesSwept(int)              {}
func (nopRecorder) RecordRateLimited(string)          {}
