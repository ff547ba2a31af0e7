package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration outcomes, used as the outcome label.
const (
	OutcomeAccepted    = "accepted"
	OutcomeInvalid     = "invalid"
	OutcomeTaken       = "taken"
	OutcomeUnavailable = "unavailable"
)

// Metrics provides observability for the registration module.
type Metrics struct {
	Registrations    *prometheus.CounterVec
	RegisterDuration prometheus.Histogram
}

// New registers the registration metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regdesk_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		RegisterDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "regdesk_register_duration_seconds",
			Help:    "Duration of Register operations including the registry write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveRegister records one attempt. Call with time.Now() taken at the
// start of the operation.
func (m *Metrics) ObserveRegister(outcome string, start time.Time) {
	m.Registrations.WithLabelValues(outcome).Inc()
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}
