package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks event delivery.
type Metrics struct {
	Published prometheus.Counter
	Failed    prometheus.Counter
	Dropped   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "regdesk_events_published_total",
			Help: "Registration events delivered to the sink",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "regdesk_events_failed_total",
			Help: "Registration event delivery attempts that failed",
		}),
		Dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regdesk_events_dropped_total",
			Help: "Registration events dropped before delivery, by reason",
		}, []string{"reason"}), // buffer_full, circuit_open, shutdown
	}
}

func (m *Metrics) incPublished() {
	if m != nil {
		m.Published.Inc()
	}
}

func (m *Metrics) incFailed() {
	if m != nil {
		m.Failed.Inc()
	}
}

func (m *Metrics) incDropped(reason string) {
	if m != nil {
		m.Dropped.WithLabelValues(reason).Inc()
	}
}
