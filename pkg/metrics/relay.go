package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics counts how outbox rows leave a relay batch.
type RelayMetrics struct {
	events *prometheus.CounterVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox rows handled by the relay, by outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(events)
	return &RelayMetrics{events: events}
}

func (r *RelayMetrics) IncEvent(eventType, outcome string) {
	if r == nil || r.events == nil {
		return
	}
	r.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
