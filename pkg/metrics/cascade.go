package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "printforge"

// CascadeMetrics counts per-product outcomes of design validation cascades.
// The trigger label distinguishes admin decisions from the global sweep.
type CascadeMetrics struct {
	updated      *prometheus.CounterVec
	failed       *prometheus.CounterVec
	notifyFailed *prometheus.CounterVec
}

// NewCascadeMetrics registers the cascade counters on the provided registerer.
func NewCascadeMetrics(reg prometheus.Registerer) *CascadeMetrics {
	if reg == nil {
		return &CascadeMetrics{}
	}
	updated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cascade",
		Name:      "products_updated_total",
		Help:      "Vendor products moved out of pending by a validation cascade.",
	}, []string{"trigger", "status"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cascade",
		Name:      "products_failed_total",
		Help:      "Vendor product updates that failed during a cascade.",
	}, []string{"trigger", "reason"})
	notifyFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cascade",
		Name:      "notifications_failed_total",
		Help:      "Notification dispatches that failed after a successful update.",
	}, []string{"trigger"})
	reg.MustRegister(updated, failed, notifyFailed)
	return &CascadeMetrics{
		updated:      updated,
		failed:       failed,
		notifyFailed: notifyFailed,
	}
}

func (c *CascadeMetrics) IncUpdated(trigger, status string) {
	if c == nil || c.updated == nil {
		return
	}
	c.updated.WithLabelValues(normalizeLabel(trigger), normalizeLabel(status)).Inc()
}

func (c *CascadeMetrics) IncFailed(trigger, reason string) {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.WithLabelValues(normalizeLabel(trigger), normalizeLabel(reason)).Inc()
}

func (c *CascadeMetrics) IncNotificationFailed(trigger string) {
	if c == nil || c.notifyFailed == nil {
		return
	}
	c.notifyFailed.WithLabelValues(normalizeLabel(trigger)).Inc()
}
