package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascadeMetricsCountsByTrigger(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCascadeMetrics(reg)

	m.IncUpdated("admin", "published")
	m.IncUpdated("admin", "published")
	m.IncUpdated("system", "draft")
	m.IncFailed("system", "already_validated")
	m.IncNotificationFailed("")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.updated.WithLabelValues("admin", "published")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updated.WithLabelValues("system", "draft")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed.WithLabelValues("system", "already_validated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifyFailed.WithLabelValues("unknown")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotNil(t, findMetricFamily(mfs, "printforge_cascade_products_updated_total"))
}

func TestNilCascadeMetricsAreNoops(t *testing.T) {
	var m *CascadeMetrics
	m.IncUpdated("admin", "draft")
	m.IncFailed("admin", "not_found")
	m.IncNotificationFailed("admin")

	unregistered := NewCascadeMetrics(nil)
	unregistered.IncUpdated("system", "published")
}

func TestRelayMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRelayMetrics(reg)

	m.IncEvent("notification_requested", "published")
	m.IncEvent("notification_requested", "parked")
	m.IncEvent("", "retry")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("notification_requested", "published")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("unknown", "retry")))

	var nilMetrics *RelayMetrics
	nilMetrics.IncEvent("x", "published")
}
