package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/connections/internal/metrics"
)

func TestConnectionMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewConnectionMetrics(reg)

	m.ObserveAdded("paypal")
	m.ObserveAdded("paypal")
	m.ObserveRemoved("paypal", 3)
	m.ObserveRemoved("paypal", 0)
	m.ObserveDuplicate("google")
	m.ObserveResolution("MATCHED")
	m.SetKnownUsers(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConnectionsAdded.WithLabelValues("paypal")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ConnectionsRemoved.WithLabelValues("paypal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateConnections.WithLabelValues("google")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("MATCHED")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.KnownUsers))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestConnectionMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.ConnectionMetrics

	assert.NotPanics(t, func() {
		m.ObserveAdded("paypal")
		m.ObserveRemoved("paypal", 1)
		m.ObserveDuplicate("paypal")
		m.ObserveResolution("CREATED")
		m.SetKnownUsers(1)
	})
}

func TestConnectionMetrics_DoubleRegistrationDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewConnectionMetrics(reg)

	assert.NotPanics(t, func() {
		metrics.NewConnectionMetrics(reg)
	})
}
