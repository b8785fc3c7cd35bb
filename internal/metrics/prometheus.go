package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// ConnectionMetrics holds the Prometheus collectors of the connection registry.
// A nil *ConnectionMetrics is valid and records nothing.
type ConnectionMetrics struct {
	ConnectionsAdded     *prometheus.CounterVec
	ConnectionsRemoved   *prometheus.CounterVec
	DuplicateConnections *prometheus.CounterVec
	Resolutions          *prometheus.CounterVec
	KnownUsers           prometheus.Gauge
}

// NewConnectionMetrics creates the collectors and registers them on reg when it is not nil.
func NewConnectionMetrics(reg prometheus.Registerer) *ConnectionMetrics {
	m := &ConnectionMetrics{
		ConnectionsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "connreg_connections_added_total",
			Help: "Total number of connections added, by provider.",
		}, []string{"provider"}),
		ConnectionsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "connreg_connections_removed_total",
			Help: "Total number of connections removed, by provider.",
		}, []string{"provider"}),
		DuplicateConnections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "connreg_duplicate_connections_total",
			Help: "Total number of rejected duplicate connections, by provider.",
		}, []string{"provider"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "connreg_resolutions_total",
			Help: "Total number of inbound connection resolutions, by outcome.",
		}, []string{"outcome"}),
		KnownUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "connreg_known_users",
			Help: "Number of local users with a connection store.",
		}),
	}

	if reg == nil {
		log.Warn().Msg("Prometheus registerer is nil, connection metrics are not exported")
		return m
	}

	for name, c := range map[string]prometheus.Collector{
		"ConnectionsAdded":     m.ConnectionsAdded,
		"ConnectionsRemoved":   m.ConnectionsRemoved,
		"DuplicateConnections": m.DuplicateConnections,
		"Resolutions":          m.Resolutions,
		"KnownUsers":           m.KnownUsers,
	} {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to register metric")
		}
	}

	return m
}

func (m *ConnectionMetrics) ObserveAdded(providerID string) {
	if m == nil {
		return
	}
	m.ConnectionsAdded.WithLabelValues(providerID).Inc()
}

func (m *ConnectionMetrics) ObserveRemoved(providerID string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ConnectionsRemoved.WithLabelValues(providerID).Add(float64(n))
}

func (m *ConnectionMetrics) ObserveDuplicate(providerID string) {
	if m == nil {
		return
	}
	m.DuplicateConnections.WithLabelValues(providerID).Inc()
}

func (m *ConnectionMetrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

func (m *ConnectionMetrics) SetKnownUsers(n int) {
	if m == nil {
		return
	}
	m.KnownUsers.Set(float64(n))
}
