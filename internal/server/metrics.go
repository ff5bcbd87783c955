package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instruments for the control server. Each
// server instance owns its registry so tests can run servers side by side
// without duplicate-registration panics.
type metrics struct {
	registry *prometheus.Registry

	admittedTotal   prometheus.Counter
	rejectedTotal   prometheus.Counter
	handshakeErrors prometheus.Counter
	activeSessions  prometheus.Gauge
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &metrics{
		registry: registry,
		admittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "picoremote",
			Subsystem: "control",
			Name:      "connections_admitted_total",
			Help:      "Connection attempts that passed token validation.",
		}),
		rejectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "picoremote",
			Subsystem: "control",
			Name:      "connections_rejected_total",
			Help:      "Connection attempts denied at admission.",
		}),
		handshakeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "picoremote",
			Subsystem: "control",
			Name:      "handshake_errors_total",
			Help:      "WebSocket upgrades that failed after admission.",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "picoremote",
			Subsystem: "control",
			Name:      "active_sessions",
			Help:      "Currently open, authenticated control sessions.",
		}),
	}
}
