// Package metrics provides Prometheus instrumentation for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	FramesReceived     prometheus.Counter
	FramesSent         prometheus.Counter
	DecodeErrors       prometheus.Counter
	SendErrors         prometheus.Counter
	Registrations      *prometheus.CounterVec
	HeartbeatEvictions prometheus.Counter
}

// New creates the gateway collectors and registers them with reg. A nil reg
// leaves them unregistered, which unit tests rely on. stats, when non-nil,
// backs the connection and user gauges.
func New(reg prometheus.Registerer, stats func() (users, connections int)) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Inbound frames received across all connections",
		}),
		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Outbound frames transmitted across all connections",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_decode_errors_total",
			Help:      "Inbound frames dropped because an envelope layer failed to parse",
		}),
		SendErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "Per-connection transmission failures during dispatch",
		}),
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome",
		}, []string{"outcome"}),
		HeartbeatEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeat_evictions_total",
			Help:      "Connections terminated for missing a heartbeat probe",
		}),
	}

	if stats != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_users",
			Help:      "Users with at least one live connection",
		}, func() float64 {
			users, _ := stats()
			return float64(users)
		})
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Currently accepted connections, registered or not",
		}, func() float64 {
			_, connections := stats()
			return float64(connections)
		})
	}

	return m
}
