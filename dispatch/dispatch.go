// Package dispatch exposes the single send primitive handed to the message
// processor: multicast to the connections of listed users, or broadcast to
// every accepted connection.
package dispatch

import (
	"log/slog"

	"github.com/araneusX/battleship-gateway/domain"
	"github.com/araneusX/battleship-gateway/metrics"
	"github.com/araneusX/battleship-gateway/protocol"
)

type Gateway struct {
	registry domain.Registry
	metrics  *metrics.Metrics
}

func New(reg domain.Registry, m *metrics.Metrics) *Gateway {
	return &Gateway{registry: reg, metrics: m}
}

// SendToClient serializes msg once and transmits the same bytes to every
// resolved connection. With no user ids the target set is every accepted
// connection, registered or not; otherwise it is the union of the listed
// users' connections, where offline users contribute nothing. Delivery is
// best effort and per-connection failures never abort the rest.
func (g *Gateway) SendToClient(msg domain.Outbound, users ...domain.UserID) {
	data, err := protocol.EncodeOutbound(msg)
	if err != nil {
		slog.Error("encode outbound message", "type", msg.Type, "error", err)
		return
	}

	var targets []domain.Connection
	if len(users) == 0 {
		targets = g.registry.AllConnections()
	} else {
		for _, id := range users {
			targets = append(targets, g.registry.ConnectionsFor(id)...)
		}
	}

	for _, conn := range targets {
		if err := conn.Send(data); err != nil {
			g.metrics.SendErrors.Inc()
			slog.Warn("message not delivered", "clientId", conn.ID(), "type", msg.Type, "error", err)
			continue
		}
		g.metrics.FramesSent.Inc()
	}
}
