// Package heartbeat implements fixed-period dead-peer detection. Every cycle
// each connection gets exactly one probe; a peer that fails to answer before
// the next cycle is deregistered and forcibly terminated, so detection takes
// between one and two periods.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"github.com/araneusX/battleship-gateway/domain"
	"github.com/araneusX/battleship-gateway/metrics"
)

type Monitor struct {
	registry domain.Registry
	interval time.Duration
	metrics  *metrics.Metrics
}

func New(reg domain.Registry, interval time.Duration, m *metrics.Metrics) *Monitor {
	return &Monitor{registry: reg, interval: interval, metrics: m}
}

// Run probes on a fixed period until ctx is cancelled. Liveness does not
// depend on application traffic: a silent connection stays alive as long as
// it answers probes.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("heartbeat monitor started", "interval", m.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("heartbeat monitor stopped")
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep runs one cycle: connections that missed the previous probe are
// evicted, survivors are flipped to suspect and probed again. A probe
// response arriving before the next sweep flips the flag back.
func (m *Monitor) Sweep() {
	for _, conn := range m.registry.AllConnections() {
		if !conn.Alive() {
			m.evict(conn)
			continue
		}

		conn.SetAlive(false)
		if err := conn.Ping(); err != nil {
			// the failed write leaves the flag down, so the next
			// sweep evicts the connection
			slog.Debug("probe not sent", "clientId", conn.ID(), "error", err)
		}
	}
}

func (m *Monitor) evict(conn domain.Connection) {
	m.registry.Forget(conn)
	if err := conn.Terminate(); err != nil {
		slog.Debug("terminate failed", "clientId", conn.ID(), "error", err)
	}
	m.metrics.HeartbeatEvictions.Inc()
	slog.Info("dead peer evicted", "clientId", conn.ID())
}
