package protocol

import (
	"encoding/json"
	"log/slog"

	"github.com/araneusX/battleship-gateway/domain"
	"github.com/araneusX/battleship-gateway/metrics"
)

// Handler demultiplexes inbound frames: "reg" frames drive the registration
// state machine, everything else is forwarded to the processor once the
// connection is bound to a user.
type Handler struct {
	registry  domain.Registry
	auth      domain.Authenticator
	processor domain.Processor
	metrics   *metrics.Metrics
}

func NewHandler(reg domain.Registry, auth domain.Authenticator, proc domain.Processor, m *metrics.Metrics) *Handler {
	return &Handler{registry: reg, auth: auth, processor: proc, metrics: m}
}

// Handle processes one inbound frame. Decode failures drop the frame and
// leave the connection open.
func (h *Handler) Handle(conn domain.Connection, raw []byte) {
	h.metrics.FramesReceived.Inc()

	frame, err := DecodeFrame(raw)
	if err != nil {
		h.metrics.DecodeErrors.Inc()
		slog.Warn("dropping malformed frame", "clientId", conn.ID(), "error", err)
		return
	}

	if frame.Type == TypeReg {
		h.register(conn, frame)
		return
	}

	id, registered := conn.UserID()
	if !registered {
		// only registration has any effect before the handshake
		return
	}

	h.processor.Process(domain.Inbound{Type: frame.Type, Data: frame.Data, ID: id})
}

func (h *Handler) register(conn domain.Connection, frame domain.Frame) {
	if _, registered := conn.UserID(); registered {
		// a bound connection never rebinds
		slog.Warn("ignoring repeated registration", "clientId", conn.ID())
		return
	}

	var req domain.RegRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		h.metrics.DecodeErrors.Inc()
		slog.Warn("dropping malformed registration payload", "clientId", conn.ID(), "error", err)
		return
	}

	id, err := h.auth.Verify(req)
	if err != nil {
		h.metrics.Registrations.WithLabelValues("rejected").Inc()
		slog.Warn("registration rejected", "clientId", conn.ID(), "name", req.Name, "error", err)
		h.ack(conn, domain.RegResponse{Error: true, ErrorText: err.Error(), Index: 0, Name: req.Name})
		return
	}

	conn.Bind(id)
	h.registry.Bind(id, conn)
	h.metrics.Registrations.WithLabelValues("ok").Inc()
	slog.Info("user registered", "clientId", conn.ID(), "userId", id, "name", req.Name)

	h.ack(conn, domain.RegResponse{Error: false, ErrorText: "", Index: id, Name: req.Name})
}

func (h *Handler) ack(conn domain.Connection, resp domain.RegResponse) {
	data, err := EncodeOutbound(domain.Outbound{Type: TypeReg, Data: resp})
	if err != nil {
		slog.Error("encode registration ack", "clientId", conn.ID(), "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		h.metrics.SendErrors.Inc()
		slog.Warn("registration ack not delivered", "clientId", conn.ID(), "error", err)
	}
}
