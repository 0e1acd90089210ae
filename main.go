package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/araneusX/battleship-gateway/auth"
	"github.com/araneusX/battleship-gateway/config"
	"github.com/araneusX/battleship-gateway/dispatch"
	"github.com/araneusX/battleship-gateway/domain"
	"github.com/araneusX/battleship-gateway/heartbeat"
	"github.com/araneusX/battleship-gateway/metrics"
	"github.com/araneusX/battleship-gateway/protocol"
	"github.com/araneusX/battleship-gateway/registry"
	ws "github.com/araneusX/battleship-gateway/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	reg := registry.New()
	m := metrics.New(prometheus.DefaultRegisterer, reg.Stats)
	gateway := dispatch.New(reg, m)
	processor := newProcessor(gateway.SendToClient)
	handler := protocol.NewHandler(reg, auth.NewStore(), processor, m)
	monitor := heartbeat.New(reg, cfg.HeartbeatInterval, m)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler(reg, handler))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(reg))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return monitor.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("gateway terminated", "error", err)
		os.Exit(1)
	}
	slog.Info("gateway stopped")
}

func setupLogger(level string) {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func wsHandler(reg domain.Registry, handler domain.MessageHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		wsConn := ws.NewConn(uuid.New().String(), conn, reg, handler)
		wsConn.Start()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(reg domain.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, connections := reg.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"users": users, "connections": connections})
	}
}

// loggingProcessor is the integration point for the downstream reducer. It
// receives the dispatch capability at construction so a real implementation
// can push to any user at any time.
type loggingProcessor struct {
	send domain.SendToClient
}

func newProcessor(send domain.SendToClient) *loggingProcessor {
	return &loggingProcessor{send: send}
}

func (p *loggingProcessor) Process(msg domain.Inbound) {
	slog.Debug("message forwarded", "type", msg.Type, "userId", msg.ID)
}
