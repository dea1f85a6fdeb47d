package server

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conversa-chat/conversa/pkg/protocol"
)

// Run starts the server and blocks until shutdown signal.
func (s *Server) Run() error {
	if s.store == nil {
		return fmt.Errorf("server: missing store dependency")
	}
	if s.verifier == nil {
		return fmt.Errorf("server: missing verifier dependency")
	}
	defer func() { _ = s.store.Close() }()

	// Seed rooms from YAML config if provided
	if s.cfg.RoomsFile != "" {
		if err := LoadRoomsFromYAML(s.cfg.RoomsFile, s.rooms); err != nil {
			slog.Error("failed to load rooms config", "err", err)
		}
	}

	// Start listeners
	if err := s.StartTCP(); err != nil {
		return err
	}
	if err := s.StartWS(); err != nil {
		return err
	}

	slog.Info("Conversa server running",
		"addr", s.cfg.Addr,
		"ws", s.cfg.WSAddr,
		"auto_create_rooms", s.cfg.AutoCreateRooms,
	)

	// Prometheus metrics HTTP endpoint
	s.StartMetricsHTTP()

	// Periodic metrics logging (every 60s)
	s.metrics.StartPeriodicLog(60*time.Second, s.ctx.Done())

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	s.Shutdown()
	return nil
}

// Shutdown gracefully stops the server: every logged-in session gets a
// notice, then the transports and listeners are closed.
func (s *Server) Shutdown() {
	for _, sess := range s.sessions.All() {
		sess.Send(protocol.Info("O servidor está sendo encerrado"))
		_ = sess.CloseConn()
	}

	s.cancel()
	if s.ln != nil {
		_ = s.ln.Close()
	}
}
