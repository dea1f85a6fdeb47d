package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StartMetricsHTTP starts a lightweight HTTP server that exposes /metrics
// in Prometheus text exposition format. It runs in the background and
// shuts down when the server context is cancelled.
func (s *Server) StartMetricsHTTP() {
	addr := s.cfg.MetricsAddr
	if addr == "" {
		return // metrics endpoint disabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics HTTP listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics HTTP error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()
}

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Helper for gauge/counter lines.
	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}
	writeFloat := func(name, help, mtype string, value float64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %f\n", name, value)
	}

	writeFloat("conversa_uptime_seconds", "Server uptime in seconds.", "gauge", uptime)

	write("conversa_connections_active", "Current active connections.", "gauge",
		m.ActiveConnections.Load())
	write("conversa_connections_total", "Lifetime connections accepted.", "counter",
		m.TotalConnections.Load())
	write("conversa_disconnects_total", "Total client disconnects.", "counter",
		m.TotalDisconnects.Load())

	write("conversa_logins_success_total", "Successful logins.", "counter",
		m.SuccessfulLogins.Load())
	write("conversa_logins_failed_total", "Failed login attempts.", "counter",
		m.FailedLogins.Load())

	write("conversa_sessions_active", "Currently logged-in sessions.", "gauge",
		int64(s.sessions.Count()))
	write("conversa_rooms_active", "Currently existing rooms.", "gauge",
		int64(s.rooms.Len()))

	write("conversa_messages_total", "Chat messages relayed.", "counter",
		m.MessagesSent.Load())

	write("conversa_rooms_created_total", "Rooms created.", "counter",
		m.RoomsCreated.Load())
	write("conversa_rooms_closed_total", "Rooms closed by an administrator.", "counter",
		m.RoomsClosed.Load())
	write("conversa_rooms_emptied_total", "Rooms deleted after losing their last member.", "counter",
		m.RoomsEmptied.Load())

	write("conversa_kicks_total", "Users kicked from rooms.", "counter",
		m.KickCount.Load())
	write("conversa_bans_total", "Users banned.", "counter",
		m.BanCount.Load())
}
