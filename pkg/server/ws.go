package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// The WebSocket gateway lets browser frontends speak the same line protocol:
// each text message carries exactly one protocol line, and the connection is
// handled by the same dispatcher as a TCP socket.

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts non-browser clients (no Origin header) and browsers
// served from the same host as the gateway.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// StartWS starts the WebSocket gateway if configured.
func (s *Server) StartWS() error {
	addr := s.cfg.WSAddr
	if addr == "" {
		return nil // gateway disabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("websocket gateway listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("websocket gateway error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()

	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.HandleConn(newWSLineConn(conn))
}

// wsLineConn adapts a WebSocket connection to LineConn: one text message per
// line. Session serializes writes, satisfying gorilla's single-writer rule.
type wsLineConn struct {
	conn *websocket.Conn
}

func newWSLineConn(conn *websocket.Conn) LineConn {
	return &wsLineConn{conn: conn}
}

func (c *wsLineConn) ReadLine() (string, error) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if msgType != websocket.TextMessage {
			continue // binary frames are not part of the protocol
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *wsLineConn) WriteLine(line string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsLineConn) Close() error {
	return c.conn.Close()
}

func (c *wsLineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
