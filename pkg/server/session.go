package server

import (
	"log/slog"
	"sync"
)

// Session is the server-side state for one connected client. It is created
// unauthenticated on accept; username and admin flag are bound at login and
// never change afterwards. The room pointer is mutated only by RoomRegistry
// operations so membership and session state stay in lockstep.
type Session struct {
	id   uint64
	conn LineConn

	mu        sync.Mutex
	username  string
	admin     bool
	room      *Room
	connected bool
}

func newSession(id uint64, conn LineConn) *Session {
	return &Session{id: id, conn: conn, connected: true}
}

// ID returns the stable pre-login identifier of this session.
func (s *Session) ID() uint64 { return s.id }

// Username returns the bound username, or "" before login.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Admin reports whether this session logged in with the admin secret.
func (s *Session) Admin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin
}

// LoggedIn reports whether a username has been bound.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username != ""
}

// Room returns the room this session is currently in, or nil.
func (s *Session) Room() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Connected reports whether the session can still receive lines.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// RemoteAddr returns the peer address for logging.
func (s *Session) RemoteAddr() string { return s.conn.RemoteAddr() }

func (s *Session) setRoom(r *Room) {
	s.mu.Lock()
	s.room = r
	s.mu.Unlock()
}

// bindLogin assigns identity before registration. Undone with clearLogin if
// the registry rejects the name.
func (s *Session) bindLogin(username string, admin bool) {
	s.mu.Lock()
	s.username = username
	s.admin = admin
	s.mu.Unlock()
}

func (s *Session) clearLogin() {
	s.mu.Lock()
	s.username = ""
	s.admin = false
	s.mu.Unlock()
}

// Send writes one event line to the client. Writes after disconnect are
// dropped; write errors are not surfaced to callers (the reader goroutine
// detects the broken transport and unwinds the session).
func (s *Session) Send(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return
	}
	if err := s.conn.WriteLine(line); err != nil {
		slog.Debug("session write failed", "session", s.id, "err", err)
	}
}

// markDisconnected flips the terminal connected flag. Returns false if the
// session was already disconnected.
func (s *Session) markDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return false
	}
	s.connected = false
	return true
}

// CloseConn closes the underlying transport, forcing the session's reader
// goroutine to unwind. Used by ban enforcement and shutdown.
func (s *Session) CloseConn() error {
	return s.conn.Close()
}
