package server

import (
	"io"
	"sync"
	"testing"

	"github.com/conversa-chat/conversa/pkg/auth"
	"github.com/conversa-chat/conversa/pkg/store"
)

// fakeConn implements LineConn with a scripted inbound side and a recorded
// outbound side. ReadLine returns the scripted lines in order, then io.EOF.
type fakeConn struct {
	mu     sync.Mutex
	script []string
	next   int
	sent   []string
	closed bool
}

func newFakeConn(script ...string) *fakeConn {
	return &fakeConn{script: script}
}

func (c *fakeConn) ReadLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.next >= len(c.script) {
		return "", io.EOF
	}
	line := c.script[c.next]
	c.next++
	return line, nil
}

func (c *fakeConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	c.sent = append(c.sent, line)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake:0" }

// Sent returns a snapshot of everything written to the client so far.
func (c *fakeConn) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// contains reports whether any recorded line equals want.
func contains(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

func newTestServer(t *testing.T, adminSecret string) *Server {
	t.Helper()
	v, err := auth.NewVerifier(adminSecret)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return New(DefaultConfig(), Dependencies{Store: store.NewMemory(), Verifier: v})
}

// loginSession creates a logged-in session backed by a fakeConn, bypassing
// the wire handshake. Used by tests that need an already present peer.
func loginSession(t *testing.T, s *Server, username string, admin bool) (*Session, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	sess := newSession(s.nextSessionID.Add(1), conn)
	sess.bindLogin(username, admin)
	if err := s.sessions.Register(sess); err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return sess, conn
}
