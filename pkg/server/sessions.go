package server

import (
	"sync"

	"github.com/conversa-chat/conversa/pkg/model"
)

// SessionRegistry tracks logged-in sessions by username and enforces
// username uniqueness. Sessions appear here only after a successful login.
type SessionRegistry struct {
	mu     sync.RWMutex
	byName map[string]*Session
}

// NewSessionRegistry creates an empty session registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{byName: make(map[string]*Session)}
}

// Register inserts a session under its username. The existence check and the
// insert happen under one lock so two concurrent logins can never share a name.
func (r *SessionRegistry) Register(s *Session) error {
	name := s.Username()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[name]; taken {
		return model.ErrNameTaken
	}
	r.byName[name] = s
	return nil
}

// Unregister removes a session by username. Unregistering a session that was
// never registered (pre-login disconnect) is a no-op.
func (r *SessionRegistry) Unregister(s *Session) {
	name := s.Username()
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byName[name]; ok && cur == s {
		delete(r.byName, name)
	}
}

// IsTaken reports whether a username is registered. Advisory only: Register
// re-checks under its own lock.
func (r *SessionRegistry) IsTaken(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, taken := r.byName[name]
	return taken
}

// Get retrieves a registered session by username, or nil.
func (r *SessionRegistry) Get(name string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Count returns the number of registered sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// All returns a snapshot of all registered sessions.
func (r *SessionRegistry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Session, 0, len(r.byName))
	for _, s := range r.byName {
		result = append(result, s)
	}
	return result
}
