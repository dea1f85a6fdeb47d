package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/conversa-chat/conversa/pkg/model"
)

// MemoryStore provides an in-memory DataStore implementation for tests.
// It mirrors SQLite behavior for validation and error handling.
type MemoryStore struct {
	mu sync.RWMutex

	now func() time.Time

	nextBanID      int64
	bansByUsername map[string]*model.Ban
}

// NewMemory creates a MemoryStore using time.Now().UTC().
func NewMemory() *MemoryStore {
	return NewMemoryWithClock(nil)
}

// NewMemoryWithClock creates a MemoryStore with a custom clock.
func NewMemoryWithClock(now func() time.Time) *MemoryStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MemoryStore{
		now:            now,
		nextBanID:      1,
		bansByUsername: make(map[string]*model.Ban),
	}
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}

// CreateBan records a ban, replacing any previous ban for the same name.
func (s *MemoryStore) CreateBan(username, reason, bannedBy string, expiresAt time.Time) error {
	if err := model.ValidateUsername(username); err != nil {
		return fmt.Errorf("store: create ban: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ban := &model.Ban{
		ID:        s.nextBanID,
		Username:  username,
		Reason:    reason,
		BannedBy:  bannedBy,
		ExpiresAt: expiresAt,
		CreatedAt: s.now().UTC(),
	}
	if prev, ok := s.bansByUsername[username]; ok {
		ban.ID = prev.ID
	} else {
		s.nextBanID++
	}
	s.bansByUsername[username] = ban
	return nil
}

// RemoveBan lifts the ban on a username.
func (s *MemoryStore) RemoveBan(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bansByUsername, username)
	return nil
}

// IsBanned reports whether a username is currently banned.
func (s *MemoryStore) IsBanned(username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ban, ok := s.bansByUsername[username]
	if !ok {
		return false, nil
	}
	return !ban.IsExpired(s.now().UTC()), nil
}

// ListBans returns all recorded bans ordered by creation.
func (s *MemoryStore) ListBans() ([]model.Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bans := make([]model.Ban, 0, len(s.bansByUsername))
	for _, b := range s.bansByUsername {
		bans = append(bans, *b)
	}
	// Deterministic order, matching the SQLite ORDER BY id.
	sort.Slice(bans, func(i, j int) bool { return bans[i].ID < bans[j].ID })
	return bans, nil
}
