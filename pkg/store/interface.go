package store

import (
	"time"

	"github.com/conversa-chat/conversa/pkg/model"
)

// DataStore defines the persistence interface for moderation state.
// Implementations include the default SQLite store and an in-memory store
// for tests. Chat messages are never persisted.
type DataStore interface {
	// Close closes the underlying storage connection.
	Close() error

	// CreateBan records a ban for a username, replacing any previous ban
	// for the same name. A zero expiresAt means permanent.
	CreateBan(username, reason, bannedBy string, expiresAt time.Time) error

	// RemoveBan lifts the ban on a username. Removing an absent ban is a no-op.
	RemoveBan(username string) error

	// IsBanned reports whether a username is currently banned.
	// Expired bans are treated as absent.
	IsBanned(username string) (bool, error)

	// ListBans returns all recorded bans, including expired ones,
	// ordered by creation.
	ListBans() ([]model.Ban, error)
}

// Compile-time checks.
var (
	_ DataStore = (*Store)(nil)
	_ DataStore = (*MemoryStore)(nil)
)
