// Package store provides SQLite-backed persistence for moderation state (bans).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/conversa-chat/conversa/pkg/model"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// Store provides SQLite database access.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set WAL: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS bans (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		username   TEXT    NOT NULL UNIQUE CHECK(length(username) > 0 AND length(username) <= 32),
		reason     TEXT    NOT NULL DEFAULT '',
		banned_by  TEXT    NOT NULL DEFAULT '',
		expires_at TEXT    NOT NULL DEFAULT '',
		created_at TEXT    NOT NULL DEFAULT (datetime('now'))
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateBan records a ban for a username, replacing any previous ban
// for the same name.
func (s *Store) CreateBan(username, reason, bannedBy string, expiresAt time.Time) error {
	if err := model.ValidateUsername(username); err != nil {
		return fmt.Errorf("store: create ban: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO bans (username, reason, banned_by, expires_at, created_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(username) DO UPDATE SET
			reason = excluded.reason,
			banned_by = excluded.banned_by,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		username, reason, bannedBy, encodeTime(expiresAt))
	if err != nil {
		return fmt.Errorf("store: create ban: %w", err)
	}
	return nil
}

// RemoveBan lifts the ban on a username.
func (s *Store) RemoveBan(username string) error {
	if _, err := s.db.Exec(`DELETE FROM bans WHERE username = ?`, username); err != nil {
		return fmt.Errorf("store: remove ban: %w", err)
	}
	return nil
}

// IsBanned reports whether a username is currently banned.
func (s *Store) IsBanned(username string) (bool, error) {
	var expires string
	err := s.db.QueryRow(`SELECT expires_at FROM bans WHERE username = ?`, username).Scan(&expires)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: is banned: %w", err)
	}

	expiresAt, err := decodeTime(expires)
	if err != nil {
		return false, fmt.Errorf("store: is banned: %w", err)
	}
	ban := model.Ban{Username: username, ExpiresAt: expiresAt}
	return !ban.IsExpired(time.Now().UTC()), nil
}

// ListBans returns all recorded bans ordered by creation.
func (s *Store) ListBans() ([]model.Ban, error) {
	rows, err := s.db.Query(`
		SELECT id, username, reason, banned_by, expires_at, created_at
		FROM bans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list bans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bans []model.Ban
	for rows.Next() {
		var b model.Ban
		var expires, created string
		if err := rows.Scan(&b.ID, &b.Username, &b.Reason, &b.BannedBy, &expires, &created); err != nil {
			return nil, fmt.Errorf("store: list bans: %w", err)
		}
		if b.ExpiresAt, err = decodeTime(expires); err != nil {
			return nil, fmt.Errorf("store: list bans: %w", err)
		}
		if b.CreatedAt, err = decodeTime(created); err != nil {
			return nil, fmt.Errorf("store: list bans: %w", err)
		}
		bans = append(bans, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list bans: %w", err)
	}
	return bans, nil
}

// encodeTime stores the zero time as an empty string (permanent ban).
func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dbTimeLayout)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dbTimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
