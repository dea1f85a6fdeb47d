package model

import "time"

// Ban represents a banned username. Bans are keyed by username because the
// server has no persistent user accounts; a banned name cannot log in.
type Ban struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Reason    string    `json:"reason"`
	BannedBy  string    `json:"banned_by"`
	ExpiresAt time.Time `json:"expires_at"` // zero = permanent
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the ban has expired at the given instant.
func (b *Ban) IsExpired(now time.Time) bool {
	if b.ExpiresAt.IsZero() {
		return false
	}
	return now.After(b.ExpiresAt)
}
