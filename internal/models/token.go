package models

import "time"

// RefreshToken is a stored, revocable refresh token. Only the SHA-256 hash
// of the opaque token value is persisted.
type RefreshToken struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	TokenHash string     `db:"token_hash" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IP        string     `db:"ip" json:"-"`
	UserAgent string     `db:"user_agent" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Revoked reports whether the token has been revoked.
func (t RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}
