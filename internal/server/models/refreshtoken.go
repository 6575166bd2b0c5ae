package models

import "time"

// RefreshToken is a single-use credential exchanged for a new token pair.
// Only the SHA-256 digest of the opaque value is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
