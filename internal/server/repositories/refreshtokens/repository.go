// Package refreshtokens stores the digests of issued refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository keeps refresh tokens keyed by the SHA-256 hex digest of the
// opaque value handed to the client.
type Repository interface {
	// Create stores a token digest for userID valid until expiresAt.
	Create(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error

	// Consume deletes the token and returns what was stored, so a token can be
	// exchanged at most once. Unknown digests yield common.ErrorNotFound.
	// Expired tokens are still returned; the caller decides.
	Consume(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// DeleteExpired removes tokens that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
