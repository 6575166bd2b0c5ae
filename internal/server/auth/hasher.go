// Package auth implements the credential and token primitives of the server:
// password hashing behind a bounded worker pool, signed access tokens and
// the token authenticator used by the transports.
package auth

import (
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/server/config"
)

// Error codes attached to failures with samber/oops. The wrapped sentinels
// from the common package stay matchable with errors.Is.
const (
	CodeHashFailed     = "AUTH_HASH_FAILED"
	CodeInvalidHash    = "AUTH_INVALID_HASH"
	CodeSignFailed     = "AUTH_SIGN_FAILED"
	CodeTokenMalformed = "AUTH_TOKEN_MALFORMED"
	CodeTokenBadSig    = "AUTH_TOKEN_BAD_SIGNATURE"
	CodeTokenExpired   = "AUTH_TOKEN_EXPIRED"
	CodeTokenMissing   = "AUTH_TOKEN_MISSING"
)

// PasswordHasher derives and checks one-way password hashes.
//
// Verify returns (false, nil) on a mismatch and an error only when the stored
// hash cannot be processed.
type PasswordHasher interface {
	Hash(plaintext string) ([]byte, error)
	Verify(plaintext string, hash []byte) (bool, error)
}

// NewHasher builds the hasher selected by cfg.HashAlgorithm.
func NewHasher(cfg *config.Config) (PasswordHasher, error) {
	switch cfg.HashAlgorithm {
	case config.HashBcrypt, "":
		return NewBcryptHasher(cfg.BcryptCost), nil
	case config.HashArgon2id:
		return NewArgon2idHasher(DefaultArgon2Params), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", cfg.HashAlgorithm)
	}
}
