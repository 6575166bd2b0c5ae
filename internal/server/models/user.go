// Package models holds the records persisted by the server repositories.
package models

import "time"

// User is a registered account. PasswordHash holds the encoded output of the
// configured password hasher, never the plaintext.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	FirstName    string
	CreatedAt    time.Time
}
