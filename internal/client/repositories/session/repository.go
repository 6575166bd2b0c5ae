// Package session persists the logged-in user's tokens between CLI runs.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by Load when nobody is logged in.
var ErrNoSession = errors.New("not logged in")

// Session is what the CLI remembers after a successful login.
type Session struct {
	UserName     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Repository interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context) (*Session, error)
	Clear(ctx context.Context) error
}
