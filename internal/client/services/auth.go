// Package services contains the client application services. AuthService
// drives registration, login, refresh and whoami against the server and keeps
// the local session in step.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
)

// Client is the remote API used by AuthService; *client.GRPCClient
// satisfies it.
type Client interface {
	Register(ctx context.Context, userName string, password []byte, firstName string) (*client.User, error)
	Login(ctx context.Context, userName string, password []byte) (*client.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*client.Tokens, error)
	WhoAmI(ctx context.Context) (*client.User, error)
	Ping(ctx context.Context) error
	SetTokens(t client.Tokens)
	OnRefresh(fn func(client.Tokens))
	Close() error
}

type AuthService struct {
	client   Client
	sessions session.Repository
}

func NewAuthService(c Client, sessions session.Repository) *AuthService {
	return &AuthService{client: c, sessions: sessions}
}

// Register creates an account. It does not log in.
func (a *AuthService) Register(ctx context.Context, userName string, password []byte, firstName string) (*client.User, error) {
	return a.client.Register(ctx, userName, password, firstName)
}

// Login authenticates and saves the session.
func (a *AuthService) Login(ctx context.Context, userName string, password []byte) error {
	t, err := a.client.Login(ctx, userName, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	if err := a.save(ctx, userName, *t); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	return nil
}

// Refresh exchanges the saved refresh token for a new session.
func (a *AuthService) Refresh(ctx context.Context) (*session.Session, error) {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.RefreshToken == "" {
		return nil, errors.New("session has no refresh token")
	}

	t, err := a.client.Refresh(ctx, s.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = a.sessions.Clear(ctx)
		}
		return nil, fmt.Errorf("refresh error: %w", err)
	}
	if err := a.save(ctx, s.UserName, *t); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return a.sessions.Load(ctx)
}

// WhoAmI reports the logged-in user. An expired access token is refreshed
// on the way and the new pair is saved.
func (a *AuthService) WhoAmI(ctx context.Context) (*client.User, error) {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}

	a.client.SetTokens(client.Tokens{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, ExpiresAt: s.ExpiresAt})

	var saveErr error
	a.client.OnRefresh(func(t client.Tokens) {
		saveErr = a.save(ctx, s.UserName, t)
	})
	defer a.client.OnRefresh(nil)

	u, err := a.client.WhoAmI(ctx)
	if err != nil {
		return nil, err
	}
	if saveErr != nil {
		return nil, fmt.Errorf("session saving error: %w", saveErr)
	}
	return u, nil
}

// Logout forgets the local session.
func (a *AuthService) Logout(ctx context.Context) error {
	return a.sessions.Clear(ctx)
}

func (a *AuthService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *AuthService) Close() error {
	return a.client.Close()
}

func (a *AuthService) save(ctx context.Context, userName string, t client.Tokens) error {
	return a.sessions.Save(ctx, &session.Session{
		UserName:     userName,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.ExpiresAt,
	})
}
