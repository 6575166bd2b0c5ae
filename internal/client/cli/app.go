// Package cli implements the gophauth-client command line: register, login,
// refresh, whoami, logout and ping against the gRPC endpoint.
package cli

import (
	"bufio"
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// AuthAPI is what the commands need; *services.AuthService satisfies it.
type AuthAPI interface {
	Register(ctx context.Context, userName string, password []byte, firstName string) (*client.User, error)
	Login(ctx context.Context, userName string, password []byte) error
	Refresh(ctx context.Context) (*session.Session, error)
	WhoAmI(ctx context.Context) (*client.User, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// AuthFactory builds the AuthAPI once flags and config are known.
type AuthFactory func(ctx context.Context, cfg *config.Config) (AuthAPI, error)

type App struct {
	config  *config.Config
	auth    AuthAPI
	reader  *bufio.Reader
	factory AuthFactory
}

// NewAuthService opens the session database and the gRPC client.
func NewAuthService(ctx context.Context, cfg *config.Config) (AuthAPI, error) {
	db, err := client.OpenSessionDB(ctx, cfg.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(cfg.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &closingAuth{
		AuthService: services.NewAuthService(apiClient, session.NewSQLiteRepository(db)),
		closeDB:     db.Close,
	}, nil
}

// closingAuth also closes the session database.
type closingAuth struct {
	*services.AuthService
	closeDB func() error
}

func (c *closingAuth) Close() error {
	err := c.AuthService.Close()
	if dbErr := c.closeDB(); err == nil {
		err = dbErr
	}
	return err
}
