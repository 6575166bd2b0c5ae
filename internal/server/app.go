// Package server wires the gophauth components together and runs the gRPC and
// HTTP endpoints until the process is asked to stop.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/lockout"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

// purgeInterval is how often expired refresh tokens are deleted.
const purgeInterval = time.Hour

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	userService *services.UserService
	grpcServer  *gs.GRPCServer
	httpServer  *hs.Server
	closers     []io.Closer
}

// NewApp connects the stores and builds every component from c. Call Close
// when done.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	if c.UsesDevSecret() {
		logger.Warn(ctx, "Signing tokens with the built-in development secret, set GOPHAUTH_SECRET_KEY")
	}

	repos, err := app.initRepositories(ctx)
	if err != nil {
		return nil, err
	}
	app.repos = repos
	app.closers = append(app.closers, repos)

	limiter, err := app.initLimiter(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	m := metrics.New()

	hasher, err := auth.NewHasher(c)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	tokens := auth.NewTokenService(auth.NewSigningKey(c.SecretKey), auth.TokenOptions{
		Leeway: c.ClockSkew,
		Issuer: c.TokenIssuer,
	})
	authn := auth.NewAuthenticator(tokens)

	app.userService = services.NewUserService(services.UserServiceDeps{
		Repos:   repos,
		Hasher:  auth.NewHashPool(hasher, c.HashWorkers, m.ObserveHash),
		Tokens:  tokens,
		Limiter: limiter,
		Metrics: m,
		Logger:  logger,
	}, c)

	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, app.userService, authn, m)
	app.httpServer = hs.NewServer(c.EndpointAddrHTTP, logger,
		hs.NewRouter(hs.NewHandler(logger, app.userService, authn, m)))

	return app, nil
}

func (app *App) initRepositories(ctx context.Context) (repomanager.RepositoryManager, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "No database DSN configured, using in-memory store")
		return repomanager.NewInMemoryRepositoryManager(), nil
	}

	rm, err := repomanager.NewPostgresRepositoryManager(ctx, app.config.DatabaseDSN, dbx.DefaultRetryPolicy)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return rm, nil
}

func (app *App) initLimiter(ctx context.Context) (*lockout.Limiter, error) {
	c := app.config
	if c.LockoutThreshold == 0 {
		return lockout.NewLimiter(nil, 0, 0), nil
	}
	if c.RedisURL == "" {
		return lockout.NewLimiter(lockout.NewMemoryStore(), c.LockoutThreshold, c.LockoutWindow), nil
	}

	client, err := lockout.Connect(ctx, c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, client)
	return lockout.NewLimiter(lockout.NewRedisStore(client), c.LockoutThreshold, c.LockoutWindow), nil
}

// Run serves both endpoints until ctx is done, a termination signal arrives
// or one of them fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpcServer.Run(ctx) })
	g.Go(func() error { return app.httpServer.Run(ctx) })
	if app.config.RefreshTokenValidityDuration > 0 {
		g.Go(func() error {
			app.purgeLoop(ctx)
			return nil
		})
	}

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.userService.PurgeExpiredRefreshTokens(ctx); err != nil {
				app.logger.Error(ctx, "purge refresh tokens", "error", err)
			}
		}
	}
}

// Close releases the database and Redis connections.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error(context.Background(), "close", "error", err)
		}
	}
	app.closers = nil
}
