// Package http exposes UserService as a JSON API on a chi router.
package http

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// UserService is the part of services.UserService the HTTP API calls.
type UserService interface {
	Register(ctx context.Context, username, password, firstName string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	CurrentUser(ctx context.Context, subjectID string) (*models.User, error)
}

// TokenAuthenticator is satisfied by *auth.Authenticator.
type TokenAuthenticator interface {
	Authenticate(token string) (string, error)
}

type Handler struct {
	users   UserService
	authn   TokenAuthenticator
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewHandler(l logging.Logger, us UserService, authn TokenAuthenticator, m *metrics.Metrics) *Handler {
	return &Handler{
		users:   us,
		authn:   authn,
		metrics: m,
		logger:  l.With("module", "http"),
	}
}

// NewRouter registers the auth routes, /healthz and /metrics.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", h.metricsHandler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", h.signUp)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Get("/me", h.me)
		})
	})

	return r
}

func (h *Handler) metricsHandler() http.Handler {
	if h.metrics == nil {
		return http.NotFoundHandler()
	}
	return h.metrics.Handler()
}
