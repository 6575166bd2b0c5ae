// Package services contains the server's business logic. UserService
// registers accounts, verifies credentials and mints access and refresh
// tokens; transports only translate its results.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/lockout"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 32

// dummyPassword is hashed once and verified whenever a login names an
// unknown user.
const dummyPassword = "gophauth-dummy-password"

// TokenPair is what a successful login or refresh returns. RefreshToken is
// empty when refresh tokens are disabled.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// PasswordHasher is satisfied by *auth.HashPool.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) ([]byte, error)
	Verify(ctx context.Context, plaintext string, hash []byte) (bool, error)
}

// TokenIssuer is satisfied by *auth.TokenService.
type TokenIssuer interface {
	Issue(subjectID string, ttl time.Duration) (string, error)
}

// LoginLimiter is satisfied by *lockout.Limiter.
type LoginLimiter interface {
	Check(ctx context.Context, userName string) error
	RecordFailure(ctx context.Context, userName string) error
	Reset(ctx context.Context, userName string) error
}

// UserServiceDeps are the collaborators of UserService. Limiter and Metrics
// may be nil.
type UserServiceDeps struct {
	Repos   repomanager.RepositoryManager
	Hasher  PasswordHasher
	Tokens  TokenIssuer
	Limiter LoginLimiter
	Metrics *metrics.Metrics
	Logger  logging.Logger
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	limiter     LoginLimiter
	metrics     *metrics.Metrics
	logger      logging.Logger
	policy      PasswordPolicy

	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration

	now func() time.Time

	dummyMu   sync.Mutex
	dummyHash []byte
}

func NewUserService(deps UserServiceDeps, cfg *config.Config) *UserService {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = lockout.NewLimiter(nil, 0, 0)
	}
	return &UserService{
		repomanager: deps.Repos,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		limiter:     limiter,
		metrics:     deps.Metrics,
		logger:      deps.Logger.With("module", "user_service"),
		policy: PasswordPolicy{
			MinLength:    cfg.PasswordMinLength,
			MaxLength:    cfg.PasswordMaxLength,
			RequireMixed: cfg.PasswordRequireMixed,
		},
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Register validates the input, hashes the password and creates the user.
// common.ErrDuplicateUsername is returned unchanged.
func (s *UserService) Register(ctx context.Context, username, password, firstName string) (user *models.User, err error) {
	defer func() { s.metrics.Registration(metrics.Outcome(err)) }()

	if verr := s.validateRegistration(username, password, firstName); verr != nil {
		return nil, verr
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	user, err = s.repomanager.Users(s.repomanager.DB()).Create(ctx, &models.User{
		UserName:     username,
		PasswordHash: hash,
		FirstName:    firstName,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, s.internal(ctx, "create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and returns a token pair. Unknown users and
// wrong passwords both yield common.ErrInvalidCredentials after comparable
// work.
func (s *UserService) Login(ctx context.Context, username, password string) (pair *TokenPair, err error) {
	defer func() { s.metrics.Login(metrics.Outcome(err)) }()

	verr := common.NewValidationError()
	if strings.TrimSpace(username) == "" {
		verr.Add("user", "User is required")
	}
	if password == "" {
		verr.Add("password", "Password is required")
	}
	if !verr.Empty() {
		return nil, verr
	}

	if err := s.limiter.Check(ctx, username); err != nil {
		if errors.Is(err, common.ErrAccountLocked) {
			s.logger.Warn(ctx, "login blocked by lockout", "user", username)
			return nil, err
		}
		s.logger.Error(ctx, "lockout state unavailable", "error", err)
	}

	user, err := s.repomanager.Users(s.repomanager.DB()).FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, s.internal(ctx, "find user", err)
		}
		s.verifyDummy(ctx, password)
		return nil, s.loginFailed(ctx, username)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "verify password", err)
	}
	if !ok {
		return nil, s.loginFailed(ctx, username)
	}

	if err := s.limiter.Reset(ctx, username); err != nil {
		s.logger.Error(ctx, "reset lockout state", "error", err)
	}

	return s.issueTokenPair(ctx, s.repomanager.DB(), user.ID)
}

// RefreshToken exchanges a refresh token for a new pair. The presented token
// is consumed even when it turns out to be expired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		verr := common.NewValidationError()
		verr.Add("refresh_token", "Refresh token is required")
		return nil, verr
	}

	var (
		pair    *TokenPair
		expired bool
	)
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		stored, err := s.repomanager.RefreshTokens(tx).Consume(ctx, common.HashToken(refreshToken))
		if err != nil {
			return err
		}
		if !stored.ExpiresAt.After(s.now()) {
			expired = true
			return nil
		}
		pair, err = s.issueTokenPair(ctx, tx, stored.UserID)
		return err
	})

	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrInvalidCredentials
	case err != nil:
		if errors.Is(err, common.ErrorInternal) {
			return nil, err
		}
		return nil, s.internal(ctx, "consume refresh token", err)
	case expired:
		return nil, common.ErrRefreshTokenExpired
	}
	return pair, nil
}

// CurrentUser loads the account behind an authenticated subject. A subject
// that no longer exists yields common.ErrInvalidCredentials.
func (s *UserService) CurrentUser(ctx context.Context, subjectID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.repomanager.DB()).FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "find user by id", err)
	}
	return user, nil
}

// PurgeExpiredRefreshTokens deletes refresh tokens that can no longer be used.
func (s *UserService) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.repomanager.DB()).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, s.internal(ctx, "purge refresh tokens", err)
	}
	if n > 0 {
		s.logger.Debug(ctx, "purged expired refresh tokens", "count", n)
	}
	return n, nil
}

// --- helpers below ---

func (s *UserService) validateRegistration(username, password, firstName string) error {
	verr := common.NewValidationError()

	switch {
	case strings.TrimSpace(username) == "":
		verr.Add("user", "User is required")
	case utf8.RuneCountInString(username) > common.MaxNameLength:
		verr.Add("user", fmt.Sprintf("User must be at most %d characters", common.MaxNameLength))
	}

	if password == "" {
		verr.Add("password", "Password is required")
	} else if msg := s.policy.Check(password); msg != "" {
		verr.Add("password", msg)
	}

	if utf8.RuneCountInString(firstName) > common.MaxNameLength {
		verr.Add("first_name", fmt.Sprintf("First name must be at most %d characters", common.MaxNameLength))
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

func (s *UserService) loginFailed(ctx context.Context, username string) error {
	if err := s.limiter.RecordFailure(ctx, username); err != nil {
		if errors.Is(err, common.ErrAccountLocked) {
			s.logger.Warn(ctx, "account locked after failed logins", "user", username)
			return err
		}
		s.logger.Error(ctx, "record login failure", "error", err)
	}
	return common.ErrInvalidCredentials
}

// verifyDummy spends the same hashing effort as a real verification.
func (s *UserService) verifyDummy(ctx context.Context, password string) {
	if hash := s.dummy(ctx); hash != nil {
		_, _ = s.hasher.Verify(ctx, password, hash)
	}
}

// dummy returns the hash verified for unknown users, computing it on first
// use. The computation ignores cancellation of ctx, and a failed attempt is
// retried by the next caller.
func (s *UserService) dummy(ctx context.Context) []byte {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash == nil {
		hash, err := s.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
		if err != nil {
			s.logger.Error(ctx, "compute dummy hash", "error", err)
			return nil
		}
		s.dummyHash = hash
	}
	return s.dummyHash
}

func (s *UserService) issueTokenPair(ctx context.Context, db dbx.DBTX, userID string) (*TokenPair, error) {
	now := s.now()

	access, err := s.tokens.Issue(userID, s.accessTokenValidityDuration)
	if err != nil {
		return nil, s.internal(ctx, "issue access token", err)
	}
	// exp is stored in whole seconds
	pair := &TokenPair{AccessToken: access, ExpiresAt: now.Add(s.accessTokenValidityDuration).Truncate(time.Second)}

	if s.refreshTokenValidityDuration <= 0 {
		return pair, nil
	}

	refresh, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, s.internal(ctx, "generate refresh token", err)
	}
	expiresAt := now.Add(s.refreshTokenValidityDuration)
	if err := s.repomanager.RefreshTokens(db).Create(ctx, userID, common.HashToken(refresh), expiresAt); err != nil {
		return nil, s.internal(ctx, "store refresh token", err)
	}
	pair.RefreshToken = refresh

	return pair, nil
}

// internal logs err with its full chain and returns a generic error for the
// caller.
func (s *UserService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %s", common.ErrorInternal, op)
}
