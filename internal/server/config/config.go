// Package config loads server settings from defaults, an optional JSON or YAML
// file, GOPHAUTH_* environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// Hash algorithm names accepted by HashAlgorithm.
const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

const bcryptMaxPasswordBytes = 72

// Config holds runtime settings for the gophauth server.
//
// An empty DatabaseDSN selects the in-memory store and an empty RedisURL keeps
// lockout counters in process. LockoutThreshold 0 disables lockout and
// RefreshTokenValidityDuration 0 disables refresh tokens.
type Config struct {
	EndpointAddrGRPC string `env:"GRPC_ADDR"`
	EndpointAddrHTTP string `env:"HTTP_ADDR"`
	DatabaseDSN      string `env:"DATABASE_DSN"`
	RedisURL         string `env:"REDIS_URL"`
	LogLevel         string `env:"LOG_LEVEL"`

	SecretKey                    string        `env:"SECRET_KEY"`
	TokenIssuer                  string        `env:"TOKEN_ISSUER"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL"`
	ClockSkew                    time.Duration `env:"CLOCK_SKEW"`

	HashAlgorithm string `env:"HASH_ALGORITHM"`
	BcryptCost    int    `env:"BCRYPT_COST"`
	HashWorkers   int    `env:"HASH_WORKERS"`

	PasswordMinLength    int  `env:"PASSWORD_MIN_LENGTH"`
	PasswordMaxLength    int  `env:"PASSWORD_MAX_LENGTH"`
	PasswordRequireMixed bool `env:"PASSWORD_REQUIRE_MIXED"`

	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD"`
	LockoutWindow    time.Duration `env:"LOCKOUT_WINDOW"`
}

// DevSecretKey is the signing secret LoadDefaults sets. It is public, so a
// server still using it accepts tokens anyone can forge.
const DevSecretKey = "secretKey"

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key must be overridden outside local development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.RedisURL = ""
	c.LogLevel = "info"
	c.SecretKey = DevSecretKey
	c.TokenIssuer = "gophauth"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.ClockSkew = 0
	c.HashAlgorithm = HashBcrypt
	c.BcryptCost = 10
	c.HashWorkers = runtime.NumCPU()
	c.PasswordMinLength = 1
	c.PasswordMaxLength = 72
	c.PasswordRequireMixed = false
	c.LockoutThreshold = 0
	c.LockoutWindow = 15 * time.Minute
}

// UsesDevSecret reports whether tokens would be signed with DevSecretKey.
func (c *Config) UsesDevSecret() bool {
	return c.SecretKey == DevSecretKey
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token ttl must be positive"))
	}
	if c.RefreshTokenValidityDuration < 0 {
		errs = append(errs, errors.New("refresh token ttl must not be negative"))
	}
	if c.ClockSkew < 0 {
		errs = append(errs, errors.New("clock skew must not be negative"))
	}
	if c.HashAlgorithm != HashBcrypt && c.HashAlgorithm != HashArgon2id {
		errs = append(errs, fmt.Errorf("unsupported hash algorithm %q", c.HashAlgorithm))
	}
	if c.HashWorkers < 1 {
		errs = append(errs, errors.New("hash workers must be at least 1"))
	}
	if c.PasswordMinLength < 1 || c.PasswordMaxLength < c.PasswordMinLength {
		errs = append(errs, fmt.Errorf("invalid password length bounds [%d, %d]", c.PasswordMinLength, c.PasswordMaxLength))
	}
	if c.HashAlgorithm == HashBcrypt && c.PasswordMaxLength > bcryptMaxPasswordBytes {
		errs = append(errs, fmt.Errorf("bcrypt accepts at most %d password bytes", bcryptMaxPasswordBytes))
	}
	if c.LockoutThreshold < 0 {
		errs = append(errs, errors.New("lockout threshold must not be negative"))
	}
	if c.LockoutThreshold > 0 && c.LockoutWindow <= 0 {
		errs = append(errs, errors.New("lockout window must be positive when lockout is enabled"))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, then the optional config file,
// then the environment and finally command-line flags, and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
