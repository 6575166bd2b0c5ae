package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type FileConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP string `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN      string `json:"database_dsn" yaml:"database_dsn"`
	RedisURL         string `json:"redis_url" yaml:"redis_url"`
	LogLevel         string `json:"log_level" yaml:"log_level"`

	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	TokenIssuer                  string         `json:"token_issuer" yaml:"token_issuer"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	ClockSkew                    timex.Duration `json:"clock_skew" yaml:"clock_skew"`

	HashAlgorithm string `json:"hash_algorithm" yaml:"hash_algorithm"`
	BcryptCost    int    `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	HashWorkers   int    `json:"hash_workers" yaml:"hash_workers"`

	PasswordMinLength    int  `json:"password_min_length" yaml:"password_min_length"`
	PasswordMaxLength    int  `json:"password_max_length" yaml:"password_max_length"`
	PasswordRequireMixed bool `json:"password_require_mixed" yaml:"password_require_mixed"`

	LockoutThreshold int            `json:"lockout_threshold" yaml:"lockout_threshold"`
	LockoutWindow    timex.Duration `json:"lockout_window" yaml:"lockout_window"`
}

func fileConfigFrom(c *Config) *FileConfig {
	return &FileConfig{
		EndpointAddrGRPC:             c.EndpointAddrGRPC,
		EndpointAddrHTTP:             c.EndpointAddrHTTP,
		DatabaseDSN:                  c.DatabaseDSN,
		RedisURL:                     c.RedisURL,
		LogLevel:                     c.LogLevel,
		SecretKey:                    c.SecretKey,
		TokenIssuer:                  c.TokenIssuer,
		AccessTokenValidityDuration:  timex.Duration{Duration: c.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: c.RefreshTokenValidityDuration},
		ClockSkew:                    timex.Duration{Duration: c.ClockSkew},
		HashAlgorithm:                c.HashAlgorithm,
		BcryptCost:                   c.BcryptCost,
		HashWorkers:                  c.HashWorkers,
		PasswordMinLength:            c.PasswordMinLength,
		PasswordMaxLength:            c.PasswordMaxLength,
		PasswordRequireMixed:         c.PasswordRequireMixed,
		LockoutThreshold:             c.LockoutThreshold,
		LockoutWindow:                timex.Duration{Duration: c.LockoutWindow},
	}
}

func (f *FileConfig) apply(c *Config) {
	c.EndpointAddrGRPC = f.EndpointAddrGRPC
	c.EndpointAddrHTTP = f.EndpointAddrHTTP
	c.DatabaseDSN = f.DatabaseDSN
	c.RedisURL = f.RedisURL
	c.LogLevel = f.LogLevel
	c.SecretKey = f.SecretKey
	c.TokenIssuer = f.TokenIssuer
	c.AccessTokenValidityDuration = f.AccessTokenValidityDuration.Duration
	c.RefreshTokenValidityDuration = f.RefreshTokenValidityDuration.Duration
	c.ClockSkew = f.ClockSkew.Duration
	c.HashAlgorithm = f.HashAlgorithm
	c.BcryptCost = f.BcryptCost
	c.HashWorkers = f.HashWorkers
	c.PasswordMinLength = f.PasswordMinLength
	c.PasswordMaxLength = f.PasswordMaxLength
	c.PasswordRequireMixed = f.PasswordRequireMixed
	c.LockoutThreshold = f.LockoutThreshold
	c.LockoutWindow = f.LockoutWindow.Duration
}

// parseFile overlays the file named by -c/-config. Keys missing from the file
// keep their current values. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON.
func parseFile(cfg *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fileConfigFrom(cfg)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}
