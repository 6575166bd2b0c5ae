// Package config loads settings for the gophauth CLI client from defaults,
// an optional JSON or YAML file and GOPHAUTH_CLIENT_* environment variables.
// Command-line flags are bound by the cli package on top of the result.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "GOPHAUTH_CLIENT_"

type Config struct {
	ServerEndpointAddr string        `env:"SERVER_ADDR"`
	SessionDBPath      string        `env:"SESSION_DB"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
}

// FileConfig is the on-disk shape of the client config file.
type FileConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	SessionDBPath      string         `json:"session_db_path" yaml:"session_db_path"`
	RequestTimeout     timex.Duration `json:"request_timeout" yaml:"request_timeout"`
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionDBPath = "gophauth-session.db"
	c.RequestTimeout = 10 * time.Second
}

// Load applies defaults, then the file at path (if not empty), then the
// environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{
		ServerEndpointAddr: c.ServerEndpointAddr,
		SessionDBPath:      c.SessionDBPath,
		RequestTimeout:     timex.Duration{Duration: c.RequestTimeout},
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	c.ServerEndpointAddr = fc.ServerEndpointAddr
	c.SessionDBPath = fc.SessionDBPath
	c.RequestTimeout = fc.RequestTimeout.Duration
	return nil
}
