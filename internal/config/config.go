// Package config assembles client settings from defaults, an optional
// JSON file, environment variables and command-line flags, in that order
// (later sources win).
package config

import (
	"time"

	"github.com/digitalchief/clientauth/internal/common"
	"github.com/digitalchief/clientauth/internal/statestore"
)

// Config holds runtime settings for the authorization client.
type Config struct {
	// BaseURL is the origin of the authorization service, e.g.
	// "https://auth.example.com". Required.
	BaseURL string

	// ClientVersion is reported to the service on login.
	ClientVersion string

	// StatusInterval is how often the monitor rechecks authorization.
	StatusInterval time.Duration

	// MaxStatusFailures is how many consecutive network failures the
	// monitor tolerates before emitting a warning.
	MaxStatusFailures int

	// RetryDelay is the extra wait after a failed status check.
	RetryDelay time.Duration

	// RequestTimeout bounds each HTTP call.
	RequestTimeout time.Duration

	// StateFile is the path of the encrypted local state file.
	StateFile string

	// StateSalt keys the state-file encryption. Empty means the
	// built-in default.
	StateSalt string

	// StateFormat selects the state-file cipher (statestore.FormatStream
	// or statestore.FormatSealed).
	StateFormat int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ClientVersion = "1.0.0"
	c.StatusInterval = 15 * time.Minute
	c.MaxStatusFailures = 3
	c.RetryDelay = 10 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.StateFile = "data/auth_state.json"
	c.StateFormat = statestore.FormatSealed
}

// Normalize enforces floors so a misconfigured deployment can neither
// hammer the service nor hang on slow networks, then validates required
// fields.
func (c *Config) Normalize() error {
	if c.StatusInterval < 30*time.Second {
		c.StatusInterval = 30 * time.Second
	}
	if c.MaxStatusFailures < 1 {
		c.MaxStatusFailures = 1
	}
	if c.RetryDelay < time.Second {
		c.RetryDelay = time.Second
	}
	if c.RequestTimeout < 5*time.Second {
		c.RequestTimeout = 5 * time.Second
	}
	if c.BaseURL == "" {
		return common.ErrMissingBaseURL
	}
	return nil
}

// Load constructs a Config from all sources. Overlay order: defaults,
// JSON file (if -c/-config given), environment, flags.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg); err != nil {
		return nil, err
	}
	parseEnv(cfg)
	parseFlags(cfg)
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}
