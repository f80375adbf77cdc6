package config

import (
	"os"
	"strconv"
	"time"
)

// lookupEnv is a test seam for os.LookupEnv.
var lookupEnv = os.LookupEnv

// parseEnv overlays cfg with CLIENT_AUTH_* environment variables. Bad
// numeric values are ignored rather than fatal: the deployment scripts
// that set these are not always trustworthy, and flags can still correct
// them.
func parseEnv(cfg *Config) {
	if v, ok := lookupEnv("CLIENT_AUTH_BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := lookupEnv("CLIENT_AUTH_CLIENT_VERSION"); ok {
		cfg.ClientVersion = v
	}
	if v, ok := lookupEnv("CLIENT_AUTH_STATUS_INTERVAL"); ok {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.StatusInterval = time.Duration(secs) * time.Second
		}
	}
	if v, ok := lookupEnv("CLIENT_AUTH_MAX_STATUS_FAILURES"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxStatusFailures = n
		}
	}
	if v, ok := lookupEnv("CLIENT_AUTH_RETRY_DELAY"); ok {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.RetryDelay = time.Duration(secs) * time.Second
		}
	}
	if v, ok := lookupEnv("CLIENT_AUTH_REQUEST_TIMEOUT"); ok {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if v, ok := lookupEnv("CLIENT_AUTH_STATE_FILE"); ok {
		cfg.StateFile = v
	}
	if v, ok := lookupEnv("CLIENT_AUTH_STATE_SALT"); ok {
		cfg.StateSalt = v
	}
}
