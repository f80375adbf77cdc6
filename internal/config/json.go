package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/digitalchief/clientauth/internal/flagx"
	"github.com/digitalchief/clientauth/internal/timex"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// may be written either as strings like "15m" or as integer seconds via
// timex.Duration. Pointers distinguish "absent" from zero values so the
// overlay only touches fields the file actually sets.
type jsonConfig struct {
	BaseURL           *string         `json:"base_url"`
	ClientVersion     *string         `json:"client_version"`
	StatusInterval    *timex.Duration `json:"status_interval"`
	MaxStatusFailures *int            `json:"max_status_failures"`
	RetryDelay        *timex.Duration `json:"retry_delay"`
	RequestTimeout    *timex.Duration `json:"request_timeout"`
	StateFile         *string         `json:"state_file"`
	StateSalt         *string         `json:"state_salt"`
	StateFormat       *int            `json:"state_format"`
}

// parseJSON overlays cfg with values from the JSON file named by the
// -c/-config flag. No flag, no file read.
func parseJSON(cfg *Config) error {
	path := flagx.ConfigFilePath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.BaseURL != nil {
		cfg.BaseURL = *jc.BaseURL
	}
	if jc.ClientVersion != nil {
		cfg.ClientVersion = *jc.ClientVersion
	}
	if jc.StatusInterval != nil {
		cfg.StatusInterval = jc.StatusInterval.Duration
	}
	if jc.MaxStatusFailures != nil {
		cfg.MaxStatusFailures = *jc.MaxStatusFailures
	}
	if jc.RetryDelay != nil {
		cfg.RetryDelay = jc.RetryDelay.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.StateFile != nil {
		cfg.StateFile = *jc.StateFile
	}
	if jc.StateSalt != nil {
		cfg.StateSalt = *jc.StateSalt
	}
	if jc.StateFormat != nil {
		cfg.StateFormat = *jc.StateFormat
	}
	return nil
}
