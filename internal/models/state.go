// Package models defines the authorization record shared by the store,
// the HTTP client and the status monitor.
package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/digitalchief/clientauth/internal/timex"
)

// StatusActive is the only account status that permits the tool to run.
// Anything else reported by the service is treated as revoked.
const StatusActive = "active"

// AuthState is the in-memory authorization record. Exactly one record is
// current at a time; a successful login or status check replaces it whole.
type AuthState struct {
	Username      string
	AccessToken   string
	ExpiresAt     time.Time
	AccountStatus string
	ServerTime    time.Time // zero when the response carried no server clock
	Message       string
}

// Active reports whether the record's account status permits running.
func (s *AuthState) Active() bool {
	return strings.EqualFold(s.AccountStatus, StatusActive)
}

// Valid reports whether the record is structurally usable. A record
// without a token or expiry must never be trusted or persisted.
func (s *AuthState) Valid() bool {
	return s != nil && s.AccessToken != "" && !s.ExpiresAt.IsZero()
}

// Clone returns a copy so callers can hold a snapshot while the client
// replaces its current record.
func (s *AuthState) Clone() *AuthState {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// statePayload is the serialized form stored inside the encrypted blob.
type statePayload struct {
	Username      string          `json:"username"`
	AccessToken   string          `json:"access_token"`
	ExpiresAt     timex.Timestamp `json:"expires_at"`
	AccountStatus string          `json:"account_status"`
	ServerTime    timex.Timestamp `json:"server_time,omitempty"`
	Message       string          `json:"message,omitempty"`
}

// MarshalPayload serializes the record for encryption.
func (s *AuthState) MarshalPayload() ([]byte, error) {
	return json.Marshal(statePayload{
		Username:      s.Username,
		AccessToken:   s.AccessToken,
		ExpiresAt:     timex.NewTimestamp(s.ExpiresAt),
		AccountStatus: s.AccountStatus,
		ServerTime:    timex.NewTimestamp(s.ServerTime),
		Message:       s.Message,
	})
}

// UnmarshalPayload restores a record from a decrypted payload. A missing
// account status defaults to active, matching what old state files held.
func UnmarshalPayload(data []byte) (*AuthState, error) {
	var p statePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	status := p.AccountStatus
	if status == "" {
		status = StatusActive
	}
	return &AuthState{
		Username:      p.Username,
		AccessToken:   p.AccessToken,
		ExpiresAt:     p.ExpiresAt.Time,
		AccountStatus: status,
		ServerTime:    p.ServerTime.Time,
		Message:       p.Message,
	}, nil
}
