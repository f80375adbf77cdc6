package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthState_Active(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"active", true},
		{"Active", true},
		{"ACTIVE", true},
		{"disabled", false},
		{"expired", false},
		{"", false},
	}
	for _, tt := range tests {
		s := &AuthState{AccountStatus: tt.status}
		assert.Equalf(t, tt.want, s.Active(), "status %q", tt.status)
	}
}

func TestAuthState_Valid(t *testing.T) {
	exp := time.Now().Add(time.Hour)

	assert.True(t, (&AuthState{AccessToken: "tok", ExpiresAt: exp}).Valid())
	assert.False(t, (&AuthState{ExpiresAt: exp}).Valid(), "empty token")
	assert.False(t, (&AuthState{AccessToken: "tok"}).Valid(), "missing expiry")

	var nilState *AuthState
	assert.False(t, nilState.Valid())
}

func TestAuthState_PayloadRoundTrip(t *testing.T) {
	now := time.Date(2024, 11, 16, 12, 0, 0, 0, time.UTC)
	original := &AuthState{
		Username:      "alice",
		AccessToken:   "tok-123",
		ExpiresAt:     now.Add(2 * time.Hour),
		AccountStatus: "active",
		ServerTime:    now,
		Message:       "ok",
	}

	data, err := original.MarshalPayload()
	require.NoError(t, err)

	restored, err := UnmarshalPayload(data)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestUnmarshalPayload_DefaultsStatus(t *testing.T) {
	restored, err := UnmarshalPayload([]byte(`{"username":"alice","access_token":"tok","expires_at":"2024-11-16T12:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, StatusActive, restored.AccountStatus)
	assert.True(t, restored.ServerTime.IsZero())
}

func TestUnmarshalPayload_Garbage(t *testing.T) {
	_, err := UnmarshalPayload([]byte("not json at all"))
	assert.Error(t, err)
}
