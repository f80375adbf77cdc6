package statestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/digitalchief/clientauth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState(username string) *models.AuthState {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.AuthState{
		Username:      username,
		AccessToken:   "sample-token",
		ExpiresAt:     now.Add(2 * time.Hour),
		AccountStatus: "active",
		ServerTime:    now,
		Message:       "ok",
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, format := range map[string]int{"stream": FormatStream, "sealed": FormatSealed} {
		t.Run(name, func(t *testing.T) {
			store := New(filepath.Join(t.TempDir(), "state.json"), "unit-test-salt", format)
			original := sampleState("demo-user")

			require.NoError(t, store.Save(original))

			loaded := store.Load()
			require.NotNil(t, loaded)
			assert.Equal(t, original.Username, loaded.Username)
			assert.Equal(t, original.AccessToken, loaded.AccessToken)
			assert.Equal(t, original.AccountStatus, loaded.AccountStatus)
			assert.Equal(t, original.Message, loaded.Message)
			assert.WithinDuration(t, original.ExpiresAt, loaded.ExpiresAt, time.Second)
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "state.json"), "unit-test-salt", FormatSealed)

	require.NoError(t, store.Save(sampleState("first")))
	require.NoError(t, store.Save(sampleState("second")))

	loaded := store.Load()
	require.NotNil(t, loaded)
	assert.Equal(t, "second", loaded.Username)
}

func TestStore_ClearIsDestructiveAndIdempotent(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "state.json"), "unit-test-salt", FormatSealed)

	require.NoError(t, store.Save(sampleState("demo-user")))
	require.NotNil(t, store.Load())

	require.NoError(t, store.Clear())
	assert.Nil(t, store.Load())

	// Clearing again must not error.
	require.NoError(t, store.Clear())
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "state.json"), "unit-test-salt", FormatSealed)
	assert.Nil(t, store.Load())
}

func TestStore_CorruptionIsSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := New(path, "unit-test-salt", FormatSealed)

	cases := map[string][]byte{
		"garbage bytes":    []byte("\x00\x01garbage"),
		"non-json":         []byte("hello world"),
		"empty file":       {},
		"missing payload":  []byte(`{"version":2,"username":"demo-user"}`),
		"missing username": []byte(`{"version":2,"payload":"abc"}`),
		"unknown version":  []byte(`{"version":9,"username":"demo-user","payload":"abc"}`),
		"bad base64":       []byte(`{"version":2,"username":"demo-user","payload":"%%%"}`),
	}

	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(path, blob, 0o600))
			assert.Nil(t, store.Load())
		})
	}
}

func TestStore_TamperedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := New(path, "unit-test-salt", FormatSealed)
	require.NoError(t, store.Save(sampleState("demo-user")))

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	var env map[string]any
	require.NoError(t, json.Unmarshal(blob, &env))
	env["payload"] = "AAAA" + env["payload"].(string)[4:]
	blob, err = json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	assert.Nil(t, store.Load())
}

func TestStore_WrongSalt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, New(path, "salt-one", FormatSealed).Save(sampleState("demo-user")))

	assert.Nil(t, New(path, "salt-two", FormatSealed).Load())
}

func TestStore_RefusesInvalidRecord(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "state.json"), "unit-test-salt", FormatSealed)

	err := store.Save(&models.AuthState{Username: "demo-user"})
	assert.Error(t, err)
	assert.Nil(t, store.Load())
}

func TestStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}

	path := filepath.Join(t.TempDir(), "state.json")
	store := New(path, "unit-test-salt", FormatSealed)
	require.NoError(t, store.Save(sampleState("demo-user")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_StreamFormatBackwardCompatible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	// Written by an older release with the stream cipher.
	require.NoError(t, New(path, "unit-test-salt", FormatStream).Save(sampleState("demo-user")))

	// A store configured for the sealed format still reads it: the
	// envelope version, not the configured default, selects the cipher.
	loaded := New(path, "unit-test-salt", FormatSealed).Load()
	require.NotNil(t, loaded)
	assert.Equal(t, "demo-user", loaded.Username)
}
