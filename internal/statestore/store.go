// Package statestore persists a single encrypted authorization record on
// local disk.
//
// The file layout is a small JSON envelope:
//
//	{"version": <format>, "username": "<plain>", "payload": "<base64 ciphertext>"}
//
// The username is stored in the clear only so the per-username key can be
// re-derived on load; it is not itself secret. Any read, decode or
// decryption failure loads as "no cached state"; corruption must force
// re-authentication, never crash the caller.
package statestore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/digitalchief/clientauth/internal/cryptox"
	"github.com/digitalchief/clientauth/internal/models"
)

// Supported state-file formats.
const (
	// FormatStream is the legacy salted-SHA256 XOR construction kept for
	// state files written by older releases.
	FormatStream = 1
	// FormatSealed is argon2id + AES-GCM, the default for new saves.
	FormatSealed = 2
)

// DefaultSalt keys the state file when no deployment-specific salt is
// configured. It must stay stable across releases or existing state files
// become unreadable.
const DefaultSalt = "digital-chief-client-auth"

type envelope struct {
	Version  int    `json:"version"`
	Username string `json:"username"`
	Payload  string `json:"payload"`
}

// Store reads and writes one encrypted AuthState file. It is not safe for
// concurrent use by multiple processes; the file is assumed single-writer.
type Store struct {
	path   string
	salt   string
	format int
}

// New returns a Store writing the given format. An empty salt falls back
// to DefaultSalt; an unknown format falls back to FormatSealed.
func New(path, salt string, format int) *Store {
	if salt == "" {
		salt = DefaultSalt
	}
	if format != FormatStream && format != FormatSealed {
		format = FormatSealed
	}
	return &Store{path: path, salt: salt, format: format}
}

// Path returns the location of the state file.
func (s *Store) Path() string { return s.path }

// Save serializes, encrypts and atomically replaces the state file.
// The file is written with 0600 permissions.
func (s *Store) Save(state *models.AuthState) error {
	if !state.Valid() {
		return errors.New("refusing to persist an invalid authorization record")
	}

	plaintext, err := state.MarshalPayload()
	if err != nil {
		return err
	}

	var token string
	switch s.format {
	case FormatStream:
		key := cryptox.DeriveStreamKey(s.salt, state.Username)
		token = cryptox.StreamEncrypt(key, plaintext)
	default:
		key := cryptox.DeriveSealKey(s.salt, state.Username)
		token, err = cryptox.SealEncrypt(key, plaintext)
		if err != nil {
			return err
		}
	}

	blob, err := json.MarshalIndent(envelope{
		Version:  s.format,
		Username: state.Username,
		Payload:  token,
	}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o770); err != nil {
		return err
	}

	// Write-then-rename so a crash mid-save leaves the previous file
	// intact instead of a torn one.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".authstate-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		// chmod may be unsupported on some filesystems; the rename
		// below still leaves a usable file.
		_ = err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Load returns the cached record, or nil when the file is absent,
// unreadable, corrupted or structurally invalid.
func (s *Store) Load() *models.AuthState {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil
	}
	if env.Username == "" || env.Payload == "" {
		return nil
	}

	var plaintext []byte
	switch env.Version {
	case FormatStream:
		key := cryptox.DeriveStreamKey(s.salt, env.Username)
		plaintext, err = cryptox.StreamDecrypt(key, env.Payload)
	case FormatSealed:
		key := cryptox.DeriveSealKey(s.salt, env.Username)
		plaintext, err = cryptox.SealDecrypt(key, env.Payload)
	default:
		return nil
	}
	if err != nil {
		return nil
	}

	state, err := models.UnmarshalPayload(plaintext)
	if err != nil {
		return nil
	}
	if !state.Valid() {
		return nil
	}
	return state
}

// Clear removes the state file. Removing an already absent file is not an
// error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
