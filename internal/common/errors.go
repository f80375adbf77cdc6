// Package common defines shared constants and sentinel errors used across
// the client authorization components. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Client lifecycle errors.
	ErrNotAuthenticated = errors.New("access token is missing, login first")
	ErrMonitorFinished  = errors.New("status monitor already stopped")

	// Credential collection errors.
	ErrMissingUsername = errors.New("authorization username was not provided")
	ErrMissingPassword = errors.New("authorization password was not provided")

	// Configuration errors.
	ErrMissingBaseURL = errors.New("authorization service base URL must be provided")
)
