package authclient

import (
	"errors"
	"fmt"
)

// The error taxonomy mirrors how failures must be handled:
//
//   - NetworkError: transport failure or timeout. Retriable; never by
//     itself proof of revocation.
//   - RevokedError: authoritative "not allowed to proceed" (HTTP 401, an
//     inactive account status, or local expiry). Terminal.
//   - ProtocolError: malformed response or any other non-2xx. Not
//     retriable; the monitor fails closed on it because the cause is
//     ambiguous.

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RevokedError signals that the session must no longer be trusted.
// Message is short and human-readable, suitable for the operator.
type RevokedError struct {
	Message string
}

func (e *RevokedError) Error() string { return e.Message }

// ProtocolError covers malformed responses and unexpected HTTP statuses.
type ProtocolError struct {
	StatusCode int
	Message    string
}

func (e *ProtocolError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// IsNetworkError reports whether err is (or wraps) a retriable transport
// failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsRevoked reports whether err is (or wraps) an authoritative
// revocation.
func IsRevoked(err error) bool {
	var re *RevokedError
	return errors.As(err, &re)
}

// revocationMessage extracts the operator-facing text from a terminal
// error.
func revocationMessage(err error) string {
	var re *RevokedError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
