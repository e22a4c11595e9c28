package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Session errors.
var (
	// ErrNotAuthenticated is returned locally when a request needs a session
	// token or shared key and none is installed. No request is sent.
	ErrNotAuthenticated = errors.New("session: not authenticated")

	// ErrDecrypt indicates a response body could not be opened with the shared key.
	ErrDecrypt = errors.New("session: failed to decrypt response")

	// ErrInvalidHandshakeKeys indicates caller-supplied handshake keys are incomplete.
	ErrInvalidHandshakeKeys = errors.New("session: handshake keys incomplete")
)

// Category sentinels matched through errors.Is on the typed errors below.
var (
	ErrNetwork = errors.New("network failure")
	ErrAuth    = errors.New("authentication failed")
	ErrConfig  = errors.New("invalid configuration")
)

// NetworkError means the transport failed before any response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// APIError is any non-2xx launcher response. Body is the raw, undecrypted body.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("launcher: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("launcher: %d %s: %s", e.Status, http.StatusText(e.Status), truncate(e.Body, 200))
}

// IsUnauthorized reports the one status the session layer interprets itself.
func (e *APIError) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }

// AuthError is fatal to a single handshake attempt.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string        { return fmt.Sprintf("auth: %v", e.Err) }
func (e *AuthError) Unwrap() error        { return e.Err }
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// ConfigError reports malformed configuration or a malformed session snapshot.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string        { return fmt.Sprintf("config: %v", e.Err) }
func (e *ConfigError) Unwrap() error        { return e.Err }
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// IsUnauthorized reports whether err carries a 401 APIError.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
