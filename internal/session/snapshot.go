package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"safeclient/internal/domain"
)

// snapshot is the persisted text form. Binary fields are standard base64.
type snapshot struct {
	Token     string `json:"token,omitempty"`
	SharedKey string `json:"sharedKey,omitempty"`
	NonceSeed string `json:"nonceSeed,omitempty"`
}

var (
	errPartialSnapshot = errors.New("snapshot: token, sharedKey and nonceSeed must be set together")
	errEmptySnapshot   = errors.New("snapshot: empty input")
)

// Marshal serializes the current session. An empty store marshals to "{}".
func (s *Store) Marshal() (string, error) {
	m, ok := s.Current()
	if !ok {
		return "{}", nil
	}
	return Marshal(m)
}

// Unmarshal parses text and installs the result, or clears the store when the
// snapshot is empty. A malformed snapshot leaves the store untouched.
func (s *Store) Unmarshal(text string) error {
	m, ok, err := Unmarshal(text)
	if err != nil {
		return err
	}
	if !ok {
		s.Clear()
		return nil
	}
	s.Install(m)
	return nil
}

// Marshal serializes m.
func Marshal(m domain.Material) (string, error) {
	b, err := json.Marshal(snapshot{
		Token:     m.Token,
		SharedKey: base64.StdEncoding.EncodeToString(m.SharedKey[:]),
		NonceSeed: base64.StdEncoding.EncodeToString(m.NonceSeed),
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Unmarshal parses a snapshot. ok is false for the empty session "{}".
// Malformed input is reported as *domain.ConfigError.
func Unmarshal(text string) (m domain.Material, ok bool, err error) {
	if text == "" {
		return m, false, &domain.ConfigError{Err: errEmptySnapshot}
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		return m, false, &domain.ConfigError{Err: fmt.Errorf("snapshot: %w", err)}
	}
	if snap == (snapshot{}) {
		return m, false, nil
	}
	if snap.Token == "" || snap.SharedKey == "" || snap.NonceSeed == "" {
		return m, false, &domain.ConfigError{Err: errPartialSnapshot}
	}

	key, err := base64.StdEncoding.DecodeString(snap.SharedKey)
	if err != nil {
		return m, false, &domain.ConfigError{Err: fmt.Errorf("snapshot: sharedKey: %w", err)}
	}
	if len(key) != domain.SharedKeySize {
		return m, false, &domain.ConfigError{Err: fmt.Errorf("snapshot: sharedKey: want %d bytes, got %d", domain.SharedKeySize, len(key))}
	}
	seed, err := base64.StdEncoding.DecodeString(snap.NonceSeed)
	if err != nil {
		return m, false, &domain.ConfigError{Err: fmt.Errorf("snapshot: nonceSeed: %w", err)}
	}

	m.Token = snap.Token
	copy(m.SharedKey[:], key)
	m.NonceSeed = seed
	return m, true, nil
}
