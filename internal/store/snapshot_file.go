package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"safeclient/internal/domain"
)

const snapshotMode = 0o600

var errSealedNoPassphrase = errors.New("snapshot is passphrase-protected; no passphrase given")

// SnapshotFile keeps one session snapshot on disk. With a passphrase the
// snapshot is sealed (scrypt + ChaCha20-Poly1305); without one it is written
// as plain JSON, readable only by the owner.
type SnapshotFile struct {
	path       string
	passphrase string
	mu         sync.Mutex
}

var _ domain.SnapshotStore = (*SnapshotFile)(nil)

func NewSnapshotFile(path, passphrase string) *SnapshotFile {
	return &SnapshotFile{path: path, passphrase: passphrase}
}

// Path returns the file location.
func (f *SnapshotFile) Path() string { return f.path }

// Load returns the stored snapshot. ok is false when no file exists. A file
// that cannot be opened with the configured passphrase is a
// *domain.ConfigError.
func (f *SnapshotFile) Load() (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := readFile(f.path)
	if err != nil {
		return "", false, fmt.Errorf("read snapshot %s: %w", f.path, err)
	}
	if len(b) == 0 {
		return "", false, nil
	}
	if !sealed(b) {
		return strings.TrimSpace(string(b)), true, nil
	}
	if f.passphrase == "" {
		return "", false, &domain.ConfigError{Err: errSealedNoPassphrase}
	}
	pt, err := unseal(f.passphrase, b)
	if err != nil {
		return "", false, &domain.ConfigError{Err: fmt.Errorf("open snapshot %s: %w", f.path, err)}
	}
	return string(pt), true, nil
}

// Save replaces the stored snapshot atomically.
func (f *SnapshotFile) Save(snapshot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []byte(snapshot)
	if f.passphrase != "" {
		N, r, p := scryptParamsDefault()
		b, err := seal(f.passphrase, out, N, r, p)
		if err != nil {
			return fmt.Errorf("seal snapshot: %w", err)
		}
		out = b
	}
	if err := replaceFile(f.path, out, snapshotMode); err != nil {
		return fmt.Errorf("write snapshot %s: %w", f.path, err)
	}
	return nil
}
