package session

import (
	"sync"

	"safeclient/internal/domain"
	"safeclient/internal/util/memzero"
)

// Store holds the current session material, or none. Install and Clear swap the
// whole value under the lock, so a reader sees either a complete session or an
// empty one.
type Store struct {
	mu  sync.RWMutex
	cur *domain.Material
}

func NewStore() *Store { return &Store{} }

// Current returns a copy of the installed material.
func (s *Store) Current() (domain.Material, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return domain.Material{}, false
	}
	return s.cur.Clone(), true
}

// Token returns the session token, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.Token
}

// Authenticated reports whether material is installed.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur != nil
}

// Install replaces the session with m as one unit.
func (s *Store) Install(m domain.Material) {
	c := m.Clone()
	s.mu.Lock()
	old := s.cur
	s.cur = &c
	s.mu.Unlock()
	wipe(old)
}

// Clear drops the session.
func (s *Store) Clear() {
	s.mu.Lock()
	old := s.cur
	s.cur = nil
	s.mu.Unlock()
	wipe(old)
}

// wipe zeroes material no reader can reach any more; readers only ever hold clones.
func wipe(m *domain.Material) {
	if m == nil {
		return
	}
	memzero.All(m.SharedKey[:], m.NonceSeed)
}
