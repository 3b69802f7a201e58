// Package webui provides the HTTP surface for PaintFlow.
// This file contains the session store molecule backing bearer-token auth.
package webui

import (
	"context"
	"errors"
	"sync"
	"time"

	"paintflow/core"
)

// ErrSessionNotFound is returned when a token is not in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired is returned when a session exists but has expired.
var ErrSessionExpired = errors.New("session expired")

// SessionStore manages bearer-token sessions with thread-safe operations.
//
// Molecule composition:
//   - core.Session: session data with owner and expiry tracking
//   - core.GenerateSessionToken: cryptographically secure token generation
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]core.Session
	ttl      time.Duration
}

// NewSessionStore creates a SessionStore whose sessions expire after ttl.
// Use core.DefaultSessionDuration for the standard 24h.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]core.Session),
		ttl:      ttl,
	}
}

// Create mints a session for the given user and returns it. The session
// token is the bearer credential handed back to the client.
func (s *SessionStore) Create(userID int64) (core.Session, error) {
	token, err := core.GenerateSessionToken()
	if err != nil {
		return core.Session{}, err
	}

	session := core.NewSession(token, userID, s.ttl)

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session, nil
}

// Get retrieves a session by token. Returns ErrSessionNotFound for unknown
// tokens and ErrSessionExpired for expired ones; expired sessions are
// removed on lookup.
func (s *SessionStore) Get(token string) (core.Session, error) {
	s.mu.RLock()
	session, exists := s.sessions[token]
	s.mu.RUnlock()

	if !exists {
		return core.Session{}, ErrSessionNotFound
	}

	if session.IsExpired() {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return core.Session{}, ErrSessionExpired
	}

	return session, nil
}

// Delete removes a session. Idempotent; used for logout.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Count returns the number of stored sessions, expired or not.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions and returns how many were removed.
func (s *SessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, token)
			removed++
		}
	}

	return removed
}

// StartCleanupTicker runs Cleanup every interval until ctx is cancelled.
func (s *SessionStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}
