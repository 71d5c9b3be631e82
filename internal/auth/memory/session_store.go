// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/userportal/userportal/internal/auth"
)

// SessionStore implements auth.SessionStore with a mutex-guarded map keyed
// by the SHA256 hash of each token. Plaintext tokens are not retained.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]auth.Session
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithTTL makes sessions expire ttl after creation. Zero disables expiry.
func WithTTL(ttl time.Duration) SessionOption {
	return func(s *SessionStore) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		s.now = now
	}
}

// WithTokenGenerator overrides the token source.
func WithTokenGenerator(gen func() (string, error)) SessionOption {
	return func(s *SessionStore) {
		s.newToken = gen
	}
}

// NewSessionStore creates an empty SessionStore. Sessions never expire
// unless WithTTL is given.
func NewSessionStore(opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]auth.Session),
		now:      time.Now,
		newToken: auth.GenerateSessionToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create issues a new token and stores the session under its hash.
func (s *SessionStore) Create(_ context.Context, userID ulid.ULID, email string) (*auth.Session, error) {
	token, err := s.newToken()
	if err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "generate token").
			Wrap(err)
	}

	session, err := auth.NewSession(token, userID, email, s.ttl)
	if err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "build session").
			Wrap(err)
	}
	session.CreatedAt = s.now()
	if s.ttl > 0 {
		session.ExpiresAt = session.CreatedAt.Add(s.ttl)
	}

	key := auth.HashSessionToken(token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[key]; exists {
		return nil, oops.Code("SESSION_TOKEN_COLLISION").
			Errorf("generated session token already in use")
	}
	stored := *session
	stored.Token = ""
	s.sessions[key] = stored

	return session, nil
}

// Get returns the session for a token, or auth.ErrNotFound.
func (s *SessionStore) Get(_ context.Context, token string) (*auth.Session, error) {
	key := auth.HashSessionToken(token)

	s.mu.RLock()
	session, ok := s.sessions[key]
	s.mu.RUnlock()

	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if session.IsExpiredAt(s.now()) {
		s.mu.Lock()
		// Re-check under the write lock; the entry may have been replaced.
		if current, still := s.sessions[key]; still && current.IsExpiredAt(s.now()) {
			delete(s.sessions, key)
		}
		s.mu.Unlock()
		return nil, oops.Code("SESSION_NOT_FOUND").
			With("reason", "expired").
			Wrap(auth.ErrNotFound)
	}

	session.Token = token
	return &session, nil
}

// Delete removes the session for a token. Unknown tokens are ignored.
func (s *SessionStore) Delete(_ context.Context, token string) error {
	key := auth.HashSessionToken(token)

	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	return nil
}

// DeleteExpired removes every expired session and returns how many were removed.
func (s *SessionStore) DeleteExpired(_ context.Context) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, session := range s.sessions {
		if session.IsExpiredAt(now) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
// It returns immediately when the store has no TTL.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.DeleteExpired(ctx)
		}
	}
}

// Compile-time interface check.
var _ auth.SessionStore = (*SessionStore)(nil)
