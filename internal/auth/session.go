// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionTokenBytes is the amount of randomness in a session token.
const SessionTokenBytes = 32 // 32 bytes = 64 hex chars

// Session is an authenticated browser session.
type Session struct {
	// Token is the opaque value carried in the session cookie.
	Token     string
	UserID    ulid.ULID
	Email     string
	CreatedAt time.Time
	// ExpiresAt is zero for sessions that never expire.
	ExpiresAt time.Time
}

// NewSession creates a validated Session for the given token.
// A zero ttl yields a session without expiry.
func NewSession(token string, userID ulid.ULID, email string, ttl time.Duration) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_INVALID_TOKEN").Errorf("session token cannot be empty")
	}
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}

	now := time.Now()
	s := &Session{
		Token:     token,
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
	}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s, nil
}

// IsExpiredAt returns true if the session would be expired at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && t.After(s.ExpiresAt)
}

// GenerateSessionToken creates a random session token from crypto/rand.
func GenerateSessionToken() (string, error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

// HashSessionToken computes the SHA256 hash of a session token.
// Stores index sessions by this hash rather than by the token itself.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionStore maps session tokens to authenticated identities.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Create issues a new token for the user and stores the session.
	Create(ctx context.Context, userID ulid.ULID, email string) (*Session, error)

	// Get returns the session for a token.
	// Returns ErrNotFound if the token is unknown or expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes the session for a token. Deleting an unknown token is a no-op.
	Delete(ctx context.Context, token string) error
}
