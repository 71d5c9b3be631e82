// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/userportal/userportal/pkg/errutil"
)

// Service provides authentication operations.
type Service struct {
	users    UserRepository
	sessions SessionStore
	hasher   PasswordHasher
	logger   *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new Service that logs to slog.Default().
func NewAuthService(users UserRepository, sessions SessionStore, hasher PasswordHasher) (*Service, error) {
	return NewAuthServiceWithLogger(users, sessions, hasher, slog.Default())
}

// NewAuthServiceWithLogger creates a new Service with an explicit logger.
func NewAuthServiceWithLogger(users UserRepository, sessions SessionStore, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("session store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("logger is required")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}, nil
}

// dummyPlaintext is hashed once to obtain a digest for logins against
// unknown emails, so they cost the same bcrypt work as real ones.
const dummyPlaintext = "userportal-timing-equalizer"

func (s *Service) dummyDigest() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPlaintext)
		if err != nil {
			s.logger.Warn("failed to prepare dummy password digest", "error", err)
			return
		}
		s.dummyHash = digest
	})
	return s.dummyHash
}

// Register validates the form and creates a new user. No session is created.
func (s *Service) Register(ctx context.Context, form RegistrationForm) (*User, error) {
	if err := ValidateRegistration(form); err != nil {
		return nil, oops.Code("AUTH_VALIDATION_FAILED").
			With("operation", "register").
			Wrap(err)
	}

	_, err := s.users.GetByEmail(ctx, form.Email)
	switch {
	case err == nil:
		return nil, oops.Code("AUTH_DUPLICATE_EMAIL").
			With("email", form.Email).
			Wrap(ErrDuplicateEmail)
	case !errors.Is(err, ErrNotFound):
		return nil, s.internal(ctx, "AUTH_REGISTER_FAILED", "get user by email", err)
	}

	digest, err := s.hasher.Hash(form.Password)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, oops.Code("AUTH_VALIDATION_FAILED").
				With("operation", "register").
				Wrap(err)
		}
		return nil, s.internal(ctx, "AUTH_REGISTER_FAILED", "hash password", err)
	}

	user, err := NewUser(form.FirstName, form.LastName, form.Email, digest)
	if err != nil {
		return nil, s.internal(ctx, "AUTH_REGISTER_FAILED", "build user", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").
				With("email", form.Email).
				Wrap(err)
		}
		return nil, s.internal(ctx, "AUTH_REGISTER_FAILED", "insert user", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return user, nil
}

// Login authenticates a user and creates a session.
// Unknown emails and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, form LoginForm) (*Session, error) {
	if err := ValidateLoginInput(form); err != nil {
		return nil, oops.Code("AUTH_VALIDATION_FAILED").
			With("operation", "login").
			Wrap(err)
	}

	user, lookupErr := s.users.GetByEmail(ctx, form.Email)

	var targetHash string
	userExists := lookupErr == nil
	switch {
	case userExists:
		targetHash = user.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = s.dummyDigest()
	default:
		return nil, s.internal(ctx, "AUTH_LOGIN_FAILED", "get user by email", lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(form.Password, targetHash)
	if verifyErr != nil && userExists {
		return nil, s.internal(ctx, "AUTH_LOGIN_FAILED", "verify password", verifyErr)
	}

	if !userExists || !valid {
		s.logger.InfoContext(ctx, "login rejected")
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	session, err := s.sessions.Create(ctx, user.ID, user.Email)
	if err != nil {
		return nil, s.internal(ctx, "AUTH_SESSION_CREATE_FAILED", "create session", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID.String())
	return session, nil
}

// Logout invalidates a session. It succeeds for unknown or empty tokens.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return s.internal(ctx, "AUTH_LOGOUT_FAILED", "delete session", err)
	}
	return nil
}

// Authenticate returns the active session for a token.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("AUTH_UNAUTHORIZED").
			With("reason", "missing token").
			Wrap(ErrUnauthorized)
	}

	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_UNAUTHORIZED").
			With("reason", "unknown token").
			Wrap(ErrUnauthorized)
	}
	if err != nil {
		return nil, s.internal(ctx, "AUTH_SESSION_LOOKUP_FAILED", "get session", err)
	}
	return session, nil
}

// GetProfile returns the names of a user.
func (s *Service) GetProfile(ctx context.Context, userID ulid.ULID) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(err)
	}
	if err != nil {
		return nil, s.internal(ctx, "AUTH_PROFILE_FAILED", "get user by id", err)
	}
	return user.Profile(), nil
}

// UpdateProfile changes the names, and optionally the password, of the
// session's user. Existing sessions stay valid.
func (s *Service) UpdateProfile(ctx context.Context, token string, form ProfileForm) error {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	if err := ValidateProfileEdit(form); err != nil {
		return oops.Code("AUTH_VALIDATION_FAILED").
			With("operation", "update profile").
			Wrap(err)
	}

	update := UserUpdate{FirstName: form.FirstName, LastName: form.LastName}
	if form.Password != "" {
		digest, err := s.hasher.Hash(form.Password)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return oops.Code("AUTH_VALIDATION_FAILED").
					With("operation", "update profile").
					Wrap(err)
			}
			return s.internal(ctx, "AUTH_PROFILE_UPDATE_FAILED", "hash password", err)
		}
		update.PasswordHash = &digest
	}

	if err := s.users.Update(ctx, session.UserID, update); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_NOT_FOUND").
				With("user_id", session.UserID.String()).
				Wrap(err)
		}
		return s.internal(ctx, "AUTH_PROFILE_UPDATE_FAILED", "update user", err)
	}

	s.logger.InfoContext(ctx, "profile updated",
		"user_id", session.UserID.String(),
		"password_changed", update.PasswordHash != nil)
	return nil
}

// internal wraps and logs a storage or infrastructure fault.
func (s *Service) internal(ctx context.Context, code, operation string, err error) error {
	wrapped := oops.Code(code).
		With("operation", operation).
		Wrap(err)
	errutil.LogErrorContext(ctx, s.logger, "auth operation failed", wrapped)
	return wrapped
}
