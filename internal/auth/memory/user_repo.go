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

// UserRepository implements auth.UserRepository in memory.
// Email uniqueness is enforced atomically on Create, mirroring the
// unique index of the PostgreSQL schema.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]auth.User
	byEmail map[string]ulid.ULID
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[ulid.ULID]auth.User),
		byEmail: make(map[string]ulid.ULID),
	}
}

// Create stores a new user.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return oops.Code("USER_EMAIL_TAKEN").
			With("email", user.Email).
			Wrap(auth.ErrDuplicateEmail)
	}
	if _, taken := r.byID[user.ID]; taken {
		return oops.Code("USER_CREATE_FAILED").
			With("id", user.ID.String()).
			Errorf("user id already exists")
	}

	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return &user, nil
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	user := r.byID[id]
	return &user, nil
}

// Update applies a profile update.
func (r *UserRepository) Update(_ context.Context, id ulid.ULID, update auth.UserUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}

	user.FirstName = update.FirstName
	user.LastName = update.LastName
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	user.UpdatedAt = time.Now().UTC()
	r.byID[id] = user
	return nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
