// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User represents a registered account.
type User struct {
	ID           ulid.ULID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a validated User with a fresh ID.
// The email is stored exactly as given; lookups are case-sensitive.
func NewUser(firstName, lastName, email, passwordHash string) (*User, error) {
	if firstName == "" || lastName == "" {
		return nil, oops.Code("USER_INVALID_NAME").Errorf("first and last name cannot be empty")
	}
	if email == "" {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &User{
		ID:           ulid.Make(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Profile is the editable, displayable part of a user.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Profile returns the user's profile.
func (u *User) Profile() *Profile {
	return &Profile{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// UserUpdate describes a single profile write. Names are always written;
// PasswordHash is written only when non-nil.
type UserUpdate struct {
	FirstName    string
	LastName     string
	PasswordHash *string
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	// Returns ErrNotFound if no such user exists.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by exact email.
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update applies a profile update to an existing user.
	// Returns ErrNotFound if no such user exists.
	Update(ctx context.Context, id ulid.ULID, update UserUpdate) error
}
