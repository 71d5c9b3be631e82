// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package memory_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userportal/userportal/internal/auth"
	"github.com/userportal/userportal/internal/auth/memory"
)

func newUser(t *testing.T, email string) *auth.User {
	t.Helper()
	u, err := auth.NewUser("John", "Doe", email, "$2a$10$digest")
	require.NoError(t, err)
	return u
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	user := newUser(t, "a@b.co")

	require.NoError(t, repo.Create(ctx, user))

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetByEmail(ctx, "A@B.CO")
	assert.ErrorIs(t, err, auth.ErrNotFound, "lookups are case-sensitive")
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	require.NoError(t, repo.Create(ctx, newUser(t, "a@b.co")))

	err := repo.Create(ctx, newUser(t, "a@b.co"))
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestUserRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	_, err := repo.GetByID(ctx, ulid.Make())
	assert.ErrorIs(t, err, auth.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@b.co")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	user := newUser(t, "a@b.co")
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	got.FirstName = "Mallory"

	again, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", again.FirstName)
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	user := newUser(t, "a@b.co")
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.Update(ctx, user.ID, auth.UserUpdate{FirstName: "Jane", LastName: "Roe"}))
	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "Roe", got.LastName)
	assert.Equal(t, "$2a$10$digest", got.PasswordHash, "password unchanged without new digest")
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	digest := "$2a$10$new"
	require.NoError(t, repo.Update(ctx, user.ID, auth.UserUpdate{FirstName: "Jane", LastName: "Roe", PasswordHash: &digest}))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, digest, got.PasswordHash)

	err = repo.Update(ctx, ulid.Make(), auth.UserUpdate{FirstName: "x", LastName: "y"})
	assert.ErrorIs(t, err, auth.ErrNotFound)
}
