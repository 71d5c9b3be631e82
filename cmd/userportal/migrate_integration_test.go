//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package main

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgresContainer starts a PostgreSQL container for testing.
func startPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func countUsers(ctx context.Context, t *testing.T, connStr string) int {
	t.Helper()
	conn, err := pgx.Connect(ctx, connStr)
	require.NoError(t, err)
	defer conn.Close(ctx)

	var n int
	require.NoError(t, conn.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n))
	return n
}

func TestMigrateCommands_AgainstPostgres(t *testing.T) {
	connStr := startPostgresContainer(t)
	t.Setenv("DATABASE_URL", connStr)

	out, err := executeMigrate(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Pending migrations: 000001, 000002")

	_, err = executeMigrate(t, "up")
	require.NoError(t, err)

	out, err = executeMigrate(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 2\n")

	out, err = executeMigrate(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")

	_, err = executeMigrate(t, "down", "--yes")
	require.NoError(t, err)

	out, err = executeMigrate(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 0\n")
}

func TestServe_AutoMigratesAndPersistsUsers(t *testing.T) {
	connStr := startPostgresContainer(t)

	h := newServeHarness(t)
	h.cfg.Database.URL = connStr
	h.cfg.Database.AutoMigrate = true
	h.deps.DatabaseFactory = nil
	h.deps.MigratorFactory = nil

	stop := h.start(t)

	res := postForm(h.web.handler, "/register", url.Values{
		"first_name":       {"Ada"},
		"last_name":        {"Lovelace"},
		"email":            {"ada@example.com"},
		"password":         {"engine1"},
		"confirm_password": {"engine1"},
	})
	require.Equal(t, http.StatusFound, res.StatusCode)
	assert.True(t, h.obs.ready())

	require.NoError(t, stop())
	assert.Equal(t, 1, countUsers(context.Background(), t, connStr))

	// Users survive a restart; sessions do not.
	h2 := newServeHarness(t)
	h2.cfg.Database.URL = connStr
	h2.deps.DatabaseFactory = nil
	stop2 := h2.start(t)
	defer func() { require.NoError(t, stop2()) }()

	res = postForm(h2.web.handler, "/login", url.Values{
		"email":    {"ada@example.com"},
		"password": {"engine1"},
	})
	assert.Equal(t, http.StatusFound, res.StatusCode)
}
