// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userportal/userportal/internal/auth"
	"github.com/userportal/userportal/internal/auth/postgres"
	"github.com/userportal/userportal/internal/observability"
	"github.com/userportal/userportal/internal/store"
	"github.com/userportal/userportal/internal/web"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DatabaseFactory opens the user database.
	// Default: store.Connect wrapped as a Database
	DatabaseFactory func(ctx context.Context, url string) (Database, error)

	// MigratorFactory creates a migrator for auto-migration.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (AutoMigrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// WebServerFactory creates the public HTTP server.
	// Default: web.NewServer
	WebServerFactory func(addr string, handler http.Handler, logger *slog.Logger) WebServer

	// LogOutput receives log records. Default: os.Stderr
	LogOutput io.Writer
}

// Database is an open user database.
type Database interface {
	Users() auth.UserRepository
	Ping(ctx context.Context) error
	Close()
}

// AutoMigrator wraps the methods used for startup migrations.
type AutoMigrator interface {
	Up() error
	Close() error
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
	RegisterActiveSessions(count func() int)
}

// WebServer interface wraps the methods used from web.Server.
type WebServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.DatabaseFactory == nil {
		out.DatabaseFactory = connectDatabase
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (AutoMigrator, error) {
			return store.NewMigrator(url)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.WebServerFactory == nil {
		out.WebServerFactory = func(addr string, handler http.Handler, logger *slog.Logger) WebServer {
			return web.NewServer(addr, handler, logger)
		}
	}
	return &out
}

// pgDatabase is a Database backed by a pgx pool.
type pgDatabase struct {
	pool *pgxpool.Pool
}

func connectDatabase(ctx context.Context, url string) (Database, error) {
	pool, err := store.Connect(ctx, url)
	if err != nil {
		return nil, err //nolint:wrapcheck // store.Connect returns coded errors
	}
	return &pgDatabase{pool: pool}, nil
}

func (d *pgDatabase) Users() auth.UserRepository {
	return postgres.NewUserRepository(d.pool)
}

func (d *pgDatabase) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx) //nolint:wrapcheck // readiness probe only checks for nil
}

func (d *pgDatabase) Close() {
	d.pool.Close()
}
