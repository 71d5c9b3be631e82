// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/userportal/userportal/internal/auth"
	"github.com/userportal/userportal/internal/auth/memory"
	"github.com/userportal/userportal/internal/config"
	"github.com/userportal/userportal/internal/logging"
	"github.com/userportal/userportal/internal/web"
)

const serviceName = "userportal"

// readinessTimeout bounds the database ping behind /healthz/readiness.
const readinessTimeout = 2 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the UserPortal HTTP server. Users are stored in PostgreSQL when
database.url or DATABASE_URL is set, and in memory otherwise. Sessions are
held in memory and do not survive a restart.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err //nolint:wrapcheck // config.Load returns coded errors
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.AddServeFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps runs the server until a signal arrives, ctx is cancelled
// or a server fails. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate configuration").Wrap(err)
	}

	logger := logging.Setup(serviceName, version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), deps.LogOutput)
	slog.SetDefault(logger)

	logger.Info("starting userportal",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"database", cfg.UsesDatabase(),
		"session_ttl", cfg.Session.TTL.String(),
	)

	users, ready, closeUsers, err := openUserStore(ctx, cfg, deps, logger)
	if err != nil {
		return err
	}
	defer closeUsers()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessions := memory.NewSessionStore(memory.WithTTL(cfg.Session.TTL))
	var janitor sync.WaitGroup
	janitor.Add(1)
	go func() {
		defer janitor.Done()
		sessions.RunJanitor(ctx, cfg.Session.SweepInterval)
	}()
	defer janitor.Wait()
	// Cancel before waiting on the janitor.
	defer cancel()

	svc, err := auth.NewAuthServiceWithLogger(users, sessions, auth.NewBcryptHasher(), logger)
	if err != nil {
		return oops.Code("SERVE_INIT_FAILED").With("operation", "create auth service").Wrap(err)
	}

	opts := web.Options{
		StaticDir:      cfg.Web.StaticDir,
		RequireCaptcha: cfg.Web.RequireCaptcha,
		SecureCookie:   cfg.Web.SecureCookie,
		CookieMaxAge:   cfg.Session.TTL,
		Logger:         logger,
	}

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready)
		obsServer.RegisterActiveSessions(sessions.Len)
		opts.Metrics = obsServer.Metrics()

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVE_INIT_FAILED").With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	handler, err := web.NewHandler(svc, opts)
	if err != nil {
		stopObservability(obsServer, cfg.HTTP.ShutdownTimeout)
		return oops.Code("SERVE_INIT_FAILED").With("operation", "create web handler").Wrap(err)
	}

	webServer := deps.WebServerFactory(cfg.HTTP.Addr, handler.Routes(), logger)
	webErrChan, err := webServer.Start()
	if err != nil {
		stopObservability(obsServer, cfg.HTTP.ShutdownTimeout)
		return oops.Code("SERVE_INIT_FAILED").With("operation", "start web server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, webErrChan, "web")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("UserPortal listening on " + webServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping web server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// openUserStore selects the user repository. The returned readiness checker
// pings the database when one is configured.
func openUserStore(ctx context.Context, cfg *config.Config, deps *ServeDeps, logger *slog.Logger) (
	auth.UserRepository, func() bool, func(), error,
) {
	if !cfg.UsesDatabase() {
		logger.Warn("no database configured, users are kept in memory")
		return memory.NewUserRepository(), func() bool { return true }, func() {}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := autoMigrate(cfg.Database.URL, deps.MigratorFactory, logger); err != nil {
			return nil, nil, nil, err
		}
	}

	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, oops.With("operation", "connect to database").Wrap(err)
	}
	logger.Info("connected to database")

	ready := func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
		defer cancel()
		return db.Ping(pingCtx) == nil
	}
	return db.Users(), ready, db.Close, nil
}

// autoMigrate applies pending migrations before the server starts.
func autoMigrate(url string, factory func(string) (AutoMigrator, error), logger *slog.Logger) error {
	migrator, err := factory(url)
	if err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("database migrations applied")
	return nil
}

func stopObservability(obsServer ObservabilityServer, timeout time.Duration) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		slog.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
