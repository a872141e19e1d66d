// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/identity"
	identitypg "github.com/gatehouse/gatehouse/internal/identity/postgres"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/rest"
	"github.com/gatehouse/gatehouse/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the identity REST server",
		Long: `Start the REST server which handles user creation, login, logout,
and rights administration, plus a metrics/health endpoint.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().String("listen", config.Defaults().Listen, "REST listen address")
	cmd.Flags().String("metrics-listen", config.Defaults().MetricsListen, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL (overrides config file)")
	cmd.Flags().String("log-format", config.Defaults().LogFormat, "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log_format must be 'json' or 'text', got %q", cfg.LogFormat)
	}

	logging.SetDefault("gatehouse", version, cfg.LogFormat)

	slog.Info("starting gatehouse",
		"listen", cfg.Listen,
		"log_format", cfg.LogFormat,
	)
	if cfg.PasswordSalt == "" {
		slog.Warn("password_salt is empty, credential digests use the weaker unsalted form")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	// Start observability server if configured
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsListen != "" {
		obsServer = observability.NewServer(cfg.MetricsListen, func() bool {
			return pool.Ping(ctx) == nil
		})
		metrics = obsServer.Metrics()
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	server, err := buildServer(pool, cfg, metrics, slog.Default())
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Gatehouse started")
	slog.Info("gatehouse ready", "listen", cfg.Listen)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		return oops.Code("SERVER_FAILED").Wrap(err)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("error stopping REST server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// buildServer wires the repositories, managers, and REST layer.
func buildServer(pool *pgxpool.Pool, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*rest.Server, error) {
	userRepo := identitypg.NewUserRepository(pool)
	sessionRepo := identitypg.NewSessionRepository(pool)
	rightRepo := identitypg.NewRightRepository(pool)

	validator, err := identity.NewValidator(sessionRepo, rightRepo)
	if err != nil {
		return nil, err
	}
	users, err := identity.NewUserManager(userRepo, validator, identity.NewSHA256Hasher(), cfg.PasswordSalt, logger)
	if err != nil {
		return nil, err
	}
	sessions, err := identity.NewSessionManager(sessionRepo, users, logger)
	if err != nil {
		return nil, err
	}
	rights, err := identity.NewRightManager(rightRepo, validator, logger)
	if err != nil {
		return nil, err
	}

	return rest.NewServer(users, sessions, rights, validator, metrics, logger)
}

// monitorServerErrors cancels the context when a background server fails.
// It exits when an error arrives, the channel closes, or the context ends.
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
