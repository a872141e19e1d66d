// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/identity"
	identitypg "github.com/gatehouse/gatehouse/internal/identity/postgres"
	"github.com/gatehouse/gatehouse/internal/store"
)

// Default timeout for the bootstrap command.
const defaultBootstrapTimeout = 30 * time.Second

// bootstrapConfig holds configuration for the bootstrap command.
type bootstrapConfig struct {
	username string
	password string
	timeout  time.Duration
}

// NewBootstrapCmd creates the bootstrap subcommand.
func NewBootstrapCmd() *cobra.Command {
	cfg := &bootstrapConfig{}

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the initial administrator account",
		Long: `Creates an administrator user holding the user and rights
administration rights, bypassing session enforcement. This command is
idempotent - it will not fail if the user already exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "", "administrator username (required)")
	cmd.Flags().StringVar(&cfg.password, "password", "", "administrator password (required)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultBootstrapTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL (overrides config file)")

	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string, cfg *bootstrapConfig) error {
	if cfg.username == "" || cfg.password == "" {
		return oops.Code("CONFIG_INVALID").Errorf("--username and --password are required")
	}

	appCfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, appCfg.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	users, rights, err := buildBootstrapManagers(pool, appCfg)
	if err != nil {
		return err
	}

	if _, err := users.BootstrapCreateUser(ctx, cfg.username, cfg.password); err != nil {
		if !errors.Is(err, identity.ErrUserExists) {
			return oops.Code("BOOTSTRAP_FAILED").With("operation", "create user").Wrap(err)
		}
		cmd.Println("User already exists, skipping creation")
	}

	for _, right := range []identity.Right{identity.RightAdminUsers, identity.RightAdminRights} {
		if _, err := rights.BootstrapGrant(ctx, cfg.username, right); err != nil {
			return oops.Code("BOOTSTRAP_FAILED").
				With("operation", "grant right").
				With("right", right.String()).
				Wrap(err)
		}
	}

	cmd.Println("Bootstrap completed successfully")
	return nil
}

// buildBootstrapManagers wires just the managers the bootstrap path needs.
func buildBootstrapManagers(pool *pgxpool.Pool, cfg *config.Config) (*identity.UserManager, *identity.RightManager, error) {
	userRepo := identitypg.NewUserRepository(pool)
	sessionRepo := identitypg.NewSessionRepository(pool)
	rightRepo := identitypg.NewRightRepository(pool)

	validator, err := identity.NewValidator(sessionRepo, rightRepo)
	if err != nil {
		return nil, nil, err
	}
	users, err := identity.NewUserManager(userRepo, validator, identity.NewSHA256Hasher(), cfg.PasswordSalt, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	rights, err := identity.NewRightManager(rightRepo, validator, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return users, rights, nil
}
