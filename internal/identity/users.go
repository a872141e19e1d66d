// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// UserManager wraps the user directory with input validation, credential
// hashing, and authorization gating.
type UserManager struct {
	users     UserRepository
	validator *Validator
	hasher    Hasher
	salt      string
	logger    *slog.Logger
}

// NewUserManager creates a new UserManager. The salt is the deployment-wide
// secret mixed into every credential digest; empty is permitted.
func NewUserManager(users UserRepository, validator *Validator, hasher Hasher, salt string, logger *slog.Logger) (*UserManager, error) {
	if users == nil {
		return nil, oops.Code("MANAGER_INVALID").Errorf("user repository is required")
	}
	if validator == nil {
		return nil, oops.Code("MANAGER_INVALID").Errorf("validator is required")
	}
	if hasher == nil {
		return nil, oops.Code("MANAGER_INVALID").Errorf("hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserManager{
		users:     users,
		validator: validator,
		hasher:    hasher,
		salt:      salt,
		logger:    logger,
	}, nil
}

// CreateUser registers a user on behalf of the session holder, who must
// hold AdminUsers.
func (m *UserManager) CreateUser(ctx context.Context, token, username, password string) (*User, error) {
	if err := validateCredentialInput(username, password); err != nil {
		return nil, err
	}
	if err := m.validator.Enforce(ctx, token, RightAdminUsers); err != nil {
		m.logger.Warn("user creation denied", "username", username)
		return nil, err
	}
	return m.createUser(ctx, username, password)
}

// BootstrapCreateUser registers a user without authorization enforcement.
//
// This is the superuser entry point: it takes no session token on purpose,
// so a gated call site cannot reach it by flipping a flag. It must only be
// called from process-internal bootstrap code, never from an end-user
// reachable path.
func (m *UserManager) BootstrapCreateUser(ctx context.Context, username, password string) (*User, error) {
	if err := validateCredentialInput(username, password); err != nil {
		return nil, err
	}
	return m.createUser(ctx, username, password)
}

// UserExists reports whether a user with the given credentials exists.
// No authorization is required; login uses this internally.
func (m *UserManager) UserExists(ctx context.Context, username, password string) (bool, error) {
	return m.users.Exists(ctx, username, m.hashCredential(username, password))
}

func (m *UserManager) createUser(ctx context.Context, username, password string) (*User, error) {
	user, err := m.users.Create(ctx, username, m.hashCredential(username, password))
	if err != nil {
		return nil, err
	}
	m.logger.Info("user created", "username", username)
	return user, nil
}

// hashCredential binds the digest to its identity: the username is the
// suffix, the configured secret is the salt.
func (m *UserManager) hashCredential(username, password string) string {
	return m.hasher.Hash(password, username, m.salt)
}

func validateCredentialInput(username, password string) error {
	if username == "" {
		return oops.Code("INVALID_INPUT").
			With("field", "username").
			Wrap(ErrInvalidInput)
	}
	if password == "" {
		return oops.Code("INVALID_INPUT").
			With("field", "password").
			Wrap(ErrInvalidInput)
	}
	return nil
}
