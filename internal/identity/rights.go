// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// RightManager wraps the rights registry with input validation and
// authorization gating.
type RightManager struct {
	rights    RightRepository
	validator *Validator
	logger    *slog.Logger
}

// NewRightManager creates a new RightManager.
func NewRightManager(rights RightRepository, validator *Validator, logger *slog.Logger) (*RightManager, error) {
	if rights == nil {
		return nil, oops.Code("MANAGER_INVALID").Errorf("right repository is required")
	}
	if validator == nil {
		return nil, oops.Code("MANAGER_INVALID").Errorf("validator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RightManager{rights: rights, validator: validator, logger: logger}, nil
}

// Grant assigns a right on behalf of the session holder, who must hold
// AdminRights.
func (m *RightManager) Grant(ctx context.Context, token, username string, right Right) (*RightGrant, error) {
	if err := validateRightInput(username, right); err != nil {
		return nil, err
	}
	if err := m.validator.Enforce(ctx, token, RightAdminRights); err != nil {
		m.logger.Warn("grant denied", "username", username)
		return nil, err
	}
	return m.grant(ctx, username, right)
}

// Revoke removes a right on behalf of the session holder, who must hold
// AdminRights.
func (m *RightManager) Revoke(ctx context.Context, token, username string, right Right) error {
	if err := validateRightInput(username, right); err != nil {
		return err
	}
	if err := m.validator.Enforce(ctx, token, RightAdminRights); err != nil {
		m.logger.Warn("revoke denied", "username", username)
		return err
	}
	return m.revoke(ctx, username, right)
}

// BootstrapGrant assigns a right without authorization enforcement. Like
// UserManager.BootstrapCreateUser it takes no session token and exists for
// process-internal bootstrap callers only.
func (m *RightManager) BootstrapGrant(ctx context.Context, username string, right Right) (*RightGrant, error) {
	if err := validateRightInput(username, right); err != nil {
		return nil, err
	}
	return m.grant(ctx, username, right)
}

// BootstrapRevoke removes a right without authorization enforcement.
func (m *RightManager) BootstrapRevoke(ctx context.Context, username string, right Right) error {
	if err := validateRightInput(username, right); err != nil {
		return err
	}
	return m.revoke(ctx, username, right)
}

func (m *RightManager) grant(ctx context.Context, username string, right Right) (*RightGrant, error) {
	grant, err := m.rights.Grant(ctx, username, right)
	if err != nil {
		return nil, err
	}
	m.logger.Info("right granted", "username", username, "right", right.String())
	return grant, nil
}

func (m *RightManager) revoke(ctx context.Context, username string, right Right) error {
	if err := m.rights.Revoke(ctx, username, right); err != nil {
		return err
	}
	m.logger.Info("right revoked", "username", username, "right", right.String())
	return nil
}

func validateRightInput(username string, right Right) error {
	if username == "" {
		return oops.Code("INVALID_INPUT").
			With("field", "username").
			Wrap(ErrInvalidInput)
	}
	if right == "" {
		return oops.Code("INVALID_INPUT").
			With("field", "right").
			Wrap(ErrInvalidInput)
	}
	if !right.Valid() {
		return oops.Code("UNKNOWN_RIGHT").
			With("right", right.String()).
			Wrap(ErrUnknownRight)
	}
	return nil
}
