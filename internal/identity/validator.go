// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"

	"github.com/samber/oops"
)

// Validator answers "does the active-session owner hold right R?" and
// enforces right sets by composing the session and rights registries.
type Validator struct {
	sessions SessionRepository
	rights   RightRepository
}

// NewValidator creates a new Validator.
func NewValidator(sessions SessionRepository, rights RightRepository) (*Validator, error) {
	if sessions == nil {
		return nil, oops.Code("VALIDATOR_INVALID").Errorf("session repository is required")
	}
	if rights == nil {
		return nil, oops.Code("VALIDATOR_INVALID").Errorf("right repository is required")
	}
	return &Validator{sessions: sessions, rights: rights}, nil
}

// HasRight reports whether the user holds the given right.
func (v *Validator) HasRight(ctx context.Context, username string, right Right) (bool, error) {
	grant, err := v.rights.Find(ctx, username, right)
	if err != nil {
		return false, err
	}
	return grant != nil, nil
}

// Enforce resolves the token to an active session and checks each required
// right in the given order, short-circuiting on the first one missing.
//
// An invalid or deactivated token fails with ErrSessionNotFound; a missing
// right fails with ErrInsufficientRights. The error never names the missing
// right, so an unauthorized caller learns nothing about the rights model.
func (v *Validator) Enforce(ctx context.Context, token string, required ...Right) error {
	session, err := v.sessions.GetActive(ctx, token)
	if err != nil {
		return err
	}

	for _, right := range required {
		held, err := v.HasRight(ctx, session.Username, right)
		if err != nil {
			return err
		}
		if !held {
			return oops.Code("INSUFFICIENT_RIGHTS").
				With("username", session.Username).
				Wrap(ErrInsufficientRights)
		}
	}
	return nil
}
