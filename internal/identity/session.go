// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenBytes is the entropy of a session token: 32 bytes = 64 hex chars.
const TokenBytes = 32

// Session is a bearer credential bound to one user. The lifecycle is
// Active -> Inactive, terminal; sessions are deactivated on logout, never
// deleted, and tokens are never reused.
//
// The username is a value-typed foreign reference to a User row, not an
// owning pointer; the store is the source of truth between calls.
type Session struct {
	ID       ulid.ULID
	Token    string
	Username string
	Active   bool
	Created  time.Time
	Updated  time.Time
}

// NewSession creates a validated Session with a fresh token, active state,
// and created == updated == now.
func NewSession(username string) (*Session, error) {
	if username == "" {
		return nil, oops.Code("INVALID_INPUT").
			With("field", "username").
			Wrap(ErrInvalidInput)
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Session{
		ID:       ulid.Make(),
		Token:    token,
		Username: username,
		Active:   true,
		Created:  now,
		Updated:  now,
	}, nil
}

// GenerateToken creates an opaque, globally-unique bearer token.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

// SessionRepository is the session registry. Every operation is one store
// transaction: committed on success, rolled back on any failure.
type SessionRepository interface {
	// Create persists a new active session for the user, generating its
	// token. Fails with ErrSessionConflict when an active session for the
	// username already exists (the partial unique index lost-race signal)
	// and ErrUserNotFound on a referential-integrity violation.
	Create(ctx context.Context, username string) (*Session, error)

	// FindActiveForUser returns the single active session for a user, or
	// (nil, nil) if there is none. More than one active row is an internal
	// consistency fault, not a domain error.
	FindActiveForUser(ctx context.Context, username string) (*Session, error)

	// FindByToken is a point lookup by token, (nil, nil) when absent.
	// With activeOnly false it also returns deactivated sessions; that mode
	// serves idempotency checks only, never authorization.
	FindByToken(ctx context.Context, token string, activeOnly bool) (*Session, error)

	// GetActive is the strict form of FindByToken(token, true); it fails
	// with ErrSessionNotFound when no active session matches.
	GetActive(ctx context.Context, token string) (*Session, error)

	// Touch updates the session's updated timestamp.
	Touch(ctx context.Context, id ulid.ULID, at time.Time) error

	// Deactivate sets active to false. Irreversible; deactivating an
	// already-inactive session fails with ErrSessionNotFound.
	Deactivate(ctx context.Context, id ulid.ULID) error
}
