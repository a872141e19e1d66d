// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"

	"github.com/samber/oops"
)

// User is an identity record. The username is immutable and the password
// hash is opaque; there is no password-change operation.
type User struct {
	Username     string
	PasswordHash string
}

// NewUser creates a validated User instance.
func NewUser(username, passwordHash string) (*User, error) {
	if username == "" {
		return nil, oops.Code("INVALID_INPUT").
			With("field", "username").
			Wrap(ErrInvalidInput)
	}
	if passwordHash == "" {
		return nil, oops.Code("INVALID_INPUT").
			With("field", "password_hash").
			Wrap(ErrInvalidInput)
	}
	return &User{Username: username, PasswordHash: passwordHash}, nil
}

// UserRepository is the user directory.
type UserRepository interface {
	// Create stores a new user in one committed transaction.
	// Fails with ErrInvalidInput on empty fields and ErrUserExists when the
	// store reports a uniqueness violation on the username.
	Create(ctx context.Context, username, passwordHash string) (*User, error)

	// Exists reports whether exactly one user matches both username and
	// password hash. Absence is a plain false, never an error. The digest
	// comparison is constant-time and happens in-process, not in SQL.
	Exists(ctx context.Context, username, passwordHash string) (bool, error)
}
