// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import "errors"

// Sentinel errors for the identity core. Repositories and managers wrap
// these with oops codes and context; callers match with errors.Is.
var (
	// ErrInvalidInput is returned when a required field is missing or empty.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserExists is returned when creating a user whose username is taken.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound is returned when an operation references a username
	// that does not exist (surfaced from the rights registry on grant).
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionNotFound is returned when a session token is absent or the
	// session is inactive.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials is returned on login with a wrong username or
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInsufficientRights is returned when an authenticated caller lacks a
	// required right. It carries no indication of which right was missing.
	ErrInsufficientRights = errors.New("insufficient rights")

	// ErrUnknownRight is returned when parsing a right name outside the
	// closed enumeration.
	ErrUnknownRight = errors.New("unknown right")

	// ErrSessionConflict is returned by the session registry when creating a
	// session loses the single-active-session race. Login resolves it by
	// re-reading the winning session; it never escapes the core.
	ErrSessionConflict = errors.New("active session already exists")
)
