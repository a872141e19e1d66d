// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"

	"github.com/samber/oops"
)

// Right is a named capability from a closed enumeration. An unrecognized
// right name is a parse-time error, never a silent no-op.
type Right string

// The closed right set.
const (
	RightAdminUsers   Right = "AdminUsers"
	RightAdminRights  Right = "AdminRights"
	RightAdminSensors Right = "AdminSensors"
	RightAdminRules   Right = "AdminRules"
	RightViewReports  Right = "ViewReports"
)

// Rights returns the full enumeration in declaration order.
func Rights() []Right {
	return []Right{
		RightAdminUsers,
		RightAdminRights,
		RightAdminSensors,
		RightAdminRules,
		RightViewReports,
	}
}

// ParseRight maps a right name to its enumeration value.
func ParseRight(name string) (Right, error) {
	switch r := Right(name); r {
	case RightAdminUsers, RightAdminRights, RightAdminSensors,
		RightAdminRules, RightViewReports:
		return r, nil
	default:
		return "", oops.Code("UNKNOWN_RIGHT").
			With("right", name).
			Wrap(ErrUnknownRight)
	}
}

// Valid reports whether r belongs to the closed enumeration.
func (r Right) Valid() bool {
	_, err := ParseRight(string(r))
	return err == nil
}

// String returns the right name.
func (r Right) String() string {
	return string(r)
}

// RightGrant is a capability assignment keyed by (username, right). The
// username is a value-typed foreign reference to a User row.
type RightGrant struct {
	Username string
	Right    Right
}

// RightRepository is the rights registry.
type RightRepository interface {
	// Find is a point lookup on the composite key, (nil, nil) when absent.
	Find(ctx context.Context, username string, right Right) (*RightGrant, error)

	// Grant assigns a right to a user. Idempotent: an existing grant is
	// returned unchanged with no duplicate row and no error, including when
	// a concurrent grant wins the insert. Fails with ErrUserNotFound when
	// the store reports a referential-integrity violation.
	Grant(ctx context.Context, username string, right Right) (*RightGrant, error)

	// Revoke removes a grant. Idempotent: revoking an absent grant is a
	// no-op, and revoke never distinguishes "no such user" from "no such
	// grant".
	Revoke(ctx context.Context, username string, right Right) error
}
