// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/identity"
)

// RightRepository implements identity.RightRepository using PostgreSQL.
type RightRepository struct {
	db DB
}

// NewRightRepository creates a new RightRepository.
func NewRightRepository(db DB) *RightRepository {
	return &RightRepository{db: db}
}

// Find is a point lookup on the (username, right) composite key.
func (r *RightRepository) Find(ctx context.Context, username string, right identity.Right) (*identity.RightGrant, error) {
	if err := validateKey(username, right); err != nil {
		return nil, err
	}
	return r.find(ctx, r.db, username, right)
}

// Grant assigns a right to a user inside one transaction: an existing grant
// is returned unchanged, otherwise a row is inserted. Losing a concurrent
// grant race surfaces as a uniqueness conflict and is translated back into
// the idempotent "already granted" outcome. A referential-integrity
// violation (no such user) becomes ErrUserNotFound.
func (r *RightRepository) Grant(ctx context.Context, username string, right identity.Right) (*identity.RightGrant, error) {
	if err := validateKey(username, right); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, oops.Code("RIGHT_GRANT_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer func() { _ = tx.Rollback(ctx) }() //nolint:errcheck // no-op after commit

	existing, err := r.find(ctx, tx, username, right)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_rights (username, right_name)
		VALUES ($1, $2)
	`, username, right.String())
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			// A concurrent grant committed first; the grant exists.
			return &identity.RightGrant{Username: username, Right: right}, nil
		}
		if isForeignKeyViolation(err) {
			return nil, oops.Code("USER_NOT_FOUND").
				With("username", username).
				Wrap(identity.ErrUserNotFound)
		}
		return nil, oops.Code("RIGHT_GRANT_FAILED").
			With("operation", "insert user_right").
			With("username", username).
			With("right", right.String()).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, oops.Code("RIGHT_GRANT_FAILED").
			With("operation", "commit").
			Wrap(err)
	}
	return &identity.RightGrant{Username: username, Right: right}, nil
}

// Revoke deletes a grant. Revoking an absent grant is a no-op, and the
// operation never distinguishes "no such user" from "no such grant".
func (r *RightRepository) Revoke(ctx context.Context, username string, right identity.Right) error {
	if err := validateKey(username, right); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx, `
		DELETE FROM user_rights
		WHERE username = $1 AND right_name = $2
	`, username, right.String())
	if err != nil {
		return oops.Code("RIGHT_REVOKE_FAILED").
			With("operation", "delete user_right").
			With("username", username).
			With("right", right.String()).
			Wrap(err)
	}
	return nil
}

// querier is the read surface shared by DB and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *RightRepository) find(ctx context.Context, q querier, username string, right identity.Right) (*identity.RightGrant, error) {
	var grant identity.RightGrant
	var rightName string
	err := q.QueryRow(ctx, `
		SELECT username, right_name FROM user_rights
		WHERE username = $1 AND right_name = $2
	`, username, right.String()).Scan(&grant.Username, &rightName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("RIGHT_FIND_FAILED").
			With("operation", "get user_right").
			With("username", username).
			With("right", right.String()).
			Wrap(err)
	}

	grant.Right, err = identity.ParseRight(rightName)
	if err != nil {
		return nil, oops.Code("RIGHT_CORRUPT").
			With("operation", "parse stored right").
			With("right", rightName).
			Wrap(err)
	}
	return &grant, nil
}

func validateKey(username string, right identity.Right) error {
	if username == "" {
		return oops.Code("INVALID_INPUT").
			With("field", "username").
			Wrap(identity.ErrInvalidInput)
	}
	if right == "" {
		return oops.Code("INVALID_INPUT").
			With("field", "right").
			Wrap(identity.ErrInvalidInput)
	}
	return nil
}

// Compile-time interface check.
var _ identity.RightRepository = (*RightRepository)(nil)
