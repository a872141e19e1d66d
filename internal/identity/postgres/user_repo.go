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

// UserRepository implements identity.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user. The single INSERT is one committed transaction;
// a uniqueness violation on the username becomes ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*identity.User, error) {
	user, err := identity.NewUser(username, passwordHash)
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
	`, user.Username, user.PasswordHash)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return nil, oops.Code("USER_EXISTS").
				With("username", username).
				Wrap(identity.ErrUserExists)
		}
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// Exists reports whether a user with the given credentials exists. The
// stored digest is fetched by username and compared in-process in constant
// time; absence of the user is a plain false.
func (r *UserRepository) Exists(ctx context.Context, username, passwordHash string) (bool, error) {
	var stored string
	err := r.db.QueryRow(ctx, `
		SELECT password_hash FROM users
		WHERE username = $1
	`, username).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("USER_EXISTS_CHECK_FAILED").
			With("operation", "get password hash").
			With("username", username).
			Wrap(err)
	}
	return identity.HashEqual(stored, passwordHash), nil
}

// Compile-time interface check.
var _ identity.UserRepository = (*UserRepository)(nil)
