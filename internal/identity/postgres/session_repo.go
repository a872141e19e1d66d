// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/identity"
)

// oneActiveConstraint is the partial unique index enforcing at most one
// active session per user. A violation on it is the lost-login-race signal.
const oneActiveConstraint = "user_sessions_one_active"

// SessionRepository implements identity.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a new active session with a freshly generated token.
func (r *SessionRepository) Create(ctx context.Context, username string) (*identity.Session, error) {
	session, err := identity.NewSession(username)
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO user_sessions (id, token, username, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		session.ID.String(),
		session.Token,
		session.Username,
		session.Active,
		session.Created,
		session.Updated,
	)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok && constraint == oneActiveConstraint {
			return nil, oops.Code("SESSION_CONFLICT").
				With("username", username).
				Wrap(identity.ErrSessionConflict)
		}
		if isForeignKeyViolation(err) {
			return nil, oops.Code("USER_NOT_FOUND").
				With("username", username).
				Wrap(identity.ErrUserNotFound)
		}
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert user_session").
			With("username", username).
			Wrap(err)
	}
	return session, nil
}

// FindActiveForUser returns the active session for a user, or nil. Two or
// more active rows would violate the single-active-session invariant and
// surface as an internal consistency fault.
func (r *SessionRepository) FindActiveForUser(ctx context.Context, username string) (*identity.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, token, username, active, created_at, updated_at
		FROM user_sessions
		WHERE username = $1 AND active
	`, username)
	if err != nil {
		return nil, oops.Code("SESSION_FIND_ACTIVE_FAILED").
			With("operation", "query active sessions").
			With("username", username).
			Wrap(err)
	}
	defer rows.Close()

	var sessions []*identity.Session
	for rows.Next() {
		session, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("SESSION_ROWS_ERROR").
			With("operation", "iterate active sessions").
			Wrap(err)
	}

	switch len(sessions) {
	case 0:
		return nil, nil
	case 1:
		return sessions[0], nil
	default:
		return nil, oops.Code("SESSION_CONSISTENCY_FAULT").
			With("username", username).
			With("active_sessions", len(sessions)).
			Errorf("more than one active session for user")
	}
}

// FindByToken is a point lookup by token. With activeOnly false it also
// returns deactivated sessions.
func (r *SessionRepository) FindByToken(ctx context.Context, token string, activeOnly bool) (*identity.Session, error) {
	query := `
		SELECT id, token, username, active, created_at, updated_at
		FROM user_sessions
		WHERE token = $1
	`
	if activeOnly {
		query += ` AND active`
	}

	row := r.db.QueryRow(ctx, query, token)
	session, err := scanSessionRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_FIND_BY_TOKEN_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}
	return session, nil
}

// GetActive returns the active session for a token or ErrSessionNotFound.
func (r *SessionRepository) GetActive(ctx context.Context, token string) (*identity.Session, error) {
	session, err := r.FindByToken(ctx, token, true)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(identity.ErrSessionNotFound)
	}
	return session, nil
}

// Touch updates the session's updated timestamp.
func (r *SessionRepository) Touch(ctx context.Context, id ulid.ULID, at time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE user_sessions SET updated_at = $2
		WHERE id = $1
	`, id.String(), at)
	if err != nil {
		return oops.Code("SESSION_TOUCH_FAILED").
			With("operation", "update updated_at").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(identity.ErrSessionNotFound)
	}
	return nil
}

// Deactivate transitions the session to inactive. The transition is
// terminal: an already-inactive session reports ErrSessionNotFound.
func (r *SessionRepository) Deactivate(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		UPDATE user_sessions SET active = FALSE, updated_at = $2
		WHERE id = $1 AND active
	`, id.String(), time.Now().UTC())
	if err != nil {
		return oops.Code("SESSION_DEACTIVATE_FAILED").
			With("operation", "deactivate session").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(identity.ErrSessionNotFound)
	}
	return nil
}

// scanTarget abstracts pgx.Row and pgx.Rows for the session scanners.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanSessionRow(row scanTarget) (*identity.Session, error) {
	var (
		idStr     string
		token     string
		username  string
		active    bool
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&idStr, &token, &username, &active, &createdAt, &updatedAt); err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan user_session").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("operation", "parse session id").
			With("id", idStr).
			Wrap(err)
	}

	return &identity.Session{
		ID:       id,
		Token:    token,
		Username: username,
		Active:   active,
		Created:  createdAt,
		Updated:  updatedAt,
	}, nil
}

// Compile-time interface check.
var _ identity.SessionRepository = (*SessionRepository)(nil)
