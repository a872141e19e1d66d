// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// SessionManager handles login and logout. Neither operation is gated:
// anyone with valid credentials may log in, and a bearer token is its own
// proof for logout.
type SessionManager struct {
	sessions SessionRepository
	users    *UserManager
	logger   *slog.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(sessions SessionRepository, users *UserManager, logger *slog.Logger) (*SessionManager, error) {
	if sessions == nil {
		return nil, oops.Code("MANAGER_INVALID").Errorf("session repository is required")
	}
	if users == nil {
		return nil, oops.Code("MANAGER_INVALID").Errorf("user manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{sessions: sessions, users: users, logger: logger}, nil
}

// Login verifies the credentials and returns a session token: the existing
// active session's token (touching it), or a freshly created one. Sequential
// logins while a session stays active return the same token; a login after
// logout returns a different one.
func (s *SessionManager) Login(ctx context.Context, username, password string) (string, error) {
	exists, err := s.users.UserExists(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", oops.Code("INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	session, err := s.sessions.FindActiveForUser(ctx, username)
	if err != nil {
		return "", err
	}
	if session != nil {
		if err := s.sessions.Touch(ctx, session.ID, time.Now().UTC()); err != nil {
			return "", err
		}
		s.logger.Info("login reused session", "username", username)
		return session.Token, nil
	}

	session, err = s.sessions.Create(ctx, username)
	if errors.Is(err, ErrSessionConflict) {
		// Lost the check-then-create race: another login committed first.
		// The partial unique index turned that into a clean conflict, so
		// the winner's session is the one to return.
		return s.loginAfterConflict(ctx, username)
	}
	if err != nil {
		return "", err
	}
	s.logger.Info("login created session", "username", username)
	return session.Token, nil
}

func (s *SessionManager) loginAfterConflict(ctx context.Context, username string) (string, error) {
	session, err := s.sessions.FindActiveForUser(ctx, username)
	if err != nil {
		return "", err
	}
	if session == nil {
		// The winning session was logged out between the conflict and the
		// re-read. Surface the conflict; the caller may retry the login.
		return "", oops.Code("SESSION_CONFLICT").
			With("username", username).
			Wrap(ErrSessionConflict)
	}
	s.logger.Info("login reused session", "username", username)
	return session.Token, nil
}

// Logout deactivates the session identified by the token. Strict, not
// idempotent: a second logout of the same token fails with
// ErrSessionNotFound, unlike grant/revoke.
func (s *SessionManager) Logout(ctx context.Context, token string) error {
	session, err := s.sessions.GetActive(ctx, token)
	if err != nil {
		return err
	}
	if err := s.sessions.Deactivate(ctx, session.ID); err != nil {
		return err
	}
	s.logger.Info("logout", "username", session.Username)
	return nil
}
