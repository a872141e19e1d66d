// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package rest is the HTTP presentation layer over the identity core.
//
// It translates JSON requests into manager calls and typed domain errors
// into status codes: 400 for invalid input, 401 for bad credentials,
// missing sessions, or insufficient rights, 404 for unknown subjects or
// right names, 409 for duplicate users. The core itself knows nothing of
// HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// Server handles the identity REST API.
type Server struct {
	users     *identity.UserManager
	sessions  *identity.SessionManager
	rights    *identity.RightManager
	validator *identity.Validator
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewServer creates a new REST server. metrics may be nil.
func NewServer(
	users *identity.UserManager,
	sessions *identity.SessionManager,
	rights *identity.RightManager,
	validator *identity.Validator,
	metrics *observability.Metrics,
	logger *slog.Logger,
) (*Server, error) {
	if users == nil {
		return nil, oops.Code("SERVER_INVALID").Errorf("user manager is required")
	}
	if sessions == nil {
		return nil, oops.Code("SERVER_INVALID").Errorf("session manager is required")
	}
	if rights == nil {
		return nil, oops.Code("SERVER_INVALID").Errorf("right manager is required")
	}
	if validator == nil {
		return nil, oops.Code("SERVER_INVALID").Errorf("validator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		users:     users,
		sessions:  sessions,
		rights:    rights,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()

	router.POST("/users", s.handleCreateUser)
	router.POST("/sessions", s.handleLogin)
	router.DELETE("/sessions", s.handleLogout)
	router.GET("/users/:username/rights/:right", s.handleHasRight)
	router.POST("/users/:username/rights/:right", s.handleGrant)
	router.DELETE("/users/:username/rights/:right", s.handleRevoke)

	return router
}

// credentialsRequest is the body of user creation and login requests.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, r, http.StatusBadRequest)
		return
	}

	_, err := s.users.CreateUser(r.Context(), bearerToken(r), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeStatus(w, r, http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, r, http.StatusBadRequest)
		return
	}

	token, err := s.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.countLogin("error", err)
		s.writeError(w, r, err)
		return
	}
	s.countLogin("success", nil)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	s.count(r, http.StatusOK)
	//nolint:errcheck // response write error means the client is gone
	json.NewEncoder(w).Encode(map[string]string{"session_id": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.sessions.Logout(r.Context(), bearerToken(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeStatus(w, r, http.StatusOK)
}

func (s *Server) handleHasRight(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	right, err := identity.ParseRight(params.ByName("right"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	held, err := s.validator.HasRight(r.Context(), params.ByName("username"), right)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !held {
		s.writeStatus(w, r, http.StatusNotFound)
		return
	}
	s.writeStatus(w, r, http.StatusOK)
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	right, err := identity.ParseRight(params.ByName("right"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	_, err = s.rights.Grant(r.Context(), bearerToken(r), params.ByName("username"), right)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeStatus(w, r, http.StatusOK)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	right, err := identity.ParseRight(params.ByName("right"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	err = s.rights.Revoke(r.Context(), bearerToken(r), params.ByName("username"), right)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeStatus(w, r, http.StatusOK)
}

// bearerToken extracts the session token from the Authorization header.
// A bare token without the Bearer prefix is accepted as well.
func bearerToken(r *http.Request) string {
	value := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(value, "Bearer "); found {
		return token
	}
	return value
}

// writeError maps a domain error to its status code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidInput):
		s.writeStatus(w, r, http.StatusBadRequest)
	case errors.Is(err, identity.ErrInvalidCredentials):
		s.writeStatus(w, r, http.StatusUnauthorized)
	case errors.Is(err, identity.ErrSessionNotFound):
		s.countDenial("session_not_found")
		s.writeStatus(w, r, http.StatusUnauthorized)
	case errors.Is(err, identity.ErrInsufficientRights):
		s.countDenial("insufficient_rights")
		s.writeStatus(w, r, http.StatusUnauthorized)
	case errors.Is(err, identity.ErrUserNotFound), errors.Is(err, identity.ErrUnknownRight):
		s.writeStatus(w, r, http.StatusNotFound)
	case errors.Is(err, identity.ErrUserExists):
		s.writeStatus(w, r, http.StatusConflict)
	default:
		errutil.LogError(s.logger, "request failed", err)
		s.writeStatus(w, r, http.StatusInternalServerError)
	}
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, status int) {
	w.WriteHeader(status)
	s.count(r, status)
}

func (s *Server) count(r *http.Request, status int) {
	if s.metrics == nil {
		return
	}
	route := r.Method + " " + r.URL.Path
	s.metrics.RequestsTotal.WithLabelValues(route, http.StatusText(status)).Inc()
}

func (s *Server) countLogin(outcome string, err error) {
	if s.metrics == nil {
		return
	}
	if err != nil && errors.Is(err, identity.ErrInvalidCredentials) {
		outcome = "invalid_credentials"
	}
	s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
}

func (s *Server) countDenial(reason string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AuthDenialsTotal.WithLabelValues(reason).Inc()
}
