// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package mocks provides testify mocks for the identity repositories.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/gatehouse/gatehouse/internal/identity"
)

// MockUserRepository is a mock identity.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository that asserts its
// expectations on test cleanup.
func NewMockUserRepository(t *testing.T) *MockUserRepository {
	t.Helper()
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, username, passwordHash string) (*identity.User, error) {
	args := m.Called(ctx, username, passwordHash)
	var user *identity.User
	if v := args.Get(0); v != nil {
		user = v.(*identity.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, username, passwordHash string) (bool, error) {
	args := m.Called(ctx, username, passwordHash)
	return args.Bool(0), args.Error(1)
}

// MockSessionRepository is a mock identity.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a MockSessionRepository that asserts its
// expectations on test cleanup.
func NewMockSessionRepository(t *testing.T) *MockSessionRepository {
	t.Helper()
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionRepository) Create(ctx context.Context, username string) (*identity.Session, error) {
	args := m.Called(ctx, username)
	var session *identity.Session
	if v := args.Get(0); v != nil {
		session = v.(*identity.Session)
	}
	return session, args.Error(1)
}

func (m *MockSessionRepository) FindActiveForUser(ctx context.Context, username string) (*identity.Session, error) {
	args := m.Called(ctx, username)
	var session *identity.Session
	if v := args.Get(0); v != nil {
		session = v.(*identity.Session)
	}
	return session, args.Error(1)
}

func (m *MockSessionRepository) FindByToken(ctx context.Context, token string, activeOnly bool) (*identity.Session, error) {
	args := m.Called(ctx, token, activeOnly)
	var session *identity.Session
	if v := args.Get(0); v != nil {
		session = v.(*identity.Session)
	}
	return session, args.Error(1)
}

func (m *MockSessionRepository) GetActive(ctx context.Context, token string) (*identity.Session, error) {
	args := m.Called(ctx, token)
	var session *identity.Session
	if v := args.Get(0); v != nil {
		session = v.(*identity.Session)
	}
	return session, args.Error(1)
}

func (m *MockSessionRepository) Touch(ctx context.Context, id ulid.ULID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSessionRepository) Deactivate(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRightRepository is a mock identity.RightRepository.
type MockRightRepository struct {
	mock.Mock
}

// NewMockRightRepository creates a MockRightRepository that asserts its
// expectations on test cleanup.
func NewMockRightRepository(t *testing.T) *MockRightRepository {
	t.Helper()
	m := &MockRightRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRightRepository) Find(ctx context.Context, username string, right identity.Right) (*identity.RightGrant, error) {
	args := m.Called(ctx, username, right)
	var grant *identity.RightGrant
	if v := args.Get(0); v != nil {
		grant = v.(*identity.RightGrant)
	}
	return grant, args.Error(1)
}

func (m *MockRightRepository) Grant(ctx context.Context, username string, right identity.Right) (*identity.RightGrant, error) {
	args := m.Called(ctx, username, right)
	var grant *identity.RightGrant
	if v := args.Get(0); v != nil {
		grant = v.(*identity.RightGrant)
	}
	return grant, args.Error(1)
}

func (m *MockRightRepository) Revoke(ctx context.Context, username string, right identity.Right) error {
	args := m.Called(ctx, username, right)
	return args.Error(0)
}

// MockHasher is a mock identity.Hasher.
type MockHasher struct {
	mock.Mock
}

// NewMockHasher creates a MockHasher that asserts its expectations on test
// cleanup.
func NewMockHasher(t *testing.T) *MockHasher {
	t.Helper()
	m := &MockHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockHasher) Hash(password, suffix, salt string) string {
	args := m.Called(password, suffix, salt)
	return args.String(0)
}

// Compile-time interface checks.
var (
	_ identity.UserRepository    = (*MockUserRepository)(nil)
	_ identity.SessionRepository = (*MockSessionRepository)(nil)
	_ identity.RightRepository   = (*MockRightRepository)(nil)
	_ identity.Hasher            = (*MockHasher)(nil)
)
