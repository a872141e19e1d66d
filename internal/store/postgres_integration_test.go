// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gatehouse/gatehouse/internal/identity"
	identitypg "github.com/gatehouse/gatehouse/internal/identity/postgres"
	"github.com/gatehouse/gatehouse/internal/store"
)

// setupPostgresContainer starts a PostgreSQL container and returns a
// migrated connection pool.
func setupPostgresContainer() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gatehouse_test"),
		postgres.WithUsername("gatehouse"),
		postgres.WithPassword("gatehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	_ = migrator.Close()

	pool, err := store.Connect(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup, nil
}

var _ = Describe("Connect", func() {
	var pool *pgxpool.Pool
	var cleanup func()

	BeforeEach(func() {
		var err error
		pool, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	It("returns a pool that answers queries", func() {
		ctx := context.Background()
		var one int
		err := pool.QueryRow(ctx, "SELECT 1").Scan(&one)
		Expect(err).NotTo(HaveOccurred())
		Expect(one).To(Equal(1))
	})

	It("applies the identity schema constraints", func() {
		ctx := context.Background()

		_, err := pool.Exec(ctx,
			`INSERT INTO users (username, password_hash) VALUES ('alice', 'digest')`)
		Expect(err).NotTo(HaveOccurred())

		// Duplicate username violates the primary key
		_, err = pool.Exec(ctx,
			`INSERT INTO users (username, password_hash) VALUES ('alice', 'other')`)
		Expect(err).To(HaveOccurred())

		// One active session per user via the partial unique index
		_, err = pool.Exec(ctx, `
			INSERT INTO user_sessions (id, token, username, active, created_at, updated_at)
			VALUES ('01HZN3XS000000000000000001', 't1', 'alice', TRUE, now(), now())`)
		Expect(err).NotTo(HaveOccurred())

		_, err = pool.Exec(ctx, `
			INSERT INTO user_sessions (id, token, username, active, created_at, updated_at)
			VALUES ('01HZN3XS000000000000000002', 't2', 'alice', TRUE, now(), now())`)
		Expect(err).To(HaveOccurred())

		// Inactive sessions do not count against the index
		_, err = pool.Exec(ctx, `
			INSERT INTO user_sessions (id, token, username, active, created_at, updated_at)
			VALUES ('01HZN3XS000000000000000003', 't3', 'alice', FALSE, now(), now())`)
		Expect(err).NotTo(HaveOccurred())

		// Sessions for unknown users are rejected
		_, err = pool.Exec(ctx, `
			INSERT INTO user_sessions (id, token, username, active, created_at, updated_at)
			VALUES ('01HZN3XS000000000000000004', 't4', 'ghost', TRUE, now(), now())`)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Identity flow", func() {
	var pool *pgxpool.Pool
	var cleanup func()
	var userMgr *identity.UserManager
	var sessionMgr *identity.SessionManager
	var rightMgr *identity.RightManager

	BeforeEach(func() {
		var err error
		pool, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())

		userRepo := identitypg.NewUserRepository(pool)
		sessionRepo := identitypg.NewSessionRepository(pool)
		rightRepo := identitypg.NewRightRepository(pool)

		validator, err := identity.NewValidator(sessionRepo, rightRepo)
		Expect(err).NotTo(HaveOccurred())

		userMgr, err = identity.NewUserManager(userRepo, validator, identity.NewSHA256Hasher(), "pepper", nil)
		Expect(err).NotTo(HaveOccurred())
		sessionMgr, err = identity.NewSessionManager(sessionRepo, userMgr, nil)
		Expect(err).NotTo(HaveOccurred())
		rightMgr, err = identity.NewRightManager(rightRepo, validator, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	It("supports bootstrap, login, administration, and logout", func() {
		ctx := context.Background()

		By("bootstrapping the administrator")
		_, err := userMgr.BootstrapCreateUser(ctx, "root", "hunter2")
		Expect(err).NotTo(HaveOccurred())
		_, err = rightMgr.BootstrapGrant(ctx, "root", identity.RightAdminUsers)
		Expect(err).NotTo(HaveOccurred())
		_, err = rightMgr.BootstrapGrant(ctx, "root", identity.RightAdminRights)
		Expect(err).NotTo(HaveOccurred())

		By("rejecting bad credentials")
		_, err = sessionMgr.Login(ctx, "root", "wrong")
		Expect(err).To(MatchError(identity.ErrInvalidCredentials))

		By("logging in and reusing the active session")
		token, err := sessionMgr.Login(ctx, "root", "hunter2")
		Expect(err).NotTo(HaveOccurred())
		again, err := sessionMgr.Login(ctx, "root", "hunter2")
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(token))

		By("creating a user through the session")
		_, err = userMgr.CreateUser(ctx, token, "alice", "swordfish")
		Expect(err).NotTo(HaveOccurred())
		_, err = userMgr.CreateUser(ctx, token, "alice", "swordfish")
		Expect(err).To(MatchError(identity.ErrUserExists))

		By("granting and revoking rights idempotently")
		_, err = rightMgr.Grant(ctx, token, "alice", identity.RightViewReports)
		Expect(err).NotTo(HaveOccurred())
		_, err = rightMgr.Grant(ctx, token, "alice", identity.RightViewReports)
		Expect(err).NotTo(HaveOccurred())
		Expect(rightMgr.Revoke(ctx, token, "alice", identity.RightViewReports)).To(Succeed())
		Expect(rightMgr.Revoke(ctx, token, "alice", identity.RightViewReports)).To(Succeed())

		By("denying administration to an unprivileged session")
		aliceToken, err := sessionMgr.Login(ctx, "alice", "swordfish")
		Expect(err).NotTo(HaveOccurred())
		_, err = userMgr.CreateUser(ctx, aliceToken, "bob", "secret")
		Expect(err).To(MatchError(identity.ErrInsufficientRights))

		By("enforcing strict logout")
		Expect(sessionMgr.Logout(ctx, token)).To(Succeed())
		Expect(sessionMgr.Logout(ctx, token)).To(MatchError(identity.ErrSessionNotFound))

		By("issuing a fresh token after logout")
		fresh, err := sessionMgr.Login(ctx, "root", "hunter2")
		Expect(err).NotTo(HaveOccurred())
		Expect(fresh).NotTo(Equal(token))
	})
})
