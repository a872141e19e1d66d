// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatehouse/gatehouse/internal/identity"
)

func TestSHA256Hasher_KnownVector(t *testing.T) {
	hasher := identity.NewSHA256Hasher()

	// sha256("secret" + "alice" + "pepper")
	digest := hasher.Hash("secret", "alice", "pepper")
	assert.Equal(t, "786eb407524181dfc4699abe602c056f1eb3044c3e77dc5a950809c91252f2d3", digest)
}

func TestSHA256Hasher_EmptySalt(t *testing.T) {
	hasher := identity.NewSHA256Hasher()

	// sha256("swordfish" + "alice" + "")
	digest := hasher.Hash("swordfish", "alice", "")
	assert.Equal(t, "247455b692bbf74b867cda2b620055204d28a8903eb091272ac9be3b94818d1e", digest)
}

func TestSHA256Hasher_Deterministic(t *testing.T) {
	hasher := identity.NewSHA256Hasher()

	first := hasher.Hash("secret", "alice", "pepper")
	second := hasher.Hash("secret", "alice", "pepper")
	assert.Equal(t, first, second)
}

func TestSHA256Hasher_SuffixSeparatesUsers(t *testing.T) {
	hasher := identity.NewSHA256Hasher()

	// Same password, different owning usernames.
	alice := hasher.Hash("secret", "alice", "pepper")
	bob := hasher.Hash("secret", "bob", "pepper")
	assert.NotEqual(t, alice, bob)
}

func TestSHA256Hasher_DigestLength(t *testing.T) {
	hasher := identity.NewSHA256Hasher()

	assert.Len(t, hasher.Hash("", "", ""), 64)
	assert.Len(t, hasher.Hash("secret", "alice", "pepper"), 64)
}

func TestHashEqual(t *testing.T) {
	hasher := identity.NewSHA256Hasher()
	digest := hasher.Hash("secret", "alice", "pepper")

	assert.True(t, identity.HashEqual(digest, digest))
	assert.False(t, identity.HashEqual(digest, hasher.Hash("wrong", "alice", "pepper")))
	assert.False(t, identity.HashEqual(digest, ""))
}
