// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hasher derives credential digests.
//
// Hash is a deterministic one-way function over password ∥ suffix ∥ salt.
// The suffix is always the owning username, so identical passwords never
// collide across users; the salt is a deployment-wide secret from
// configuration (empty salt is a declared weaker mode, not an error).
type Hasher interface {
	Hash(password, suffix, salt string) string
}

// SHA256Hasher implements Hasher with a hex-encoded SHA-256 digest,
// byte-compatible with existing user rows.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// Hash returns the hex SHA-256 digest of password ∥ suffix ∥ salt.
func (*SHA256Hasher) Hash(password, suffix, salt string) string {
	sum := sha256.Sum256([]byte(password + suffix + salt))
	return hex.EncodeToString(sum[:])
}

// HashEqual compares two credential digests in constant time.
// Digest equality must never be decided by a naive string compare.
func HashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Compile-time interface check.
var _ Hasher = (*SHA256Hasher)(nil)
