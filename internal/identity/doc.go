// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package identity is the identity and access core of Gatehouse.
//
// It holds the user directory, the session lifecycle, the rights registry,
// and the enforcement engine composing them. Storage is consumed through
// repository interfaces; the PostgreSQL implementations live in the
// postgres subpackage. Presentation concerns (REST mapping, status codes)
// live outside this package; operations here return typed errors only.
package identity
