// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API for herald's
// communication needs.
//
// The package provides two core types. [Client] is an unauthenticated
// Matrix client that handles password login, returning authenticated
// [DirectSession] values. Client holds the homeserver URL and HTTP
// transport, shared across all sessions derived from it.
//
// [DirectSession] wraps a Client with an access token for
// authenticated operations: room management (create, join, leave,
// invite), message sending with idempotent transaction IDs, state
// reads, incremental sync with long-polling, room alias resolution,
// membership and profile lookups, and identity verification (WhoAmI).
//
// The access token lives in mmap-backed secret.Buffer memory, locked
// against swap and excluded from core dumps; callers must call
// DirectSession.Close to release it.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_NOT_FOUND, etc.) and HTTP status
// code. [IsMatrixError] tests for a specific error code. Request URLs
// are built by string concatenation rather than url.URL to avoid
// double-encoding of path segments that contain URL-encoded
// characters (such as room aliases).
package messaging
