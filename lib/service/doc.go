// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the long-running-service plumbing the
// herald binary is built on: session persistence, the Matrix /sync
// long-poll loop with backoff, invite acceptance, and the CBOR admin
// socket.
//
// The pieces are deliberately independent. LoadSession/SaveSession
// deal only with the session file; InitialSync and RunSyncLoop deal
// only with /sync; SocketServer deals only with the local admin
// protocol. The binary's main wires them together.
package service
