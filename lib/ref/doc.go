// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable Matrix identifiers:
// user IDs, room IDs, room aliases, event IDs, event types, and server
// names.
//
// Herald receives raw identifier strings from three places — the
// Matrix client-server API, its configuration file, and its own
// subscription database. All of them are parsed into ref types at the
// boundary, so the rest of the code never handles an unvalidated
// identifier. Constructors validate structure (sigil prefix, ':server'
// suffix) and return errors for malformed input; once constructed, a
// ref is an immutable value.
//
// JSON and CBOR serialization use the canonical Matrix string form via
// encoding.TextMarshaler / TextUnmarshaler, which also gives automatic
// validation when identifiers arrive inside decoded API responses.
package ref
