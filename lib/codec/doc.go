// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides herald's standard CBOR encoding configuration.
//
// Herald uses two serialization formats with a clear boundary: JSON for
// the Matrix Client-Server API and CBOR for the local admin socket
// protocol. This package holds the shared CBOR modes so that every
// caller encodes identically without duplicating configuration.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): the same
// logical data always produces identical bytes. Decoding ignores
// unknown fields for forward compatibility.
package codec
