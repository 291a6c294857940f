// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive data.
// Herald uses it for two secrets: the Matrix access token held by the
// session, and the account password read at login.
//
// [Buffer] allocates memory outside the Go heap via
// mmap(MAP_ANONYMOUS), locks it into physical RAM via mlock
// (preventing swap), and marks it excluded from core dumps via
// madvise(MADV_DONTDUMP). On Close, the memory is zeroed, unlocked,
// and unmapped. Because the memory lives outside the Go heap, the
// garbage collector cannot copy or relocate it, so secret material
// does not persist after release.
//
// [ReadFromPath] loads a secret from a file (or stdin with "-"),
// trimming surrounding whitespace and zeroing every intermediate
// copy. [Zero] clears transient byte slices that briefly held secret
// material, such as a decoded session file.
//
// Depends only on golang.org/x/sys/unix.
package secret
