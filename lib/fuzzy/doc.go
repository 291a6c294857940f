// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuzzy resolves free-form names typed in commands to
// directory labels.
//
// Resolution always returns the best candidate, however weak the
// match: users typing "wolf" expect "Woolfer#1420" even though the
// strings share only a subsequence. The primary scorer is fzf's
// FuzzyMatchV2; when no candidate gets a positive fzf score
// (the query is not a subsequence of any label), resolution falls
// back to Levenshtein edit distance so that a best match still
// exists. Only an empty candidate set produces no match.
package fuzzy
