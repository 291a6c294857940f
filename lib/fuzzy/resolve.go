// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package fuzzy

import (
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Resolve returns the candidate that best matches the query. Matching
// is case-insensitive. Ties go to the earlier candidate in slice
// order, so callers with a preference (e.g. sorted directory labels)
// get deterministic results.
//
// Resolve reports no match only when candidates is empty.
func Resolve(query string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	pattern := []rune(strings.ToLower(query))
	slab := util.MakeSlab(100*1024, 2048)

	best := -1
	bestScore := 0
	for index, candidate := range candidates {
		chars := util.ToChars([]byte(strings.ToLower(candidate)))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
		if result.Score > bestScore {
			bestScore = result.Score
			best = index
		}
	}
	if best >= 0 {
		return candidates[best], true
	}

	// No candidate contains the query as a subsequence. Fall back to
	// edit distance so the caller still gets the nearest name.
	best = 0
	bestDistance := levenshtein(strings.ToLower(query), strings.ToLower(candidates[0]))
	for index, candidate := range candidates[1:] {
		distance := levenshtein(strings.ToLower(query), strings.ToLower(candidate))
		if distance < bestDistance {
			bestDistance = distance
			best = index + 1
		}
	}
	return candidates[best], true
}

// levenshtein computes the Levenshtein edit distance between two
// strings: the minimum number of single-character edits (insertions,
// deletions, or substitutions) required to change one into the other.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Use a single row of the distance matrix, updated in place.
	// This is O(min(m,n)) space instead of O(m*n).
	if len(a) > len(b) {
		a, b = b, a
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}

	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[i] = min(
				previous[i]+1,      // deletion
				current[i-1]+1,     // insertion
				previous[i-1]+cost, // substitution
			)
		}
		previous = current
	}

	return previous[len(a)]
}
