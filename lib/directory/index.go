// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"sort"
	"sync/atomic"

	"github.com/herald-project/herald/lib/ref"
)

// Index is an atomically replaceable snapshot of the directory.
//
// The sync loop rebuilds the index wholesale whenever community room
// membership or power levels change; delivery workers and the admin
// socket read concurrently. Readers always see a complete snapshot,
// never a partial rebuild.
type Index struct {
	current atomic.Pointer[snapshot]
}

type snapshot struct {
	byLabel map[string]Person
	byID    map[ref.UserID]Person
	labels  []string
}

var emptySnapshot = &snapshot{
	byLabel: map[string]Person{},
	byID:    map[ref.UserID]Person{},
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	index := &Index{}
	index.current.Store(emptySnapshot)
	return index
}

// Rebuild replaces the directory contents with the given people. When
// two people share a label, the later entry wins the label lookup;
// both remain reachable by ID.
func (x *Index) Rebuild(people []Person) {
	next := &snapshot{
		byLabel: make(map[string]Person, len(people)),
		byID:    make(map[ref.UserID]Person, len(people)),
		labels:  make([]string, 0, len(people)),
	}
	for _, person := range people {
		if _, seen := next.byLabel[person.Label]; !seen {
			next.labels = append(next.labels, person.Label)
		}
		next.byLabel[person.Label] = person
		next.byID[person.ID] = person
	}
	sort.Strings(next.labels)
	x.current.Store(next)
}

// Lookup returns the person with the given label.
func (x *Index) Lookup(label string) (Person, bool) {
	person, ok := x.current.Load().byLabel[label]
	return person, ok
}

// LookupID returns the person with the given user ID.
func (x *Index) LookupID(id ref.UserID) (Person, bool) {
	person, ok := x.current.Load().byID[id]
	return person, ok
}

// Labels returns the distinct labels in sorted order. The returned
// slice is shared with the snapshot and must not be modified.
func (x *Index) Labels() []string {
	return x.current.Load().labels
}

// Len returns the number of people in the directory.
func (x *Index) Len() int {
	return len(x.current.Load().byID)
}
