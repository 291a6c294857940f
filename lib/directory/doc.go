// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory maintains the set of people herald can monitor.
//
// A [Person] is a member of the community room, labeled by display
// name (falling back to the user ID localpart) and carrying the roles
// derived from the room's power levels. The [Index] holds an
// immutable snapshot of the directory; rebuilds swap the snapshot
// atomically, so readers never observe a partially updated directory.
package directory
