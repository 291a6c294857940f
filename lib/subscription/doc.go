// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package subscription persists herald's durable state: who watches
// whom, and the direct room used to notify each observer.
//
// The relation is many-to-many. A target may have any number of
// subscribers, a subscriber any number of targets. Subscriptions
// survive directory rebuilds: they key on Matrix user IDs, not on the
// display-name labels people type in commands, so a renamed person
// keeps their subscribers.
//
// Storage is a single SQLite file behind a lib/sqlitepool pool.
// Mutations are idempotent at the SQL level (INSERT OR IGNORE, bare
// DELETE) and report whether they changed anything, which the command
// dispatcher turns into per-name feedback.
package subscription
