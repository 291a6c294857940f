// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// herald-service watches consultation rooms and privately notifies
// subscribed observers when a monitorable person joins one.
//
// The service maintains a directory of monitorable people from the
// community room's membership and power levels, rebuilt wholesale on
// every membership or power change. Observers manage subscriptions by
// messaging the service with add/del/help commands; person arguments
// are matched fuzzily against directory labels, so `add wolf` finds
// `Woolfer#1420`.
//
// State lives in a single SQLite database: the subscription relation
// and the per-observer direct-message room cache. The Matrix session
// is persisted in the state directory so restarts reuse the access
// token. A CBOR admin socket exposes status and subscription
// inspection.
package main
