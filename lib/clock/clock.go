// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for code that sleeps or schedules,
// so that retry backoff and timeout behavior can be tested without
// real waiting. Production code uses Real; tests use a Fake whose
// time only moves when the test advances it.
package clock

import "time"

// Clock is the time surface herald depends on. It covers reading the
// current time and waiting, which is all the sync loop's backoff and
// the delivery workers need.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that delivers the current time once d
	// has elapsed.
	After(d time.Duration) <-chan time.Time

	// Sleep blocks until d has elapsed.
	Sleep(d time.Duration)
}
