// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/herald-project/herald/lib/clock"
	"github.com/herald-project/herald/lib/ref"
	"github.com/herald-project/herald/lib/testutil"
	"github.com/herald-project/herald/messaging"
)

// fakeSession implements the messaging.Session methods the sync loop
// uses. The embedded interface panics on anything not overridden,
// which catches unexpected calls.
type fakeSession struct {
	messaging.Session

	syncFunc func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error)

	joined   []ref.RoomID
	joinErrs map[ref.RoomID]error
}

func (f *fakeSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	return f.syncFunc(ctx, options)
}

func (f *fakeSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	if err := f.joinErrs[roomID]; err != nil {
		return ref.RoomID{}, err
	}
	f.joined = append(f.joined, roomID)
	return roomID, nil
}

func TestInitialSync(t *testing.T) {
	var gotOptions messaging.SyncOptions
	session := &fakeSession{
		syncFunc: func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
			gotOptions = options
			return &messaging.SyncResponse{NextBatch: "s100"}, nil
		},
	}

	next, response, err := InitialSync(context.Background(), session, `{"room":{}}`)
	if err != nil {
		t.Fatalf("InitialSync: %v", err)
	}
	if next != "s100" {
		t.Errorf("next batch = %q, want s100", next)
	}
	if response.NextBatch != "s100" {
		t.Errorf("response next batch = %q, want s100", response.NextBatch)
	}
	if gotOptions.Since != "" {
		t.Errorf("initial sync sent since=%q, want empty", gotOptions.Since)
	}
	if gotOptions.SetTimeout {
		t.Error("initial sync set a timeout; it should return immediately")
	}
	if gotOptions.Filter != `{"room":{}}` {
		t.Errorf("filter = %q", gotOptions.Filter)
	}
}

func TestInitialSyncError(t *testing.T) {
	session := &fakeSession{
		syncFunc: func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	_, _, err := InitialSync(context.Background(), session, "")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRunSyncLoopAdvancesSinceToken(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinceTokens := make(chan string, 3)
	batch := 0
	session := &fakeSession{
		syncFunc: func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
			testutil.RequireSend(t, sinceTokens, options.Since, 5*time.Second, "recording since token")
			batch++
			if batch == 3 {
				cancel()
				return nil, ctx.Err()
			}
			return &messaging.SyncResponse{NextBatch: "s" + string(rune('0'+batch))}, nil
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSyncLoop(ctx, session, SyncConfig{}, "s0", func(ctx context.Context, response *messaging.SyncResponse) {}, clock.NewFake(time.Now()), testLogger())
	}()
	testutil.RequireClosed(t, done, 5*time.Second, "sync loop exit")

	if got := testutil.RequireReceive(t, sinceTokens, time.Second); got != "s0" {
		t.Errorf("first since = %q, want s0", got)
	}
	if got := testutil.RequireReceive(t, sinceTokens, time.Second); got != "s1" {
		t.Errorf("second since = %q, want s1", got)
	}
	if got := testutil.RequireReceive(t, sinceTokens, time.Second); got != "s2" {
		t.Errorf("third since = %q, want s2", got)
	}
}

func TestRunSyncLoopBacksOffOnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := clock.NewFake(time.Now())

	calls := make(chan int, 16)
	attempt := 0
	session := &fakeSession{
		syncFunc: func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
			attempt++
			testutil.RequireSend(t, calls, attempt, 5*time.Second, "recording sync attempt")
			if attempt < 4 {
				return nil, errors.New("homeserver unavailable")
			}
			cancel()
			return nil, ctx.Err()
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSyncLoop(ctx, session, SyncConfig{MaxBackoff: 2 * time.Second}, "s0", func(ctx context.Context, response *messaging.SyncResponse) {}, clk, testLogger())
	}()

	// Each failed attempt parks the loop on the fake clock. Advancing
	// past the backoff releases the next attempt: 1s, 2s, then capped
	// at MaxBackoff.
	for _, backoff := range []time.Duration{time.Second, 2 * time.Second, 2 * time.Second} {
		testutil.RequireReceive(t, calls, 5*time.Second, "sync attempt")
		waitForWaiter(t, clk)
		clk.Advance(backoff)
	}
	testutil.RequireReceive(t, calls, 5*time.Second, "final sync attempt")
	testutil.RequireClosed(t, done, 5*time.Second, "sync loop exit")
}

func TestRunSyncLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeSession{
		syncFunc: func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
			cancel()
			return nil, ctx.Err()
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSyncLoop(ctx, session, SyncConfig{}, "", func(ctx context.Context, response *messaging.SyncResponse) {}, clock.NewFake(time.Now()), testLogger())
	}()
	testutil.RequireClosed(t, done, 5*time.Second, "sync loop exit after cancel")
}

func waitForWaiter(t *testing.T, clk *clock.Fake) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for clk.Waiters() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for sync loop to block on backoff")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAcceptInvites(t *testing.T) {
	goodRoom := ref.MustParseRoomID("!good:example.com")
	badRoom := ref.MustParseRoomID("!bad:example.com")
	session := &fakeSession{
		joinErrs: map[ref.RoomID]error{
			badRoom: errors.New("forbidden"),
		},
	}

	invites := map[ref.RoomID]messaging.InvitedRoom{
		goodRoom: {},
		badRoom:  {},
	}
	accepted := AcceptInvites(context.Background(), session, invites, testLogger())

	if len(accepted) != 1 || accepted[0] != goodRoom {
		t.Errorf("accepted = %v, want [%v]", accepted, goodRoom)
	}
	if len(session.joined) != 1 {
		t.Errorf("joined %d rooms, want 1", len(session.joined))
	}
}

func TestAcceptInvitesEmpty(t *testing.T) {
	session := &fakeSession{}
	accepted := AcceptInvites(context.Background(), session, nil, testLogger())
	if accepted != nil {
		t.Errorf("accepted = %v, want nil", accepted)
	}
}
