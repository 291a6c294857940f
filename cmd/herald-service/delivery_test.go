// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/herald-project/herald/lib/ref"
	"github.com/herald-project/herald/lib/testutil"
)

func TestDeliverCreatesAndCachesDirectRoom(t *testing.T) {
	hs, session := newTestService(t)
	ctx := context.Background()
	d := newDeliverer(ctx, session, hs.store, 1, testLogger())
	defer d.stop()

	d.enqueue(notificationJob{recipient: observerID, text: "first"})
	first := testutil.RequireReceive(t, session.sent, 5*time.Second, "first delivery")

	d.enqueue(notificationJob{recipient: observerID, text: "second"})
	second := testutil.RequireReceive(t, session.sent, 5*time.Second, "second delivery")

	if len(session.createdRooms) != 1 {
		t.Fatalf("CreateRoom called %d times, want 1", len(session.createdRooms))
	}
	if first.roomID != second.roomID {
		t.Errorf("deliveries used different rooms: %v, %v", first.roomID, second.roomID)
	}
	if first.body != "first" || second.body != "second" {
		t.Errorf("bodies = %q, %q", first.body, second.body)
	}

	request := session.createdRooms[0]
	if !request.IsDirect {
		t.Error("direct room not marked is_direct")
	}
	if request.Preset != "trusted_private_chat" {
		t.Errorf("preset = %q, want trusted_private_chat", request.Preset)
	}
	if len(request.Invite) != 1 || request.Invite[0] != observerID {
		t.Errorf("invite = %v, want [%v]", request.Invite, observerID)
	}

	// The room survives in the store for the next process.
	cached, found, err := hs.store.DMRoom(ctx, observerID)
	if err != nil || !found {
		t.Fatalf("DMRoom: found=%v err=%v", found, err)
	}
	if cached != first.roomID {
		t.Errorf("cached room = %v, want %v", cached, first.roomID)
	}
}

func TestDeliverUsesStoredRoom(t *testing.T) {
	hs, session := newTestService(t)
	ctx := context.Background()

	existing := ref.MustParseRoomID("!existing:example.com")
	if err := hs.store.SetDMRoom(ctx, observerID, existing); err != nil {
		t.Fatal(err)
	}

	d := newDeliverer(ctx, session, hs.store, 1, testLogger())
	defer d.stop()

	d.enqueue(notificationJob{recipient: observerID, text: "hello"})
	sent := testutil.RequireReceive(t, session.sent, 5*time.Second, "delivery")

	if sent.roomID != existing {
		t.Errorf("delivered to %v, want stored room %v", sent.roomID, existing)
	}
	if len(session.createdRooms) != 0 {
		t.Errorf("CreateRoom called %d times, want 0", len(session.createdRooms))
	}
}

func TestDeliveryFailureIsIsolated(t *testing.T) {
	hs, session := newTestService(t)
	ctx := context.Background()
	session.createErr = errors.New("room creation forbidden")

	d := newDeliverer(ctx, session, hs.store, 1, testLogger())

	// A failing job must not wedge the worker: a later job for a
	// recipient with a cached room still goes out.
	existing := ref.MustParseRoomID("!existing:example.com")
	if err := hs.store.SetDMRoom(ctx, observer2ID, existing); err != nil {
		t.Fatal(err)
	}

	d.enqueue(notificationJob{recipient: observerID, text: "doomed"})
	d.enqueue(notificationJob{recipient: observer2ID, text: "fine"})
	d.stop()

	sent := testutil.RequireReceive(t, session.sent, 5*time.Second, "surviving delivery")
	if sent.roomID != existing || sent.body != "fine" {
		t.Errorf("sent = %+v, want fine to %v", sent, existing)
	}
	select {
	case extra := <-session.sent:
		t.Errorf("unexpected extra delivery: %+v", extra)
	default:
	}
}
