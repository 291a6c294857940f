// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strings"
	"testing"
)

func TestDispatchSelfMessagesDiscarded(t *testing.T) {
	hs, _ := newTestService(t)
	for _, body := range []string{"add wolf", "help", "nonsense"} {
		if response := hs.dispatch(context.Background(), selfID, body); response != "" {
			t.Errorf("dispatch(self, %q) = %q, want no response", body, response)
		}
	}
}

func TestDispatchAddFuzzy(t *testing.T) {
	hs, _ := newTestService(t)
	ctx := context.Background()

	response := hs.dispatch(ctx, observerID, "add wolf")
	want := "Subscribed you to:\n- Woolfer#1420"
	if response != want {
		t.Fatalf("response = %q, want %q", response, want)
	}

	subscribers, err := hs.store.Subscribers(ctx, woolferID)
	if err != nil {
		t.Fatalf("Subscribers: %v", err)
	}
	if len(subscribers) != 1 || subscribers[0] != observerID {
		t.Errorf("subscribers = %v, want [%v]", subscribers, observerID)
	}
}

func TestDispatchAddMultiple(t *testing.T) {
	hs, _ := newTestService(t)

	response := hs.dispatch(context.Background(), observerID, "add wolf ran")
	if !strings.Contains(response, "- Woolfer#1420") || !strings.Contains(response, "- Ran") {
		t.Errorf("response = %q, want both labels listed", response)
	}
}

func TestDispatchAddCaseInsensitiveVerb(t *testing.T) {
	hs, _ := newTestService(t)

	response := hs.dispatch(context.Background(), observerID, "ADD wolf")
	if !strings.HasPrefix(response, "Subscribed you to:") {
		t.Errorf("response = %q, want subscription report", response)
	}
}

func TestDispatchAddAlreadySubscribed(t *testing.T) {
	hs, _ := newTestService(t)
	ctx := context.Background()

	hs.dispatch(ctx, observerID, "add wolf")
	response := hs.dispatch(ctx, observerID, "add wolf")
	if !strings.Contains(response, "already subscribed") {
		t.Errorf("response = %q, want already-subscribed message", response)
	}
}

func TestDispatchAddDuplicateArgs(t *testing.T) {
	hs, _ := newTestService(t)

	// Duplicates collapse to one resolution and one store push, so
	// the report names the person once.
	response := hs.dispatch(context.Background(), observerID, "add wolf wolf wolf")
	want := "Subscribed you to:\n- Woolfer#1420"
	if response != want {
		t.Errorf("response = %q, want %q", response, want)
	}
}

func TestDispatchAddIneligiblePerson(t *testing.T) {
	hs, _ := newTestService(t)
	ctx := context.Background()

	// "Plain" is in the directory fixture without any role; add must
	// skip them even though the name resolves exactly.
	response := hs.dispatch(ctx, observerID, "add Plain")
	if !strings.Contains(response, "already subscribed") {
		t.Errorf("response = %q, want aggregate miss message", response)
	}
	subscribers, err := hs.store.Subscribers(ctx, plainID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subscribers) != 0 {
		t.Errorf("ineligible person gained subscribers: %v", subscribers)
	}
}

func TestDispatchAddEmptyDirectory(t *testing.T) {
	hs, _ := newTestService(t)
	hs.index.Rebuild(nil)

	response := hs.dispatch(context.Background(), observerID, "add wolf")
	if !strings.Contains(response, "already subscribed") {
		t.Errorf("response = %q, want aggregate miss message", response)
	}
}

func TestDispatchDel(t *testing.T) {
	hs, _ := newTestService(t)
	ctx := context.Background()

	hs.dispatch(ctx, observerID, "add wolf")
	response := hs.dispatch(ctx, observerID, "del wolf")
	want := "Unsubscribed you from:\n- Woolfer#1420"
	if response != want {
		t.Fatalf("response = %q, want %q", response, want)
	}

	subscribers, err := hs.store.Subscribers(ctx, woolferID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subscribers) != 0 {
		t.Errorf("subscribers = %v, want empty", subscribers)
	}
}

func TestDispatchDelNotSubscribed(t *testing.T) {
	hs, _ := newTestService(t)

	response := hs.dispatch(context.Background(), observerID, "del wolf")
	if response != "You're wrong." {
		t.Errorf("response = %q, want You're wrong.", response)
	}
}

func TestDispatchDelIneligiblePerson(t *testing.T) {
	hs, _ := newTestService(t)
	ctx := context.Background()

	// Subscribe while eligible, then drop the role. del must still
	// remove the subscription.
	hs.dispatch(ctx, observerID, "add wolf")

	people := testPeople()
	people[0].Roles = nil
	hs.index.Rebuild(people)

	response := hs.dispatch(ctx, observerID, "del wolf")
	want := "Unsubscribed you from:\n- Woolfer#1420"
	if response != want {
		t.Errorf("response = %q, want %q", response, want)
	}
}

func TestDispatchHelp(t *testing.T) {
	hs, _ := newTestService(t)

	if response := hs.dispatch(context.Background(), observerID, "help"); response != helpText {
		t.Errorf("help response = %q, want help text", response)
	}
	if response := hs.dispatch(context.Background(), observerID, "HELP"); response != helpText {
		t.Errorf("HELP response = %q, want help text", response)
	}
}

func TestDispatchValidationFailures(t *testing.T) {
	hs, _ := newTestService(t)
	ctx := context.Background()

	longArg := strings.Repeat("x", maxArgumentBytes+1)
	manyArgs := "add " + strings.TrimSpace(strings.Repeat("a ", maxCommandArgs+1))

	cases := []struct {
		name string
		body string
	}{
		{"add without args", "add"},
		{"del without args", "del"},
		{"help with args", "help me"},
		{"unknown verb", "subscribe wolf"},
		{"empty message", "   "},
		{"overlong argument", "add " + longArg},
		{"too many arguments", manyArgs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if response := hs.dispatch(ctx, observerID, tc.body); response != readHelp {
				t.Errorf("dispatch(%q) = %q, want help redirect", tc.body, response)
			}
		})
	}

	// None of the rejected commands may have touched the store.
	pairs, err := hs.store.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 0 {
		t.Errorf("store has %d pairs after rejected commands, want 0", len(pairs))
	}
}

func TestValidateArgs(t *testing.T) {
	cases := []struct {
		name string
		args []string
		min  int
		want bool
	}{
		{"one arg ok", []string{"wolf"}, 1, true},
		{"zero args below min", nil, 1, false},
		{"zero args for help", nil, 0, true},
		{"max args", make([]string, maxCommandArgs), 1, true},
		{"too many args", make([]string, maxCommandArgs+1), 1, false},
		{"arg at length limit", []string{strings.Repeat("a", maxArgumentBytes)}, 1, true},
		{"arg over length limit", []string{strings.Repeat("a", maxArgumentBytes+1)}, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := validateArgs(tc.args, tc.min); got != tc.want {
				t.Errorf("validateArgs(%d args, min=%d) = %v, want %v", len(tc.args), tc.min, got, tc.want)
			}
		})
	}
}
