// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/herald-project/herald/lib/clock"
	"github.com/herald-project/herald/lib/config"
	"github.com/herald-project/herald/lib/directory"
	"github.com/herald-project/herald/lib/ref"
	"github.com/herald-project/herald/lib/subscription"
	"github.com/herald-project/herald/messaging"
)

var (
	selfID       = ref.MustParseUserID("@herald:example.com")
	woolferID    = ref.MustParseUserID("@woolfer:example.com")
	ranID        = ref.MustParseUserID("@ran:example.com")
	norteID      = ref.MustParseUserID("@norte:example.com")
	plainID      = ref.MustParseUserID("@plain:example.com")
	observerID   = ref.MustParseUserID("@observer:example.com")
	observer2ID  = ref.MustParseUserID("@observer2:example.com")
	communityID  = ref.MustParseRoomID("!community:example.com")
	consultingID = ref.MustParseRoomID("!consult1:example.com")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// fakeSession implements the messaging.Session methods the service
// and deliverer exercise. The embedded interface panics on anything
// not overridden.
type fakeSession struct {
	messaging.Session

	// createdRooms counts CreateRoom calls; each call mints a fresh
	// room ID reported on the sent channel consumers.
	createdRooms []messaging.CreateRoomRequest
	createErr    error

	// sent receives one entry per SendMessage call.
	sent    chan sentMessage
	sendErr error

	members     []messaging.RoomMember
	powerLevels messaging.PowerLevelsContent
	roomState   map[ref.RoomID][]messaging.Event
}

type sentMessage struct {
	roomID ref.RoomID
	body   string
}

func (f *fakeSession) UserID() ref.UserID { return selfID }

func (f *fakeSession) CreateRoom(ctx context.Context, request messaging.CreateRoomRequest) (*messaging.CreateRoomResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdRooms = append(f.createdRooms, request)
	roomID := ref.MustParseRoomID("!dm" + string(rune('0'+len(f.createdRooms))) + ":example.com")
	return &messaging.CreateRoomResponse{RoomID: roomID}, nil
}

func (f *fakeSession) SendMessage(ctx context.Context, roomID ref.RoomID, content messaging.MessageContent) (ref.EventID, error) {
	if f.sendErr != nil {
		return ref.EventID{}, f.sendErr
	}
	if f.sent != nil {
		f.sent <- sentMessage{roomID: roomID, body: content.Body}
	}
	return ref.MustParseEventID("$sent:example.com"), nil
}

func (f *fakeSession) GetRoomMembers(ctx context.Context, roomID ref.RoomID) ([]messaging.RoomMember, error) {
	return f.members, nil
}

func (f *fakeSession) GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error) {
	return json.Marshal(f.powerLevels)
}

func (f *fakeSession) GetRoomState(ctx context.Context, roomID ref.RoomID) ([]messaging.Event, error) {
	return f.roomState[roomID], nil
}

func (f *fakeSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	return roomID, nil
}

// testPeople is the directory fixture: three monitorable people and
// one ordinary member kept to verify the add eligibility check.
func testPeople() []directory.Person {
	return []directory.Person{
		{ID: woolferID, Label: "Woolfer#1420", Roles: []string{directory.RoleStaff}},
		{ID: ranID, Label: "Ran", Roles: []string{directory.RoleStaff, directory.RoleAdmin}},
		{ID: norteID, Label: "Norte", Roles: []string{directory.RoleStaff}},
		{ID: plainID, Label: "Plain"},
	}
}

// newTestService builds a heraldService with a real SQLite store in a
// temp directory, a populated directory index, and a fake session.
func newTestService(t *testing.T) (*heraldService, *fakeSession) {
	t.Helper()

	store, err := subscription.OpenStore(subscription.StoreConfig{
		Path:   filepath.Join(t.TempDir(), "herald.db"),
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	session := &fakeSession{
		sent: make(chan sentMessage, 16),
	}

	cfg := config.Default()
	cfg.Community.RoomAlias = "#community:example.com"

	index := directory.NewIndex()
	index.Rebuild(testPeople())

	clk := clock.NewFake(time.Now())

	hs := &heraldService{
		session:         session,
		selfID:          selfID,
		clock:           clk,
		startedAt:       clk.Now(),
		config:          cfg,
		store:           store,
		index:           index,
		communityRoomID: communityID,
		roomNames: map[ref.RoomID]string{
			communityID:  "Community",
			consultingID: "Consultation 1",
		},
		logger: testLogger(),
	}
	return hs, session
}
