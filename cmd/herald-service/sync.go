// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/herald-project/herald/lib/directory"
	"github.com/herald-project/herald/lib/ref"
	"github.com/herald-project/herald/lib/service"
	"github.com/herald-project/herald/messaging"
)

// Matrix event types herald consumes.
const (
	eventTypeMember      ref.EventType = "m.room.member"
	eventTypePowerLevels ref.EventType = "m.room.power_levels"
	eventTypeRoomName    ref.EventType = "m.room.name"
	eventTypeMessage     ref.EventType = "m.room.message"
)

// syncFilter restricts /sync responses to the event types herald
// consumes: membership and power levels (directory rebuilds and room
// entries), room names (consultation room classification), and
// messages (commands).
var syncFilter = buildSyncFilter()

func buildSyncFilter() string {
	stateEventTypes := []ref.EventType{
		eventTypeMember,
		eventTypePowerLevels,
		eventTypeRoomName,
	}

	// Timeline includes the state types because state changes arrive
	// as timeline events during incremental sync. The limit is
	// generous: a missed member join is a missed notification.
	timelineEventTypes := append([]ref.EventType{eventTypeMessage}, stateEventTypes...)

	emptyTypes := []string{}

	filter := map[string]any{
		"room": map[string]any{
			"state": map[string]any{
				"types": stateEventTypes,
			},
			"timeline": map[string]any{
				"types": timelineEventTypes,
				"limit": 100,
			},
			"ephemeral": map[string]any{
				"types": emptyTypes,
			},
			"account_data": map[string]any{
				"types": emptyTypes,
			},
		},
		"presence": map[string]any{
			"types": emptyTypes,
		},
		"account_data": map[string]any{
			"types": emptyTypes,
		},
	}

	data, err := json.Marshal(filter)
	if err != nil {
		panic("building sync filter: " + err.Error())
	}
	return string(data)
}

// initialSync performs the first /sync, accepts pending invites,
// records room names, and builds the directory from the community
// room. Returns the since token for the incremental loop.
func (hs *heraldService) initialSync(ctx context.Context) (string, error) {
	sinceToken, response, err := service.InitialSync(ctx, hs.session, syncFilter)
	if err != nil {
		return "", err
	}

	hs.logger.Info("initial sync complete",
		"joined_rooms", len(response.Rooms.Join),
		"pending_invites", len(response.Rooms.Invite),
	)

	// Accept invites that arrived while the service was offline.
	accepted := service.AcceptInvites(ctx, hs.session, response.Rooms.Invite, hs.logger)

	for roomID, room := range response.Rooms.Join {
		hs.recordRoomNames(roomID, room.State.Events)
		hs.recordRoomNames(roomID, room.Timeline.Events)
	}

	// Accepted rooms don't appear in Rooms.Join until the next /sync
	// batch. Fetch their state directly so consultation rooms are
	// classified before the incremental loop starts.
	for _, roomID := range accepted {
		events, err := hs.session.GetRoomState(ctx, roomID)
		if err != nil {
			hs.logger.Error("failed to fetch state for accepted room",
				"room_id", roomID,
				"error", err,
			)
			continue
		}
		hs.recordRoomNames(roomID, events)
	}

	// The community room defines the directory; starting without it
	// would mean no person is monitorable and every command fails.
	if err := hs.rebuildDirectory(ctx); err != nil {
		return "", fmt.Errorf("building directory: %w", err)
	}

	hs.logger.Info("directory built",
		"people", hs.index.Len(),
		"consultation_rooms", hs.consultationRoomCount(),
	)

	return sinceToken, nil
}

// handleSync processes one incremental /sync response. Called from
// the single sync loop goroutine; room-name tracking and directory
// rebuilds happen here only.
//
// Ordering within a batch: names and invites first, then one
// directory rebuild if community state changed, then room-entry
// routing and command dispatch. Rebuilding before routing means an
// entry in the same batch as a role grant is notified with the
// person's fresh directory state.
func (hs *heraldService) handleSync(ctx context.Context, response *messaging.SyncResponse) {
	if len(response.Rooms.Invite) > 0 {
		accepted := service.AcceptInvites(ctx, hs.session, response.Rooms.Invite, hs.logger)
		for _, roomID := range accepted {
			events, err := hs.session.GetRoomState(ctx, roomID)
			if err != nil {
				hs.logger.Error("failed to fetch state for accepted room",
					"room_id", roomID,
					"error", err,
				)
				continue
			}
			hs.recordRoomNames(roomID, events)
		}
	}

	for roomID := range response.Rooms.Leave {
		hs.forgetRoom(roomID)
		if roomID == hs.communityRoomID {
			hs.logger.Error("removed from community room; directory is frozen until rejoined")
		}
	}

	rebuildNeeded := false
	var entries []roomEntry
	type inboundMessage struct {
		sender ref.UserID
		body   string
	}
	var messages []inboundMessage

	for roomID, room := range response.Rooms.Join {
		hs.recordRoomNames(roomID, room.State.Events)

		for _, event := range room.Timeline.Events {
			switch event.Type {
			case eventTypeRoomName:
				if event.StateKey != nil {
					hs.recordRoomNames(roomID, []messaging.Event{event})
				}
			case eventTypePowerLevels:
				if roomID == hs.communityRoomID {
					rebuildNeeded = true
				}
			case eventTypeMember:
				if roomID == hs.communityRoomID {
					rebuildNeeded = true
				}
				if entry, ok := hs.roomEntryFromEvent(roomID, event); ok {
					entries = append(entries, entry)
				}
			case eventTypeMessage:
				sender := event.Sender
				if body, ok := textBody(event); ok {
					messages = append(messages, inboundMessage{sender: sender, body: body})
				}
			}
		}

		if roomID == hs.communityRoomID {
			for _, event := range room.State.Events {
				if event.Type == eventTypeMember || event.Type == eventTypePowerLevels {
					rebuildNeeded = true
				}
			}
		}
	}

	// One wholesale rebuild per batch regardless of how many member
	// or power events arrived.
	if rebuildNeeded {
		if err := hs.rebuildDirectory(ctx); err != nil {
			hs.logger.Error("directory rebuild failed", "error", err)
		} else {
			hs.logger.Info("directory rebuilt", "people", hs.index.Len())
		}
	}

	for _, entry := range entries {
		for _, job := range hs.onRoomEntry(ctx, entry) {
			hs.deliverer.enqueue(job)
		}
	}

	for _, message := range messages {
		response := hs.dispatch(ctx, message.sender, message.body)
		if response == "" {
			continue
		}
		hs.deliverer.enqueue(notificationJob{
			recipient: message.sender,
			text:      response,
		})
	}
}

// roomEntryFromEvent extracts a room entry from a member timeline
// event. Only fresh joins count: a membership of "join" whose prior
// membership was also "join" is a profile update (display name or
// avatar change), not an entry.
func (hs *heraldService) roomEntryFromEvent(roomID ref.RoomID, event messaging.Event) (roomEntry, bool) {
	if event.StateKey == nil {
		return roomEntry{}, false
	}
	membership, _ := event.Content["membership"].(string)
	if membership != "join" {
		return roomEntry{}, false
	}
	if event.Unsigned != nil {
		if prev, ok := event.Unsigned.PrevContent["membership"].(string); ok && prev == "join" {
			return roomEntry{}, false
		}
	}

	userID, err := ref.ParseUserID(*event.StateKey)
	if err != nil {
		return roomEntry{}, false
	}
	if userID == hs.selfID {
		return roomEntry{}, false
	}

	return roomEntry{
		userID:   userID,
		roomName: hs.roomName(roomID),
	}, true
}

// textBody extracts the body of an m.text message event.
func textBody(event messaging.Event) (string, bool) {
	if msgtype, _ := event.Content["msgtype"].(string); msgtype != "m.text" {
		return "", false
	}
	body, ok := event.Content["body"].(string)
	return body, ok
}

// rebuildDirectory replaces the directory with the community room's
// current joined members that hold an eligible role. Power levels map
// to roles with the Element convention (50 staff, 100 admin).
func (hs *heraldService) rebuildDirectory(ctx context.Context) error {
	members, err := hs.session.GetRoomMembers(ctx, hs.communityRoomID)
	if err != nil {
		return fmt.Errorf("fetching community members: %w", err)
	}

	power, err := messaging.GetState[messaging.PowerLevelsContent](
		ctx, hs.session, hs.communityRoomID, eventTypePowerLevels, "")
	if err != nil {
		return fmt.Errorf("fetching community power levels: %w", err)
	}

	var people []directory.Person
	for _, member := range members {
		if member.Membership != "join" || member.UserID == hs.selfID {
			continue
		}
		level, ok := power.Users[member.UserID]
		if !ok {
			level = power.UsersDefault
		}
		person := directory.Person{
			ID:    member.UserID,
			Label: directory.LabelFor(member.UserID, member.DisplayName),
			Roles: directory.RolesForPower(level),
		}
		if !person.HasAnyRole(hs.config.Community.EligibleRoles) {
			continue
		}
		people = append(people, person)
	}

	hs.index.Rebuild(people)
	return nil
}

// --- Room-name tracking ---

// recordRoomNames updates the room-name table from any m.room.name
// state events in the given list.
func (hs *heraldService) recordRoomNames(roomID ref.RoomID, events []messaging.Event) {
	for _, event := range events {
		if event.Type != eventTypeRoomName || event.StateKey == nil {
			continue
		}
		var content messaging.RoomNameContent
		raw, err := json.Marshal(event.Content)
		if err == nil {
			err = json.Unmarshal(raw, &content)
		}
		if err != nil {
			hs.logger.Error("malformed room name event", "room_id", roomID, "error", err)
			continue
		}
		hs.mu.Lock()
		hs.roomNames[roomID] = content.Name
		hs.mu.Unlock()
	}
}

// roomName returns the last observed m.room.name for a room, or ""
// when the room is unnamed. Unnamed rooms are never consultation
// rooms.
func (hs *heraldService) roomName(roomID ref.RoomID) string {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.roomNames[roomID]
}

func (hs *heraldService) forgetRoom(roomID ref.RoomID) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	delete(hs.roomNames, roomID)
}

// consultationRoomCount reports how many known rooms currently carry
// the consultation prefix. Used for logging and the admin socket.
func (hs *heraldService) consultationRoomCount() int {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	count := 0
	for _, name := range hs.roomNames {
		if strings.HasPrefix(name, hs.config.Community.ConsultationPrefix) {
			count++
		}
	}
	return count
}
