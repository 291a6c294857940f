// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/herald-project/herald/lib/ref"
)

// roomEntry is a person joining a room, extracted from an
// m.room.member timeline event. Consumed immediately; never stored.
type roomEntry struct {
	userID   ref.UserID
	roomName string
}

// onRoomEntry turns a room entry into notification jobs, one per
// subscriber of the entering person. Returns nil when the entry is
// not notifiable: the room is not a consultation room, or the person
// is not in the directory (not monitorable).
//
// The notification text uses the person's current directory label,
// not whatever name the member event carried, so subscribers see the
// same name they subscribed to.
func (hs *heraldService) onRoomEntry(ctx context.Context, entry roomEntry) []notificationJob {
	if !strings.HasPrefix(entry.roomName, hs.config.Community.ConsultationPrefix) {
		return nil
	}

	person, ok := hs.index.LookupID(entry.userID)
	if !ok {
		return nil
	}

	subscribers, err := hs.store.Subscribers(ctx, person.ID)
	if err != nil {
		hs.logger.Error("failed to list subscribers",
			"person", person.ID,
			"error", err,
		)
		return nil
	}

	text := fmt.Sprintf("%s seen in `%s`", person.Label, entry.roomName)
	jobs := make([]notificationJob, 0, len(subscribers))
	for _, subscriber := range subscribers {
		jobs = append(jobs, notificationJob{
			recipient: subscriber,
			text:      text,
		})
	}
	return jobs
}
