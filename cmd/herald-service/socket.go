// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/herald-project/herald/lib/service"
)

// registerActions registers the admin socket actions. The socket is
// a local Unix socket in the state directory; access control is file
// permissions.
func (hs *heraldService) registerActions(server *service.SocketServer) {
	server.Handle("status", hs.handleStatus)
	server.Handle("subscriptions", hs.handleSubscriptions)
}

// statusResponse is the response to the "status" action.
type statusResponse struct {
	// UptimeSeconds is how long the service has been running.
	UptimeSeconds float64 `cbor:"uptime_seconds"`

	// People is the number of monitorable people in the directory.
	People int `cbor:"people"`

	// ConsultationRooms is the number of joined rooms currently
	// carrying the consultation prefix.
	ConsultationRooms int `cbor:"consultation_rooms"`
}

func (hs *heraldService) handleStatus(ctx context.Context, raw []byte) (any, error) {
	uptime := hs.clock.Now().Sub(hs.startedAt)
	return statusResponse{
		UptimeSeconds:     uptime.Seconds(),
		People:            hs.index.Len(),
		ConsultationRooms: hs.consultationRoomCount(),
	}, nil
}

// subscriptionEntry is one (target, subscriber) pair in the
// "subscriptions" response. The target's current directory label is
// included when the target is still monitorable.
type subscriptionEntry struct {
	Target     string `cbor:"target"`
	Label      string `cbor:"label,omitempty"`
	Subscriber string `cbor:"subscriber"`
}

type subscriptionsResponse struct {
	Subscriptions []subscriptionEntry `cbor:"subscriptions"`
}

func (hs *heraldService) handleSubscriptions(ctx context.Context, raw []byte) (any, error) {
	pairs, err := hs.store.All(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]subscriptionEntry, 0, len(pairs))
	for _, pair := range pairs {
		entry := subscriptionEntry{
			Target:     pair.Target.String(),
			Subscriber: pair.Subscriber.String(),
		}
		if person, ok := hs.index.LookupID(pair.Target); ok {
			entry.Label = person.Label
		}
		entries = append(entries, entry)
	}
	return subscriptionsResponse{Subscriptions: entries}, nil
}
