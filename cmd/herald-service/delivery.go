// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/herald-project/herald/lib/ref"
	"github.com/herald-project/herald/lib/subscription"
	"github.com/herald-project/herald/messaging"
)

// notificationJob is one private message to deliver. Jobs are
// independent: one recipient's failure never affects another's
// delivery, and no job is retried.
type notificationJob struct {
	recipient ref.UserID
	text      string
}

// deliverer is the notification fan-out worker pool. Jobs are
// enqueued by the sync loop (room-entry notifications, command
// responses) and delivered by a fixed set of workers. Delivery is
// best-effort with at most one attempt per job.
type deliverer struct {
	session messaging.Session
	store   *subscription.Store
	logger  *slog.Logger

	jobs chan notificationJob
	wg   sync.WaitGroup
}

// newDeliverer creates a deliverer and starts its worker goroutines.
// Call stop to drain and shut down.
func newDeliverer(ctx context.Context, session messaging.Session, store *subscription.Store, workers int, logger *slog.Logger) *deliverer {
	d := &deliverer{
		session: session,
		store:   store,
		logger:  logger,
		jobs:    make(chan notificationJob, 64),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for job := range d.jobs {
				if err := d.deliver(ctx, job); err != nil {
					d.logger.Error("notification delivery failed",
						"recipient", job.recipient,
						"error", err,
					)
				}
			}
		}()
	}
	return d
}

// enqueue submits a job for delivery. Blocks when the queue is full
// so that a slow homeserver applies backpressure to the sync loop
// rather than dropping notifications silently.
func (d *deliverer) enqueue(job notificationJob) {
	d.jobs <- job
}

// stop closes the queue and waits for in-flight deliveries to finish.
func (d *deliverer) stop() {
	close(d.jobs)
	d.wg.Wait()
}

// deliver sends one private message, creating the recipient's direct
// room on first contact. The room ID is cached in the store so
// restarts do not mint duplicate rooms.
func (d *deliverer) deliver(ctx context.Context, job notificationJob) error {
	roomID, err := d.directRoom(ctx, job.recipient)
	if err != nil {
		return err
	}
	if _, err := d.session.SendMessage(ctx, roomID, messaging.NewTextMessage(job.text)); err != nil {
		return fmt.Errorf("sending to %s: %w", roomID, err)
	}
	return nil
}

// directRoom returns the direct-message room for a recipient,
// creating and caching one if none exists yet.
func (d *deliverer) directRoom(ctx context.Context, recipient ref.UserID) (ref.RoomID, error) {
	roomID, found, err := d.store.DMRoom(ctx, recipient)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("looking up direct room: %w", err)
	}
	if found {
		return roomID, nil
	}

	response, err := d.session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Preset:   "trusted_private_chat",
		IsDirect: true,
		Invite:   []ref.UserID{recipient},
	})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("creating direct room for %s: %w", recipient, err)
	}

	if err := d.store.SetDMRoom(ctx, recipient, response.RoomID); err != nil {
		// The room exists; only the cache write failed. Deliver
		// anyway and let a later delivery retry the cache.
		d.logger.Error("failed to cache direct room",
			"recipient", recipient,
			"room_id", response.RoomID,
			"error", err,
		)
	}
	return response.RoomID, nil
}
