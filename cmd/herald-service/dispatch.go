// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strings"

	"github.com/herald-project/herald/lib/directory"
	"github.com/herald-project/herald/lib/fuzzy"
	"github.com/herald-project/herald/lib/ref"
)

// Argument bounds for add and del. Commands outside these bounds get
// the generic help redirect instead of partial execution.
const (
	maxCommandArgs   = 32
	maxArgumentBytes = 256
)

// dispatch interprets one inbound message as a command and returns
// the private response text. Returns "" for messages that warrant no
// response (the service's own messages).
//
// The response always goes to the issuer's direct room regardless of
// where the command was sent, mirroring how notifications arrive.
func (hs *heraldService) dispatch(ctx context.Context, issuer ref.UserID, body string) string {
	if issuer == hs.selfID {
		// The service sees its own outgoing messages as timeline
		// events in rooms it is joined to. Responding would loop.
		return ""
	}

	parts := strings.Fields(body)
	if len(parts) == 0 {
		return readHelp
	}
	verb, args := strings.ToLower(parts[0]), parts[1:]

	switch verb {
	case "add":
		if !validateArgs(args, 1) {
			return readHelp
		}
		return hs.handleAdd(ctx, issuer, args)
	case "del":
		if !validateArgs(args, 1) {
			return readHelp
		}
		return hs.handleDel(ctx, issuer, args)
	case "help":
		if !validateArgs(args, 0) {
			return readHelp
		}
		return helpText
	default:
		return readHelp
	}
}

// validateArgs checks argument count (min..maxCommandArgs) and
// per-argument length.
func validateArgs(args []string, min int) bool {
	if len(args) < min || len(args) > maxCommandArgs {
		return false
	}
	for _, arg := range args {
		if len(arg) > maxArgumentBytes {
			return false
		}
	}
	return true
}

// resolveArgs fuzzy-resolves each distinct argument against the
// current directory. Arguments are de-duplicated first (case
// sensitive, order preserving) so repeated names trigger one store
// operation. The resolved set is fixed before any store mutation
// begins; a directory rebuild during the mutation phase cannot
// change this command's outcome.
//
// Resolution has no similarity floor: every argument resolves to the
// closest label however weak the match, so unresolvable arguments
// exist only when the directory is empty.
func (hs *heraldService) resolveArgs(args []string) []directory.Person {
	labels := hs.index.Labels()

	seen := make(map[string]bool, len(args))
	var people []directory.Person
	for _, arg := range args {
		if seen[arg] {
			continue
		}
		seen[arg] = true

		label, ok := fuzzy.Resolve(arg, labels)
		if !ok {
			continue
		}
		person, ok := hs.index.Lookup(label)
		if !ok {
			// The label list and lookup map come from the same
			// snapshot only within one Labels() call; a rebuild
			// between them can drop a label. Treat as unresolved.
			continue
		}
		people = append(people, person)
	}
	return people
}

// handleAdd subscribes the issuer to each resolved person and reports
// the newly subscribed labels. People failing the eligibility check
// and pairs that already exist are silently skipped; if nothing was
// added the issuer gets one aggregate message.
func (hs *heraldService) handleAdd(ctx context.Context, issuer ref.UserID, args []string) string {
	var subscribedTo []string
	for _, person := range hs.resolveArgs(args) {
		if !person.HasAnyRole(hs.config.Community.EligibleRoles) {
			continue
		}
		pushed, err := hs.store.Push(ctx, person.ID, issuer)
		if err != nil {
			hs.logger.Error("subscription push failed",
				"target", person.ID,
				"subscriber", issuer,
				"error", err,
			)
			continue
		}
		if pushed {
			subscribedTo = append(subscribedTo, person.Label)
		}
	}

	if len(subscribedTo) == 0 {
		return "Either you're already subscribed to all of them, or we don't know them :("
	}
	return "Subscribed you to:\n" + bulletList(subscribedTo)
}

// handleDel removes the issuer's subscription to each resolved person
// and reports the removed labels. No eligibility check here: a person
// who lost their role can still be unsubscribed from.
func (hs *heraldService) handleDel(ctx context.Context, issuer ref.UserID, args []string) string {
	var unsubscribedFrom []string
	for _, person := range hs.resolveArgs(args) {
		removed, err := hs.store.Remove(ctx, person.ID, issuer)
		if err != nil {
			hs.logger.Error("subscription remove failed",
				"target", person.ID,
				"subscriber", issuer,
				"error", err,
			)
			continue
		}
		if removed {
			unsubscribedFrom = append(unsubscribedFrom, person.Label)
		}
	}

	if len(unsubscribedFrom) == 0 {
		return "You're wrong."
	}
	return "Unsubscribed you from:\n" + bulletList(unsubscribedFrom)
}

func bulletList(labels []string) string {
	var b strings.Builder
	for i, label := range labels {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(label)
	}
	return b.String()
}
