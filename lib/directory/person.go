// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"slices"

	"github.com/herald-project/herald/lib/ref"
)

// Role names derived from room power levels. The thresholds follow
// the Element convention: moderators sit at power 50, administrators
// at 100. An administrator also counts as staff.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Power level thresholds for role assignment.
const (
	staffPower = 50
	adminPower = 100
)

// Person is a member of the community room that herald can monitor.
type Person struct {
	// ID is the person's Matrix user ID.
	ID ref.UserID

	// Label is the name people use in commands: the display name when
	// set, otherwise the user ID localpart.
	Label string

	// Roles holds the roles derived from the person's power level,
	// lowest first. Empty for ordinary members.
	Roles []string
}

// HasAnyRole reports whether the person holds at least one of the
// given roles.
func (p Person) HasAnyRole(allowed []string) bool {
	for _, role := range p.Roles {
		if slices.Contains(allowed, role) {
			return true
		}
	}
	return false
}

// RolesForPower maps a room power level to herald role names. Below
// the staff threshold the person has no roles.
func RolesForPower(power int) []string {
	switch {
	case power >= adminPower:
		return []string{RoleStaff, RoleAdmin}
	case power >= staffPower:
		return []string{RoleStaff}
	default:
		return nil
	}
}

// LabelFor picks the command-facing label for a member: the display
// name when non-empty, otherwise the user ID localpart.
func LabelFor(id ref.UserID, displayName string) string {
	if displayName != "" {
		return displayName
	}
	return id.Localpart()
}
