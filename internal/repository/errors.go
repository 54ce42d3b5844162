// Package repository contains data access for the coordinator's two
// persisted collaborators: the showing schedule of each room and the
// committed bookings owned by the order subsystem.  Sentinel errors
// defined here let handlers distinguish failure scenarios without
// inspecting strings.
package repository

import "errors"

// ErrShowingNotFound indicates that a showing was not located in the DB.
var ErrShowingNotFound = errors.New("showing not found")

// ErrScheduleConflict is returned when an insert or reschedule would
// overlap an existing showing in the same room.  The conflicting rows
// are reported alongside so handlers can name the competing showing
// instead of returning a bare "conflict".
var ErrScheduleConflict = errors.New("schedule conflict")
