package model

import "time"

// SeatLock represents a temporary, session-scoped claim on a single
// seat of a showing during the selection phase.  A lock is not a
// booking: it only keeps other viewers from picking the same seat
// while its holder is deciding.  Locks expire automatically at their
// ExpiresAt timestamp and are removed immediately when the holding
// session disconnects.
//
// Fields:
//  ShowingID       – showing whose seat map the lock belongs to.
//  SeatID          – seat being held.
//  HolderSessionID – connection session that owns the lock.
//  AcquiredAt      – when the lock was first taken.
//  ExpiresAt       – when the lock lapses unless refreshed.
type SeatLock struct {
	ShowingID       uint64    // showing the seat belongs to
	SeatID          uint64    // seat being held
	HolderSessionID string    // owning connection session
	AcquiredAt      time.Time // first acquisition time
	ExpiresAt       time.Time // expiry deadline
}

// Expired reports whether the lock has lapsed at the given instant.
func (l SeatLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
