package model

import (
	"time"

	"github.com/iliyamo/cinema-seat-coordinator/internal/schedule"
)

// Showing represents a scheduled screening of a movie occupying a
// room for a half-open time window [StartsAt, EndsAt).  A room can
// play at most one showing at any instant, so two showings in the
// same room conflict exactly when their windows overlap.  Timestamps
// are stored in UTC.
//
// Fields:
//  ID        – primary key identifier.
//  RoomID    – room where the showing is taking place.
//  Title     – movie title or an external reference.
//  StartsAt  – when the showing begins (inclusive).
//  EndsAt    – when the showing ends (exclusive, must be after StartsAt).
//  Status    – current state of the showing (SCHEDULED, CANCELLED,
//              FINISHED).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Showing struct {
	ID        uint64    // showings.id
	RoomID    uint64    // showings.room_id
	Title     string    // showings.title
	StartsAt  time.Time // showings.starts_at
	EndsAt    time.Time // showings.ends_at
	Status    string    // showings.status
	CreatedAt time.Time // showings.created_at
	UpdatedAt time.Time // showings.updated_at
}

// Interval converts the showing into the conflict detector's type.
func (s Showing) Interval() schedule.Interval {
	return schedule.Interval{
		ShowingID: s.ID,
		RoomID:    s.RoomID,
		Title:     s.Title,
		Start:     s.StartsAt,
		End:       s.EndsAt,
	}
}
