// Package queue defines message payloads exchanged over the message broker.
package queue

// Reasons attached to a SeatsReleasedEvent.
const (
	ReleaseReasonExpired      = "expired"      // reclaimed by the sweeper
	ReleaseReasonDisconnected = "disconnected" // holder session went away
)

// SeatsReleasedEvent is published whenever seat holds are released in
// bulk, either by the expiry sweeper or because the holding session
// disconnected.  It carries the complete remaining locked set so that
// downstream consumers can reconstruct the seat map without querying
// the coordinator.
type SeatsReleasedEvent struct {
	ShowingID          uint64   `json:"showing_id"`
	SeatIDs            []uint64 `json:"seat_ids"`
	Reason             string   `json:"reason"`
	RemainingLockedIDs []uint64 `json:"remaining_locked_seat_ids"`
	SessionID          string   `json:"session_id,omitempty"`
	ReleasedAt         string   `json:"released_at"`
}
