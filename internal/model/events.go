// Package model defines the domain types shared between the lock
// coordinator, the fan-out hub and the HTTP layer, together with the
// JSON messages exchanged over the seat map WebSocket.
package model

// Intent actions a client may send over the seat map socket.
const (
	ActionSelect   = "SELECT"
	ActionDeselect = "DESELECT"
)

// Seat statuses carried by incremental seat events.
const (
	StatusSelected   = "SELECTED"
	StatusDeselected = "DESELECTED"
)

// Message types used on the outbound side of the seat map socket.
const (
	TypeHello    = "hello"
	TypeResult   = "result"
	TypeSeat     = "seat"
	TypeSnapshot = "snapshot"
)

// Rejection reasons returned in intent results.  NOT_HOLDER is benign:
// the client simply asked to release a seat it never held.
const (
	ReasonAlreadyHeld   = "ALREADY_HELD"
	ReasonAlreadyBooked = "ALREADY_BOOKED"
	ReasonNotHolder     = "NOT_HOLDER"
)

// IntentMessage is what a client sends over the socket.  The session
// is implied by the connection, the showing by the subscription, so a
// minimal intent only carries the action and the seat.  ShowingID is
// accepted for cross-checking but may be zero.
type IntentMessage struct {
	Action    string `json:"action"`
	ShowingID uint64 `json:"showing_id,omitempty"`
	SeatID    uint64 `json:"seat_id"`
}

// HelloMessage is the first frame sent to a freshly registered
// session.  Clients use the session id to recognise their own echo in
// subsequent seat events.
type HelloMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	ShowingID uint64 `json:"showing_id"`
}

// ResultMessage acknowledges one intent to the session that sent it.
// Rejections carry a machine-readable reason; they never terminate
// the connection.
type ResultMessage struct {
	Type     string `json:"type"`
	Action   string `json:"action"`
	SeatID   uint64 `json:"seat_id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// SeatEvent is the incremental broadcast emitted when a single seat
// changes hands.  SessionID identifies the session that caused the
// change so receivers can suppress their own echo.
type SeatEvent struct {
	Type      string `json:"type"`
	ShowingID uint64 `json:"showing_id"`
	SeatID    uint64 `json:"seat_id"`
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// SnapshotEvent is the full-state broadcast: the complete set of
// locked seats for one showing.  Snapshots are idempotent and safe to
// apply repeatedly or out of order, which is why sweeper-driven batch
// releases always use this shape instead of per-seat deltas.
type SnapshotEvent struct {
	Type          string   `json:"type"`
	ShowingID     uint64   `json:"showing_id"`
	LockedSeatIDs []uint64 `json:"locked_seat_ids"`
}
