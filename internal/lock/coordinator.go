package lock

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
	"github.com/iliyamo/cinema-seat-coordinator/internal/queue"
)

// Sentinel errors returned by the coordinator.  All of them are
// recoverable: the client picks another seat or simply re-renders.
var (
	// ErrSeatHeld means another session currently holds the seat.
	ErrSeatHeld = errors.New("seat held by another session")
	// ErrSeatBooked means the seat belongs to a committed order.
	ErrSeatBooked = errors.New("seat already booked")
	// ErrNotHolder means a deselect was attempted on a seat the
	// session does not hold.  Treated as a benign no-op upstream.
	ErrNotHolder = errors.New("session does not hold this seat")
)

// BookedChecker is the read-only Already-Booked collaborator supplied
// by the order subsystem.  The coordinator re-checks it on every
// select but never mutates it.
type BookedChecker interface {
	IsBooked(ctx context.Context, showingID, seatID uint64) (bool, error)
}

// Broadcaster fans lock-state changes out to every subscriber of a
// showing.  Implementations must not block the caller on network I/O;
// the hub satisfies this with buffered per-session channels.
type Broadcaster interface {
	BroadcastSeat(ev model.SeatEvent)
	BroadcastSnapshot(ev model.SnapshotEvent)
}

// Publisher delivers release events to the message broker.  Publishing
// is best-effort: failures are logged by callers, never escalated.
type Publisher interface {
	PublishSeatsReleased(ctx context.Context, ev queue.SeatsReleasedEvent) error
}

// Coordinator applies hold rules to the lock table and notifies
// subscribers of every accepted mutation.  It never mutates state
// silently: every subscriber's correctness depends on eventually
// seeing every lock change.
type Coordinator struct {
	table     *Table
	booked    BookedChecker
	broadcast Broadcaster
	publisher Publisher // optional
	holdTTL   time.Duration
	now       func() time.Time
}

// NewCoordinator constructs a Coordinator.  holdTTL is how long a
// hold survives without activity; it is a UX tunable, not a protocol
// contract.
func NewCoordinator(table *Table, booked BookedChecker, broadcast Broadcaster, holdTTL time.Duration) *Coordinator {
	if table == nil || booked == nil || broadcast == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	return &Coordinator{
		table:     table,
		booked:    booked,
		broadcast: broadcast,
		holdTTL:   holdTTL,
		now:       time.Now,
	}
}

// SetPublisher wires the optional broker publisher for release events.
func (c *Coordinator) SetPublisher(p Publisher) { c.publisher = p }

// SetClock overrides the coordinator's clock.  Intended for tests.
func (c *Coordinator) SetClock(now func() time.Time) { c.now = now }

// HoldTTL returns the configured hold duration.
func (c *Coordinator) HoldTTL() time.Duration { return c.holdTTL }

// Select attempts to take (or refresh) the hold on a seat for the
// given session.  The seat must not belong to a committed order and
// must not be held by a different session.  On acceptance the new
// seat state is broadcast to every subscriber of the showing; the
// broadcast is decoupled from the accept/reject answer returned here.
func (c *Coordinator) Select(ctx context.Context, showingID, seatID uint64, sessionID string) error {
	booked, err := c.booked.IsBooked(ctx, showingID, seatID)
	if err != nil {
		return err
	}
	if booked {
		return ErrSeatBooked
	}
	if err := c.table.Acquire(showingID, seatID, sessionID, c.now(), c.holdTTL); err != nil {
		return err
	}
	c.broadcast.BroadcastSeat(model.SeatEvent{
		Type:      model.TypeSeat,
		ShowingID: showingID,
		SeatID:    seatID,
		Status:    model.StatusSelected,
		SessionID: sessionID,
	})
	return nil
}

// Deselect releases a seat held by the given session.  Only the
// holder may release its own lock; anyone else gets ErrNotHolder and
// the table stays untouched, so nothing is broadcast either.
func (c *Coordinator) Deselect(ctx context.Context, showingID, seatID uint64, sessionID string) error {
	if err := c.table.Release(showingID, seatID, sessionID); err != nil {
		return err
	}
	c.broadcast.BroadcastSeat(model.SeatEvent{
		Type:      model.TypeSeat,
		ShowingID: showingID,
		SeatID:    seatID,
		Status:    model.StatusDeselected,
		SessionID: sessionID,
	})
	return nil
}

// SnapshotFor returns the sorted set of currently locked seat ids for
// one showing.  Used for broadcast payloads and for the initial state
// of a newly subscribing client.
func (c *Coordinator) SnapshotFor(showingID uint64) []uint64 {
	return c.table.SnapshotLocked(showingID, c.now())
}

// ReleaseSession drops every hold owned by a disconnecting session
// and re-broadcasts a full snapshot for each affected showing.  A
// snapshot rather than per-seat deltas keeps reconnecting viewers
// consistent even if earlier events were reordered or lost.
func (c *Coordinator) ReleaseSession(ctx context.Context, sessionID string) {
	released := c.table.ReleaseSession(sessionID)
	for showingID, seatIDs := range released {
		remaining := c.SnapshotFor(showingID)
		c.broadcast.BroadcastSnapshot(model.SnapshotEvent{
			Type:          model.TypeSnapshot,
			ShowingID:     showingID,
			LockedSeatIDs: remaining,
		})
		c.publishReleased(ctx, queue.SeatsReleasedEvent{
			ShowingID:          showingID,
			SeatIDs:            seatIDs,
			Reason:             queue.ReleaseReasonDisconnected,
			RemainingLockedIDs: remaining,
			SessionID:          sessionID,
			ReleasedAt:         c.now().UTC().Format(time.RFC3339),
		})
	}
}

func (c *Coordinator) publishReleased(ctx context.Context, ev queue.SeatsReleasedEvent) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishSeatsReleased(ctx, ev); err != nil {
		log.Printf("coordinator: publish seats.released failed: %v", err)
	}
}
