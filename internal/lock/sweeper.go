package lock

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
	"github.com/iliyamo/cinema-seat-coordinator/internal/queue"
)

// Liveness reports whether a session id still maps to a live
// connection.  The hub provides it; the sweeper uses it to reclaim
// locks orphaned by crashes that skipped clean disconnect handling.
type Liveness func(sessionID string) bool

// Sweeper periodically reclaims expired and orphaned seat locks.  For
// every affected showing it emits one batch-release event carrying
// the complete remaining locked set, which lets subscribers
// resynchronise fully instead of applying deltas that could drift
// under reordering.  Sweeping is advisory and idempotent: a missed
// cycle self-corrects on the next one, so failures are only logged.
type Sweeper struct {
	table     *Table
	broadcast Broadcaster
	publisher Publisher // optional
	alive     Liveness
	interval  time.Duration
	now       func() time.Time
}

// NewSweeper constructs a Sweeper.  alive may be nil to sweep on
// expiry alone.
func NewSweeper(table *Table, broadcast Broadcaster, alive Liveness, interval time.Duration) *Sweeper {
	if table == nil || broadcast == nil {
		panic("nil dependency passed to NewSweeper")
	}
	return &Sweeper{
		table:     table,
		broadcast: broadcast,
		alive:     alive,
		interval:  interval,
		now:       time.Now,
	}
}

// SetPublisher wires the optional broker publisher for release events.
func (s *Sweeper) SetPublisher(p Publisher) { s.publisher = p }

// SetClock overrides the sweeper's clock.  Intended for tests.
func (s *Sweeper) SetClock(now func() time.Time) { s.now = now }

// Run executes sweep cycles at the configured interval until the
// context is cancelled.  Meant to be started as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce performs a single sweep cycle and returns the number of
// locks it reclaimed.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	removed := s.table.SweepExpired(s.now(), s.alive)
	total := 0
	for showingID, seatIDs := range removed {
		total += len(seatIDs)
		remaining := s.table.SnapshotLocked(showingID, s.now())
		s.broadcast.BroadcastSnapshot(model.SnapshotEvent{
			Type:          model.TypeSnapshot,
			ShowingID:     showingID,
			LockedSeatIDs: remaining,
		})
		if s.publisher != nil {
			ev := queue.SeatsReleasedEvent{
				ShowingID:          showingID,
				SeatIDs:            seatIDs,
				Reason:             queue.ReleaseReasonExpired,
				RemainingLockedIDs: remaining,
				ReleasedAt:         s.now().UTC().Format(time.RFC3339),
			}
			if err := s.publisher.PublishSeatsReleased(ctx, ev); err != nil {
				log.Printf("sweeper: publish seats.released failed: %v", err)
			}
		}
	}
	if total > 0 {
		log.Printf("sweeper: reclaimed %d stale seat lock(s) across %d showing(s)", total, len(removed))
	}
	return total
}
