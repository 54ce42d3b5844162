package lock

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/cinema-seat-coordinator/internal/queue"
)

// A viewer holds A1 and A2, disconnects without deselecting, the hold
// duration elapses and one sweep cycle runs: both seats must be free
// for a new viewer.
func TestSweepReclaimsExpiredHolds(t *testing.T) {
	table := NewTable()
	bc := &recordingBroadcaster{}
	booked := &fakeBooked{booked: make(map[[2]uint64]bool)}
	c := NewCoordinator(table, booked, bc, 30*time.Second)

	base := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }
	c.SetClock(clock)

	ctx := context.Background()
	for _, seat := range []uint64{1, 2} {
		if err := c.Select(ctx, 42, seat, "sess-gone"); err != nil {
			t.Fatalf("select seat %d: %v", seat, err)
		}
	}

	sweeper := NewSweeper(table, bc, nil, time.Second)
	sweeper.SetClock(clock)
	pub := &recordingPublisher{}
	sweeper.SetPublisher(pub)

	// Before expiry nothing is reclaimed.
	if n := sweeper.SweepOnce(ctx); n != 0 {
		t.Fatalf("premature sweep reclaimed %d locks", n)
	}

	now = base.Add(31 * time.Second)
	if n := sweeper.SweepOnce(ctx); n != 2 {
		t.Fatalf("sweep reclaimed %d locks, want 2", n)
	}
	for _, seat := range []uint64{1, 2} {
		if err := c.Select(ctx, 42, seat, "sess-new"); err != nil {
			t.Fatalf("seat %d not selectable after sweep: %v", seat, err)
		}
	}

	snaps := bc.snapshotEvents()
	if len(snaps) != 1 {
		t.Fatalf("expected one batch-release snapshot, got %d", len(snaps))
	}
	if len(snaps[0].LockedSeatIDs) != 0 {
		t.Errorf("batch-release snapshot = %v, want empty", snaps[0].LockedSeatIDs)
	}
	if len(pub.events) != 1 || pub.events[0].Reason != queue.ReleaseReasonExpired {
		t.Fatalf("unexpected publish events: %+v", pub.events)
	}
	if got := pub.events[0].SeatIDs; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("released seat ids = %v, want [1 2]", got)
	}
}

// Locks whose holder is no longer a live session are reclaimed even
// before their deadline.
func TestSweepReclaimsOrphanedHolds(t *testing.T) {
	table := NewTable()
	bc := &recordingBroadcaster{}
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	if err := table.Acquire(42, 7, "sess-dead", now, time.Hour); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := table.Acquire(42, 8, "sess-live", now, time.Hour); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	alive := func(sessionID string) bool { return sessionID == "sess-live" }
	sweeper := NewSweeper(table, bc, alive, time.Second)
	sweeper.SetClock(func() time.Time { return now })

	if n := sweeper.SweepOnce(context.Background()); n != 1 {
		t.Fatalf("sweep reclaimed %d locks, want 1", n)
	}
	if got := table.SnapshotLocked(42, now); len(got) != 1 || got[0] != 8 {
		t.Fatalf("snapshot after orphan sweep = %v, want [8]", got)
	}
	snaps := bc.snapshotEvents()
	if len(snaps) != 1 || len(snaps[0].LockedSeatIDs) != 1 || snaps[0].LockedSeatIDs[0] != 8 {
		t.Fatalf("unexpected batch-release snapshots: %+v", snaps)
	}
}

// The batch-release broadcast groups removals per showing: two
// showings swept in one cycle produce exactly two snapshots.
func TestSweepBatchesPerShowing(t *testing.T) {
	table := NewTable()
	bc := &recordingBroadcaster{}
	base := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	_ = table.Acquire(1, 10, "sess-a", base, time.Second)
	_ = table.Acquire(2, 20, "sess-b", base, time.Second)

	sweeper := NewSweeper(table, bc, nil, time.Second)
	sweeper.SetClock(func() time.Time { return base.Add(2 * time.Second) })

	if n := sweeper.SweepOnce(context.Background()); n != 2 {
		t.Fatalf("sweep reclaimed %d locks, want 2", n)
	}
	snaps := bc.snapshotEvents()
	if len(snaps) != 2 {
		t.Fatalf("expected one snapshot per affected showing, got %d", len(snaps))
	}
	seen := map[uint64]bool{}
	for _, ev := range snaps {
		seen[ev.ShowingID] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("snapshots cover showings %v, want 1 and 2", snaps)
	}
}

// A quiet table produces a quiet sweep: no broadcasts, no publishes.
func TestSweepNoopWhenNothingExpired(t *testing.T) {
	table := NewTable()
	bc := &recordingBroadcaster{}
	sweeper := NewSweeper(table, bc, nil, time.Second)

	if n := sweeper.SweepOnce(context.Background()); n != 0 {
		t.Fatalf("empty sweep reclaimed %d locks", n)
	}
	if len(bc.snapshotEvents()) != 0 {
		t.Errorf("empty sweep must not broadcast")
	}
}
