// Package lock holds the in-memory seat lock table and the state
// machine that coordinates SELECT/DESELECT intents across concurrent
// viewer sessions.  Locks are an ephemeral coordination mechanism:
// they are never persisted and do not survive a process restart.  The
// final exclusivity check at checkout time belongs to the order
// subsystem, not to this package.
package lock

import (
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
)

// Table is the authoritative in-memory mapping of who currently holds
// which seat.  It is sharded by showing so that operations on
// different showings never contend; operations on seats of the same
// showing serialise on the shard mutex, which is what guarantees that
// two near-simultaneous SELECTs for one seat cannot both succeed.
type Table struct {
	mu     sync.RWMutex
	shards map[uint64]*shard
}

type shard struct {
	mu    sync.Mutex
	locks map[uint64]model.SeatLock // keyed by seat id
}

// NewTable returns an empty lock table.
func NewTable() *Table {
	return &Table{shards: make(map[uint64]*shard)}
}

// shardFor returns the shard owning the given showing, creating it on
// first use.  The read lock covers the common case; the write path
// re-checks after upgrading because another goroutine may have won.
func (t *Table) shardFor(showingID uint64) *shard {
	t.mu.RLock()
	s, ok := t.shards[showingID]
	t.mu.RUnlock()
	if ok {
		return s
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.shards[showingID]; ok {
		return s
	}
	s = &shard{locks: make(map[uint64]model.SeatLock)}
	t.shards[showingID] = s
	return s
}

// Acquire creates or refreshes the lock on (showingID, seatID) for
// the given session.  A live lock owned by a different session yields
// ErrSeatHeld.  Re-selecting a seat the session already holds is
// accepted and refreshes the expiry; the lock count stays at one.
// An expired lock is treated as free and may be taken over in place,
// so a missed sweep cycle never blocks a new holder.
func (t *Table) Acquire(showingID, seatID uint64, sessionID string, now time.Time, ttl time.Duration) error {
	s := t.shardFor(showingID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.locks[seatID]; ok && !cur.Expired(now) && cur.HolderSessionID != sessionID {
		return ErrSeatHeld
	}
	acquiredAt := now
	if cur, ok := s.locks[seatID]; ok && cur.HolderSessionID == sessionID && !cur.Expired(now) {
		acquiredAt = cur.AcquiredAt
	}
	s.locks[seatID] = model.SeatLock{
		ShowingID:       showingID,
		SeatID:          seatID,
		HolderSessionID: sessionID,
		AcquiredAt:      acquiredAt,
		ExpiresAt:       now.Add(ttl),
	}
	return nil
}

// Release removes the lock on (showingID, seatID) if it is owned by
// the given session.  Releasing a seat the session does not hold is a
// benign rejection reported as ErrNotHolder; the table is unchanged.
func (t *Table) Release(showingID, seatID uint64, sessionID string) error {
	s := t.shardFor(showingID)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.locks[seatID]
	if !ok || cur.HolderSessionID != sessionID {
		return ErrNotHolder
	}
	delete(s.locks, seatID)
	return nil
}

// Holder returns the session currently holding the seat, or "" when
// the seat is free or the lock has lapsed.
func (t *Table) Holder(showingID, seatID uint64, now time.Time) string {
	s := t.shardFor(showingID)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.locks[seatID]
	if !ok || cur.Expired(now) {
		return ""
	}
	return cur.HolderSessionID
}

// SnapshotLocked returns the sorted seat ids of all live locks for
// one showing.  Expired locks are skipped but left in place for the
// sweeper, so the snapshot never shows a seat as held past its
// deadline even between sweep cycles.
func (t *Table) SnapshotLocked(showingID uint64, now time.Time) []uint64 {
	s := t.shardFor(showingID)
	s.mu.Lock()
	ids := make([]uint64, 0, len(s.locks))
	for seatID, l := range s.locks {
		if !l.Expired(now) {
			ids = append(ids, seatID)
		}
	}
	s.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ReleaseSession drops every lock owned by the given session across
// all showings and returns the released seat ids grouped by showing.
// Called on disconnect; sweep-based reclamation is only the backstop
// for crashes that skip clean disconnect handling.
func (t *Table) ReleaseSession(sessionID string) map[uint64][]uint64 {
	released := make(map[uint64][]uint64)
	for showingID, s := range t.snapshotShards() {
		s.mu.Lock()
		for seatID, l := range s.locks {
			if l.HolderSessionID == sessionID {
				delete(s.locks, seatID)
				released[showingID] = append(released[showingID], seatID)
			}
		}
		s.mu.Unlock()
	}
	for _, ids := range released {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return released
}

// SweepExpired removes every lock past its deadline, plus any lock
// whose holder the liveness probe no longer recognises, and returns
// the removed seat ids grouped by showing.  alive may be nil, in
// which case only expiry is considered.
func (t *Table) SweepExpired(now time.Time, alive func(sessionID string) bool) map[uint64][]uint64 {
	removed := make(map[uint64][]uint64)
	for showingID, s := range t.snapshotShards() {
		s.mu.Lock()
		for seatID, l := range s.locks {
			if l.Expired(now) || (alive != nil && !alive(l.HolderSessionID)) {
				delete(s.locks, seatID)
				removed[showingID] = append(removed[showingID], seatID)
			}
		}
		s.mu.Unlock()
	}
	for _, ids := range removed {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return removed
}

// snapshotShards copies the shard map under the outer lock so that
// iteration does not hold it while shard mutexes are taken.
func (t *Table) snapshotShards() map[uint64]*shard {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[uint64]*shard, len(t.shards))
	for id, s := range t.shards {
		out[id] = s
	}
	return out
}
