package schedule

import (
	"context"
	"errors"
)

// ErrScheduleConflict indicates that a proposed interval overlaps at
// least one existing showing in the same room.  Callers that need the
// competing showings should use Detector.Check directly.
var ErrScheduleConflict = errors.New("schedule conflict")

// IntervalLister loads the persisted interval set of one room.  It is
// implemented by repository.ShowingRepo.
type IntervalLister interface {
	ListRoomIntervals(ctx context.Context, roomID uint64) ([]Interval, error)
}

// Detector validates proposed showing intervals against the persisted
// schedule of a room.  It holds no state of its own; every check
// re-reads the interval set so the answer reflects the latest commit.
type Detector struct {
	intervals IntervalLister
}

// NewDetector constructs a Detector backed by the given lister.
func NewDetector(intervals IntervalLister) *Detector {
	return &Detector{intervals: intervals}
}

// Check loads the room's current intervals and returns those that
// overlap the proposal.  excludeID is the showing being edited, or
// zero for a new showing.  An empty result means the proposal may be
// admitted.  Note that Check alone is not race-safe across concurrent
// writers; the repository re-runs the overlap predicate inside the
// insert/update transaction as the authoritative gate.
func (d *Detector) Check(ctx context.Context, roomID uint64, proposed Interval, excludeID uint64) ([]Interval, error) {
	existing, err := d.intervals.ListRoomIntervals(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return FindConflicts(existing, proposed, excludeID), nil
}
