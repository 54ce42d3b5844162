// Package schedule implements the scheduling-conflict detector: the
// rule that no two showings may occupy the same room with overlapping
// time windows.  Intervals are half-open, [Start, End), so a showing
// ending at 12:00 never conflicts with one starting at 12:00.
package schedule

import "time"

// Interval is one showing's occupancy of a room.
type Interval struct {
	ShowingID uint64    // showing occupying the slot
	RoomID    uint64    // room the slot belongs to
	Title     string    // movie title, carried for conflict reporting
	Start     time.Time // inclusive start
	End       time.Time // exclusive end
}

// Overlaps reports whether two half-open intervals intersect.  The
// test is max(starts) < min(ends); touching endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FindConflicts returns every interval in existing that overlaps the
// proposal.  excludeID removes one showing from consideration so that
// an edited showing is never reported as conflicting with itself;
// pass zero when creating.  The function is pure and deterministic,
// usable both for fast client-side rejection and for authoritative
// server-side validation.  All conflicts are returned, not just the
// first, so callers can show the operator which showings compete.
func FindConflicts(existing []Interval, proposed Interval, excludeID uint64) []Interval {
	var conflicts []Interval
	for _, iv := range existing {
		if excludeID != 0 && iv.ShowingID == excludeID {
			continue
		}
		if Overlaps(iv, proposed) {
			conflicts = append(conflicts, iv)
		}
	}
	return conflicts
}
