package schedule

import (
	"context"
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 1, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{
			name: "partial overlap",
			a:    Interval{Start: at(10, 0), End: at(12, 0)},
			b:    Interval{Start: at(11, 0), End: at(13, 0)},
			want: true,
		},
		{
			name: "back to back is not a conflict",
			a:    Interval{Start: at(10, 0), End: at(12, 0)},
			b:    Interval{Start: at(12, 0), End: at(14, 0)},
			want: false,
		},
		{
			name: "contained interval",
			a:    Interval{Start: at(10, 0), End: at(14, 0)},
			b:    Interval{Start: at(11, 0), End: at(12, 0)},
			want: true,
		},
		{
			name: "identical interval",
			a:    Interval{Start: at(10, 0), End: at(12, 0)},
			b:    Interval{Start: at(10, 0), End: at(12, 0)},
			want: true,
		},
		{
			name: "disjoint",
			a:    Interval{Start: at(8, 0), End: at(9, 30)},
			b:    Interval{Start: at(10, 0), End: at(12, 0)},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.a, tc.b); got != tc.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			// The overlap relation is symmetric.
			if got := Overlaps(tc.b, tc.a); got != tc.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v (symmetry)", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestFindConflictsReturnsAllCompetingShowings(t *testing.T) {
	existing := []Interval{
		{ShowingID: 1, RoomID: 3, Start: at(9, 0), End: at(11, 0)},
		{ShowingID: 2, RoomID: 3, Start: at(11, 0), End: at(13, 0)},
		{ShowingID: 3, RoomID: 3, Start: at(13, 0), End: at(15, 0)},
	}
	proposed := Interval{RoomID: 3, Start: at(10, 30), End: at(13, 30)}

	conflicts := FindConflicts(existing, proposed, 0)
	if len(conflicts) != 3 {
		t.Fatalf("expected 3 conflicts, got %d: %v", len(conflicts), conflicts)
	}
}

func TestFindConflictsExcludesEditedShowing(t *testing.T) {
	existing := []Interval{
		{ShowingID: 7, RoomID: 1, Start: at(10, 0), End: at(12, 0)},
	}
	// Editing showing 7 in place: it must never conflict with itself.
	proposed := Interval{ShowingID: 7, RoomID: 1, Start: at(10, 30), End: at(12, 30)}
	if got := FindConflicts(existing, proposed, 7); len(got) != 0 {
		t.Fatalf("edited showing reported as conflicting with itself: %v", got)
	}
	// A different showing over the same window still conflicts.
	if got := FindConflicts(existing, proposed, 0); len(got) != 1 {
		t.Fatalf("expected 1 conflict without exclusion, got %v", got)
	}
}

// Scenario from the scheduling screens: room 3 already has a showing
// at [15:00, 17:00) and the operator proposes [14:00, 16:15).
func TestFindConflictsOperatorScenario(t *testing.T) {
	existing := []Interval{
		{ShowingID: 12, RoomID: 3, Title: "Solaris", Start: at(15, 0), End: at(17, 0)},
	}
	proposed := Interval{RoomID: 3, Start: at(14, 0), End: at(16, 15)}

	conflicts := FindConflicts(existing, proposed, 0)
	if len(conflicts) != 1 {
		t.Fatalf("expected the existing showing as sole conflict, got %v", conflicts)
	}
	if conflicts[0].ShowingID != 12 {
		t.Errorf("conflict showing id = %d, want 12", conflicts[0].ShowingID)
	}
}

type staticLister struct {
	intervals []Interval
	err       error
}

func (s staticLister) ListRoomIntervals(ctx context.Context, roomID uint64) ([]Interval, error) {
	return s.intervals, s.err
}

func TestDetectorCheck(t *testing.T) {
	det := NewDetector(staticLister{intervals: []Interval{
		{ShowingID: 5, RoomID: 2, Start: at(18, 0), End: at(20, 0)},
	}})

	conflicts, err := det.Check(context.Background(), 2, Interval{Start: at(19, 0), End: at(21, 0)}, 0)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ShowingID != 5 {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}

	free, err := det.Check(context.Background(), 2, Interval{Start: at(20, 0), End: at(22, 0)}, 0)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if len(free) != 0 {
		t.Fatalf("back-to-back proposal reported conflicts: %v", free)
	}
}
