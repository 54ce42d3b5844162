package client

import (
	"reflect"
	"testing"

	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
)

func viewing(t *testing.T, showingID uint64) *Reconciler {
	t.Helper()
	r := New()
	r.ApplyHello(model.HelloMessage{Type: model.TypeHello, SessionID: "sess-me", ShowingID: showingID})
	r.SetConnected(true)
	r.EnterShowing(showingID)
	return r
}

func TestSelectFlowConfirmsSeatAsMine(t *testing.T) {
	r := viewing(t, 42)

	intents := r.Select(7)
	if len(intents) != 1 || intents[0].Action != model.ActionSelect || intents[0].SeatID != 7 {
		t.Fatalf("intents = %v", intents)
	}
	if got := r.Classify(7); got != SeatFree {
		t.Errorf("seat class before ack = %v, want SeatFree", got)
	}

	r.ApplyResult(model.ResultMessage{Type: model.TypeResult, Action: model.ActionSelect, SeatID: 7, Accepted: true})
	if got := r.Classify(7); got != SeatMine {
		t.Errorf("seat class after ack = %v, want SeatMine", got)
	}
}

func TestRejectedSelectDropsIntent(t *testing.T) {
	r := viewing(t, 42)
	r.Select(7)
	r.ApplyResult(model.ResultMessage{Type: model.TypeResult, Action: model.ActionSelect, SeatID: 7, Accepted: false, Reason: model.ReasonAlreadyHeld})

	if got := r.Classify(7); got == SeatMine {
		t.Error("rejected seat classified as mine")
	}
	// A later reconnect must not re-assert the rejected seat.
	r.SetConnected(false)
	queued := r.EnterShowing(42)
	flushed := r.SetConnected(true)
	if len(queued)+len(flushed) != 0 {
		t.Errorf("rejected seat re-asserted: %v %v", queued, flushed)
	}
}

// Events echoing the client's own actions are not re-processed as
// another viewer's activity.
func TestEchoSuppression(t *testing.T) {
	r := viewing(t, 42)
	r.Select(7)
	r.ApplyResult(model.ResultMessage{Type: model.TypeResult, Action: model.ActionSelect, SeatID: 7, Accepted: true})

	r.ApplySeatEvent(model.SeatEvent{Type: model.TypeSeat, ShowingID: 42, SeatID: 7, Status: model.StatusSelected, SessionID: "sess-me"})
	if got := r.Classify(7); got != SeatMine {
		t.Errorf("own echo reclassified seat to %v", got)
	}

	// Another session's event on a different seat is processed.
	r.ApplySeatEvent(model.SeatEvent{Type: model.TypeSeat, ShowingID: 42, SeatID: 8, Status: model.StatusSelected, SessionID: "sess-other"})
	if got := r.Classify(8); got != SeatTheirs {
		t.Errorf("foreign selection classified as %v, want SeatTheirs", got)
	}
}

func TestSnapshotPartitionsThreeWays(t *testing.T) {
	r := viewing(t, 42)
	r.Select(1)
	r.ApplyResult(model.ResultMessage{Type: model.TypeResult, Action: model.ActionSelect, SeatID: 1, Accepted: true})

	r.ApplySnapshot(model.SnapshotEvent{Type: model.TypeSnapshot, ShowingID: 42, LockedSeatIDs: []uint64{1, 2}})

	if got := r.Classify(1); got != SeatMine {
		t.Errorf("seat 1 = %v, want SeatMine", got)
	}
	if got := r.Classify(2); got != SeatTheirs {
		t.Errorf("seat 2 = %v, want SeatTheirs", got)
	}
	if got := r.Classify(3); got != SeatFree {
		t.Errorf("seat 3 = %v, want SeatFree", got)
	}
}

// Applying the same full snapshot twice leaves the derived view
// unchanged.
func TestSnapshotIdempotent(t *testing.T) {
	r := viewing(t, 42)
	r.Select(1)
	r.ApplyResult(model.ResultMessage{Type: model.TypeResult, Action: model.ActionSelect, SeatID: 1, Accepted: true})

	snap := model.SnapshotEvent{Type: model.TypeSnapshot, ShowingID: 42, LockedSeatIDs: []uint64{1, 2, 5}}
	r.ApplySnapshot(snap)
	first := map[uint64]SeatClass{}
	for seat := uint64(1); seat <= 6; seat++ {
		first[seat] = r.Classify(seat)
	}
	r.ApplySnapshot(snap)
	second := map[uint64]SeatClass{}
	for seat := uint64(1); seat <= 6; seat++ {
		second[seat] = r.Classify(seat)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("view drifted between identical snapshots: %v vs %v", first, second)
	}
}

// The server wins: a seat this client believed was its own but which
// the snapshot reports unlocked becomes free immediately.
func TestServerWinsOnSilentExpiry(t *testing.T) {
	r := viewing(t, 42)
	r.Select(7)
	r.ApplyResult(model.ResultMessage{Type: model.TypeResult, Action: model.ActionSelect, SeatID: 7, Accepted: true})

	// Hold expired while the tab was backgrounded; the sweeper's
	// batch release no longer lists seat 7.
	r.ApplySnapshot(model.SnapshotEvent{Type: model.TypeSnapshot, ShowingID: 42, LockedSeatIDs: []uint64{}})
	if got := r.Classify(7); got != SeatFree {
		t.Errorf("seat class = %v, want SeatFree after server-side release", got)
	}
	if got := r.HeldSeats(); len(got) != 0 {
		t.Errorf("held seats = %v, want none", got)
	}
}

// Re-asserts queue until the transport is confirmed connected, since
// a client may enter a showing before the socket finishes
// establishing.
func TestReassertsWaitForTransport(t *testing.T) {
	r := New()
	r.ApplyHello(model.HelloMessage{Type: model.TypeHello, SessionID: "sess-me", ShowingID: 42})
	r.SetConnected(true)
	r.EnterShowing(42)
	r.Select(3)
	r.Select(4)

	// Connection drops mid-flow; the user reloads and returns.
	r.SetConnected(false)
	if got := r.EnterShowing(42); len(got) != 0 {
		t.Fatalf("intents emitted while disconnected: %v", got)
	}

	flushed := r.SetConnected(true)
	want := []Intent{
		{Action: model.ActionSelect, ShowingID: 42, SeatID: 3},
		{Action: model.ActionSelect, ShowingID: 42, SeatID: 4},
	}
	if !reflect.DeepEqual(flushed, want) {
		t.Errorf("flushed = %v, want %v", flushed, want)
	}
}

// Without a live transport the client holds nothing, whatever it
// intended.
func TestDisconnectedClientHoldsNothing(t *testing.T) {
	r := viewing(t, 42)
	r.Select(7)
	r.ApplyResult(model.ResultMessage{Type: model.TypeResult, Action: model.ActionSelect, SeatID: 7, Accepted: true})

	r.SetConnected(false)
	if got := r.HeldSeats(); len(got) != 0 {
		t.Errorf("held seats while disconnected = %v, want none", got)
	}
}

func TestLeaveShowingDeselectsEverythingHeld(t *testing.T) {
	r := viewing(t, 42)
	for _, seat := range []uint64{2, 1} {
		r.Select(seat)
		r.ApplyResult(model.ResultMessage{Type: model.TypeResult, Action: model.ActionSelect, SeatID: seat, Accepted: true})
	}

	intents := r.LeaveShowing()
	want := []Intent{
		{Action: model.ActionDeselect, ShowingID: 42, SeatID: 1},
		{Action: model.ActionDeselect, ShowingID: 42, SeatID: 2},
	}
	if !reflect.DeepEqual(intents, want) {
		t.Errorf("intents = %v, want %v", intents, want)
	}
	if r.State() != StateIdle {
		t.Errorf("state = %v, want StateIdle", r.State())
	}
	if got := r.EnterShowing(42); len(got) != 0 {
		t.Errorf("stale intents survived leaving: %v", got)
	}
}

// Switching straight to another showing releases the old holds the
// same way LeaveShowing would, so they free immediately instead of
// lingering until expiry.
func TestSwitchingShowingsDeselectsOldHolds(t *testing.T) {
	r := viewing(t, 1)
	r.Select(7)
	r.ApplyResult(model.ResultMessage{Type: model.TypeResult, Action: model.ActionSelect, SeatID: 7, Accepted: true})

	intents := r.EnterShowing(2)
	want := []Intent{{Action: model.ActionDeselect, ShowingID: 1, SeatID: 7}}
	if !reflect.DeepEqual(intents, want) {
		t.Errorf("intents = %v, want %v", intents, want)
	}
	if r.Showing() != 2 {
		t.Errorf("showing = %d, want 2", r.Showing())
	}
	if got := r.Classify(7); got != SeatFree {
		t.Errorf("seat 7 in new showing = %v, want SeatFree", got)
	}
}

func TestEventsForOtherShowingsIgnored(t *testing.T) {
	r := viewing(t, 42)
	r.ApplySeatEvent(model.SeatEvent{Type: model.TypeSeat, ShowingID: 99, SeatID: 7, Status: model.StatusSelected, SessionID: "sess-other"})
	if got := r.Classify(7); got != SeatFree {
		t.Errorf("event for another showing changed the view: %v", got)
	}
	r.ApplySnapshot(model.SnapshotEvent{Type: model.TypeSnapshot, ShowingID: 99, LockedSeatIDs: []uint64{7}})
	if got := r.Classify(7); got != SeatFree {
		t.Errorf("snapshot for another showing changed the view: %v", got)
	}
}
