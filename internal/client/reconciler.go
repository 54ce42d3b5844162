// Package client implements the viewer-side reconciliation state
// machine: the logic that merges locally intended seat selections
// with the server's broadcast lock state.  It is transport-agnostic
// and purely synchronous so the same code serves the bundled
// reference client and the tests; the caller owns the WebSocket and
// feeds decoded frames in.
package client

import (
	"sort"

	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
)

// State of the reconciler.
type State int

const (
	// StateIdle means no showing is being viewed.
	StateIdle State = iota
	// StateViewing means one showing's seat map is active.
	StateViewing
)

// SeatClass is the rendering category of a seat.  Every seat falls in
// exactly one of the three.
type SeatClass int

const (
	// SeatFree is selectable.
	SeatFree SeatClass = iota
	// SeatMine is held by this session, confirmed by the server.
	SeatMine
	// SeatTheirs is locked by another viewer.
	SeatTheirs
)

// Intent is an action the caller must transmit to the coordinator.
type Intent struct {
	Action    string
	ShowingID uint64
	SeatID    uint64
}

// Reconciler tracks three sets per showing: what the user intends to
// hold, what the server has confirmed as held by this session, and
// what the server reports as locked by anyone.  The server always
// wins: a seat it reports unlocked is immediately selectable even if
// this client believed it was "mine", which resolves the case of a
// hold silently expiring while the tab was backgrounded.
type Reconciler struct {
	sessionID string
	state     State
	showingID uint64
	connected bool

	intended map[uint64]struct{} // seats the user wants, survives reconnects
	held     map[uint64]struct{} // seats the server confirmed as ours
	locked   map[uint64]struct{} // server-reported locked set
	pending  []Intent            // intents queued until the transport is up
}

// New returns a reconciler in the Idle state.
func New() *Reconciler {
	return &Reconciler{
		intended: make(map[uint64]struct{}),
		held:     make(map[uint64]struct{}),
		locked:   make(map[uint64]struct{}),
	}
}

// State returns the current state.
func (r *Reconciler) State() State { return r.state }

// Showing returns the showing being viewed, zero when idle.
func (r *Reconciler) Showing() uint64 { return r.showingID }

// SessionID returns the server-assigned session id, empty until the
// hello frame arrived.
func (r *Reconciler) SessionID() string { return r.sessionID }

// ApplyHello records the session identity assigned by the server.
func (r *Reconciler) ApplyHello(msg model.HelloMessage) {
	r.sessionID = msg.SessionID
}

// SetConnected flips the transport state.  Going up flushes every
// queued intent for the caller to transmit.  Going down clears the
// confirmed-held set: without a live broadcast channel this client
// must treat itself as holding nothing, no matter what it intended.
func (r *Reconciler) SetConnected(up bool) []Intent {
	r.connected = up
	if !up {
		r.held = make(map[uint64]struct{})
		return nil
	}
	out := r.pending
	r.pending = nil
	return out
}

// EnterShowing transitions to viewing the given showing and returns
// the intents to send.  Switching away from another showing first
// emits one DESELECT per seat held there, so the old holds release
// immediately instead of lingering until expiry; then one
// re-asserting SELECT per locally intended seat follows, so the
// server becomes authoritative again after a reload or reconnect.
// When the transport is not yet confirmed connected the intents are
// queued instead and flushed by SetConnected.
func (r *Reconciler) EnterShowing(showingID uint64) []Intent {
	var out []Intent
	if r.state == StateViewing && r.showingID != showingID {
		// Switching showings releases the old holds and abandons the
		// previous intent set.
		out = make([]Intent, 0, len(r.held))
		for seatID := range r.held {
			out = append(out, Intent{Action: model.ActionDeselect, ShowingID: r.showingID, SeatID: seatID})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
		r.intended = make(map[uint64]struct{})
		r.pending = nil
	}
	r.state = StateViewing
	r.showingID = showingID
	r.held = make(map[uint64]struct{})
	r.locked = make(map[uint64]struct{})

	reasserts := make([]Intent, 0, len(r.intended))
	for seatID := range r.intended {
		reasserts = append(reasserts, Intent{Action: model.ActionSelect, ShowingID: showingID, SeatID: seatID})
	}
	sort.Slice(reasserts, func(i, j int) bool { return reasserts[i].SeatID < reasserts[j].SeatID })
	return r.dispatch(append(out, reasserts...))
}

// LeaveShowing abandons the showing gracefully and returns one
// DESELECT per held seat.  Explicit release keeps abandonment fast
// instead of leaning on server-side expiry.
func (r *Reconciler) LeaveShowing() []Intent {
	if r.state != StateViewing {
		return nil
	}
	deselects := make([]Intent, 0, len(r.held))
	for seatID := range r.held {
		deselects = append(deselects, Intent{Action: model.ActionDeselect, ShowingID: r.showingID, SeatID: seatID})
	}
	sort.Slice(deselects, func(i, j int) bool { return deselects[i].SeatID < deselects[j].SeatID })

	r.state = StateIdle
	r.showingID = 0
	r.intended = make(map[uint64]struct{})
	r.held = make(map[uint64]struct{})
	r.locked = make(map[uint64]struct{})
	r.pending = nil
	return r.dispatch(deselects)
}

// Select records the user's wish to hold a seat and returns the
// intent to transmit.  Seats already rendered as another viewer's are
// refused locally; the server would reject them anyway.
func (r *Reconciler) Select(seatID uint64) []Intent {
	if r.state != StateViewing || r.Classify(seatID) == SeatTheirs {
		return nil
	}
	r.intended[seatID] = struct{}{}
	return r.dispatch([]Intent{{Action: model.ActionSelect, ShowingID: r.showingID, SeatID: seatID}})
}

// Deselect drops the user's wish for a seat and, when the seat was
// confirmed held, returns the DESELECT to transmit.
func (r *Reconciler) Deselect(seatID uint64) []Intent {
	if r.state != StateViewing {
		return nil
	}
	delete(r.intended, seatID)
	if _, ok := r.held[seatID]; !ok {
		return nil
	}
	return r.dispatch([]Intent{{Action: model.ActionDeselect, ShowingID: r.showingID, SeatID: seatID}})
}

// ApplyResult folds a per-intent acknowledgement into the view.
func (r *Reconciler) ApplyResult(res model.ResultMessage) {
	switch res.Action {
	case model.ActionSelect:
		if res.Accepted {
			r.held[res.SeatID] = struct{}{}
			r.locked[res.SeatID] = struct{}{}
		} else {
			// Seat is gone; wanting it further is pointless.
			delete(r.intended, res.SeatID)
		}
	case model.ActionDeselect:
		if res.Accepted {
			delete(r.held, res.SeatID)
			delete(r.locked, res.SeatID)
		}
	}
}

// ApplySeatEvent folds one incremental broadcast into the view.
// Events tagged with this client's own session id are ignored: the
// authoritative answer already arrived as a ResultMessage, and
// re-processing the echo would make the UI fight itself.
func (r *Reconciler) ApplySeatEvent(ev model.SeatEvent) {
	if r.state != StateViewing || ev.ShowingID != r.showingID {
		return
	}
	if r.sessionID != "" && ev.SessionID == r.sessionID {
		return
	}
	switch ev.Status {
	case model.StatusSelected:
		r.locked[ev.SeatID] = struct{}{}
		delete(r.held, ev.SeatID)
	case model.StatusDeselected:
		delete(r.locked, ev.SeatID)
		delete(r.held, ev.SeatID)
	}
}

// ApplySnapshot replaces the locked set with the server's full state.
// Idempotent: applying the same snapshot twice leaves the derived
// view unchanged.  Seats we believed were ours but the server no
// longer reports locked stop being ours.
func (r *Reconciler) ApplySnapshot(ev model.SnapshotEvent) {
	if r.state != StateViewing || ev.ShowingID != r.showingID {
		return
	}
	locked := make(map[uint64]struct{}, len(ev.LockedSeatIDs))
	for _, seatID := range ev.LockedSeatIDs {
		locked[seatID] = struct{}{}
	}
	r.locked = locked
	for seatID := range r.held {
		if _, ok := locked[seatID]; !ok {
			delete(r.held, seatID)
		}
	}
}

// Classify places a seat in exactly one of the three rendering
// categories.
func (r *Reconciler) Classify(seatID uint64) SeatClass {
	if _, ok := r.held[seatID]; ok {
		return SeatMine
	}
	if _, ok := r.locked[seatID]; ok {
		return SeatTheirs
	}
	return SeatFree
}

// HeldSeats returns the sorted confirmed-held seat ids.
func (r *Reconciler) HeldSeats() []uint64 {
	out := make([]uint64, 0, len(r.held))
	for seatID := range r.held {
		out = append(out, seatID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// dispatch returns the intents when the transport is confirmed up,
// otherwise queues them for the next SetConnected(true).
func (r *Reconciler) dispatch(intents []Intent) []Intent {
	if len(intents) == 0 {
		return nil
	}
	if !r.connected {
		r.pending = append(r.pending, intents...)
		return nil
	}
	return intents
}
