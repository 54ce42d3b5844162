package hub

import (
	"encoding/json"
	"testing"

	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
)

func drain(t *testing.T, s *Session) []model.SeatEvent {
	t.Helper()
	var events []model.SeatEvent
	for {
		select {
		case payload := <-s.Outbox():
			var ev model.SeatEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				t.Fatalf("unmarshal frame: %v", err)
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestBroadcastReachesOnlySubscribersOfShowing(t *testing.T) {
	h := NewHub(8)
	a := h.Register()
	b := h.Register()
	c := h.Register()
	h.Subscribe(a, 42)
	h.Subscribe(b, 42)
	h.Subscribe(c, 99)

	h.BroadcastSeat(model.SeatEvent{Type: model.TypeSeat, ShowingID: 42, SeatID: 7, Status: model.StatusSelected, SessionID: a.ID})

	if got := drain(t, a); len(got) != 1 || got[0].SeatID != 7 {
		t.Errorf("subscriber a got %v", got)
	}
	if got := drain(t, b); len(got) != 1 {
		t.Errorf("subscriber b got %v", got)
	}
	if got := drain(t, c); len(got) != 0 {
		t.Errorf("unrelated showing received %v", got)
	}
}

func TestSubscribeSwitchesShowing(t *testing.T) {
	h := NewHub(8)
	s := h.Register()
	h.Subscribe(s, 1)
	if n := h.SubscriberCount(1); n != 1 {
		t.Fatalf("subscriber count = %d, want 1", n)
	}

	// One active showing per session: switching detaches the old topic.
	h.Subscribe(s, 2)
	if n := h.SubscriberCount(1); n != 0 {
		t.Errorf("still subscribed to old showing, count = %d", n)
	}
	if n := h.SubscriberCount(2); n != 1 {
		t.Errorf("new showing subscriber count = %d, want 1", n)
	}

	h.BroadcastSeat(model.SeatEvent{Type: model.TypeSeat, ShowingID: 1, SeatID: 3, Status: model.StatusSelected, SessionID: "x"})
	if got := drain(t, s); len(got) != 0 {
		t.Errorf("received events for a showing left behind: %v", got)
	}
}

func TestUnregisterFiresDisconnectAndKillsLiveness(t *testing.T) {
	h := NewHub(8)
	var released []string
	h.SetDisconnectHandler(func(sessionID string) { released = append(released, sessionID) })

	s := h.Register()
	h.Subscribe(s, 42)
	if !h.Alive(s.ID) {
		t.Fatal("registered session not alive")
	}

	h.Unregister(s)
	if h.Alive(s.ID) {
		t.Error("unregistered session still alive")
	}
	if h.SubscriberCount(42) != 0 {
		t.Error("unregistered session still subscribed")
	}
	if len(released) != 1 || released[0] != s.ID {
		t.Errorf("disconnect handler calls = %v, want [%s]", released, s.ID)
	}
	// Outbox must be closed so the write pump terminates.
	if _, ok := <-s.Outbox(); ok {
		t.Error("outbox not closed after unregister")
	}
}

func TestBroadcastDropsWhenOutboxFull(t *testing.T) {
	h := NewHub(1)
	s := h.Register()
	h.Subscribe(s, 42)

	for i := 0; i < 3; i++ {
		h.BroadcastSeat(model.SeatEvent{Type: model.TypeSeat, ShowingID: 42, SeatID: uint64(i), Status: model.StatusSelected, SessionID: "x"})
	}
	// Capacity one: exactly one frame delivered, the rest dropped
	// rather than blocking the coordinator.
	if got := drain(t, s); len(got) != 1 {
		t.Errorf("delivered %d frames, want 1", len(got))
	}
}

func TestSnapshotMarshalsEmptySetAsArray(t *testing.T) {
	h := NewHub(8)
	s := h.Register()
	h.Subscribe(s, 42)

	h.BroadcastSnapshot(model.SnapshotEvent{Type: model.TypeSnapshot, ShowingID: 42})
	payload := <-s.Outbox()
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["locked_seat_ids"]) != "[]" {
		t.Errorf("locked_seat_ids = %s, want []", raw["locked_seat_ids"])
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	h := NewHub(8)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := h.Register()
		if seen[s.ID] {
			t.Fatalf("duplicate session id %s", s.ID)
		}
		seen[s.ID] = true
	}
}
