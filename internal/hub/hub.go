// Package hub groups live connection sessions by the showing they
// are viewing and fans lock-state events out to them.  The hub is the
// only publisher of seat-state frames; transport handlers never talk
// to each other's connections directly.
package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
)

// DisconnectFunc is invoked after a session has been unregistered so
// the lock coordinator can release everything the session held.
type DisconnectFunc func(sessionID string)

// Hub owns the session table and the per-showing subscription lists.
// A session subscribes to at most one showing at a time; switching
// showings unsubscribes the previous one.  All maps are guarded by a
// single mutex; fan-out copies the subscriber set before sending so
// no channel operation happens under the lock.
type Hub struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	byShowing  map[uint64]map[*Session]struct{}
	showingOf  map[string]uint64
	sendBuffer int

	onDisconnect DisconnectFunc
}

// NewHub creates an empty hub.  sendBuffer is the per-session outbox
// capacity; a slow subscriber that falls this far behind starts
// losing frames until the next snapshot.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		sessions:   make(map[string]*Session),
		byShowing:  make(map[uint64]map[*Session]struct{}),
		showingOf:  make(map[string]uint64),
		sendBuffer: sendBuffer,
	}
}

// SetDisconnectHandler wires the callback fired on Unregister.  Must
// be called during startup, before any session registers.
func (h *Hub) SetDisconnectHandler(fn DisconnectFunc) { h.onDisconnect = fn }

// Register creates a new session and adds it to the session table.
func (h *Hub) Register() *Session {
	s := newSession(h.sendBuffer)
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	log.Printf("hub: session %s registered", s.ID)
	return s
}

// Unregister removes the session from the hub, closes its outbox and
// fires the disconnect handler so the session's seat locks are
// released promptly rather than waiting for the sweeper.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.detachLocked(s)
	h.mu.Unlock()

	s.close()
	log.Printf("hub: session %s unregistered", s.ID)
	if h.onDisconnect != nil {
		h.onDisconnect(s.ID)
	}
}

// Subscribe attaches the session to a showing's fan-out list.  If the
// session was viewing another showing it is detached from that one
// first: one active seat map per session.
func (h *Hub) Subscribe(s *Session, showingID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(s)
	subs, ok := h.byShowing[showingID]
	if !ok {
		subs = make(map[*Session]struct{})
		h.byShowing[showingID] = subs
	}
	subs[s] = struct{}{}
	h.showingOf[s.ID] = showingID
}

// Unsubscribe detaches the session from whatever showing it is
// viewing.  Safe to call for sessions that are not subscribed.
func (h *Hub) Unsubscribe(s *Session) {
	h.mu.Lock()
	h.detachLocked(s)
	h.mu.Unlock()
}

// detachLocked removes the session from its current topic.  Caller
// holds h.mu.
func (h *Hub) detachLocked(s *Session) {
	showingID, ok := h.showingOf[s.ID]
	if !ok {
		return
	}
	delete(h.showingOf, s.ID)
	if subs, ok := h.byShowing[showingID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.byShowing, showingID)
		}
	}
}

// Alive reports whether the session id maps to a live connection.
// The sweeper uses it to reclaim locks orphaned by dead sessions.
func (h *Hub) Alive(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[sessionID]
	return ok
}

// SubscriberCount returns how many sessions watch a showing.
func (h *Hub) SubscriberCount(showingID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byShowing[showingID])
}

// BroadcastSeat fans one incremental seat event out to every
// subscriber of the showing, including the originator: suppression of
// one's own echo is the client's job, keyed on the event session id.
func (h *Hub) BroadcastSeat(ev model.SeatEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("hub: marshal seat event: %v", err)
		return
	}
	h.fanOut(ev.ShowingID, payload)
}

// BroadcastSnapshot fans a full-state snapshot out to every
// subscriber of the showing.
func (h *Hub) BroadcastSnapshot(ev model.SnapshotEvent) {
	if ev.LockedSeatIDs == nil {
		ev.LockedSeatIDs = []uint64{}
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("hub: marshal snapshot event: %v", err)
		return
	}
	h.fanOut(ev.ShowingID, payload)
}

// SendTo delivers one frame to a single session, used for hello,
// intent results and the initial snapshot.  Drops are logged, not
// fatal: the session will resynchronise from the next snapshot.
func (h *Hub) SendTo(s *Session, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("hub: marshal direct frame: %v", err)
		return
	}
	if !s.trySend(payload) {
		log.Printf("hub: session %s outbox full, frame dropped", s.ID)
	}
}

func (h *Hub) fanOut(showingID uint64, payload []byte) {
	h.mu.RLock()
	subs := make([]*Session, 0, len(h.byShowing[showingID]))
	for s := range h.byShowing[showingID] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if !s.trySend(payload) {
			log.Printf("hub: session %s outbox full, frame dropped", s.ID)
		}
	}
}
