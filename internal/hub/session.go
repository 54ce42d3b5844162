package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the identity of one live client connection.  It is
// distinct from an authenticated user: two browser tabs are two
// sessions.  The id is opaque, generated at connect time, and is how
// clients recognise their own echo in broadcast events.
type Session struct {
	ID          string
	ConnectedAt time.Time

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newSession(buffer int) *Session {
	return &Session{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now(),
		send:        make(chan []byte, buffer),
	}
}

// Outbox exposes the session's outbound frame channel.  The transport
// handler's write pump drains it; the channel is closed when the
// session is unregistered.
func (s *Session) Outbox() <-chan []byte { return s.send }

// trySend enqueues a frame without blocking.  A full buffer means the
// subscriber is too slow to keep up; the frame is dropped and the
// next full snapshot will resynchronise it.  Returns false when the
// frame was not enqueued.
func (s *Session) trySend(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// close shuts the outbox exactly once.
func (s *Session) close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
	s.mu.Unlock()
}
