package gateway

import (
	"sync"

	"github.com/rutvikbangar/collab-sphere/modules/hub"
)

// outboundDepth bounds the per-session write queue. When a consumer falls
// this far behind, its oldest queued envelope is dropped to make room; the
// room's serialized section is never stalled by a slow socket.
const outboundDepth = 64

// wsConn is the slice of the websocket connection the session writer needs.
// Tests substitute an in-memory implementation.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// wsSession adapts one websocket connection to hub.Session. Enqueue is
// called from room sections and must never block; a single writePump
// goroutine drains the queue onto the socket.
type wsSession struct {
	id       string
	userID   string
	username string

	mu     sync.Mutex
	out    chan hub.Envelope
	closed bool
}

var _ hub.Session = (*wsSession)(nil)

func newSession(id, userID, username string) *wsSession {
	return &wsSession{
		id:       id,
		userID:   userID,
		username: username,
		out:      make(chan hub.Envelope, outboundDepth),
	}
}

func (s *wsSession) ID() string       { return s.id }
func (s *wsSession) UserID() string   { return s.userID }
func (s *wsSession) Username() string { return s.username }

// Enqueue appends an envelope to the outbound queue without blocking. If the
// queue is full the oldest envelope is discarded first, so a lagging client
// loses stale events rather than delaying the room.
func (s *wsSession) Enqueue(env hub.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return hub.ErrSessionClosed
	}
	for {
		select {
		case s.out <- env:
			return nil
		default:
		}
		select {
		case <-s.out:
		default:
		}
	}
}

// close marks the session dead and wakes the write pump. Safe to call more
// than once.
func (s *wsSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}

// writePump drains the outbound queue onto the socket. It runs in its own
// goroutine and returns when the session is closed or a write fails.
func (s *wsSession) writePump(conn wsConn, messageType int, marshal func(hub.Envelope) ([]byte, error), onError func(error)) {
	for env := range s.out {
		data, err := marshal(env)
		if err != nil {
			onError(err)
			continue
		}
		if err := conn.WriteMessage(messageType, data); err != nil {
			onError(err)
			s.close()
			// Drain remaining envelopes so concurrent Enqueue callers that
			// raced the close flag cannot leak.
			for range s.out {
			}
			return
		}
	}
}
