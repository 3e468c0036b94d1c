package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rutvikbangar/collab-sphere/domain/board"
)

// ErrNotMember is returned when an event arrives from a session that is not
// registered in the target room.
var ErrNotMember = errors.New("not a member of this room")

// ErrPersistence wraps history storage failures. The event is never
// broadcast and the error is surfaced to the originator only.
var ErrPersistence = errors.New("history storage unavailable")

// HistoryStore is the durable append-only history a coordinator runs over.
// Implementations must support concurrent access across distinct rooms
// without a global lock; the coordinator serializes access per room.
type HistoryStore interface {
	AppendStroke(ctx context.Context, s *board.Stroke) error
	ListStrokes(ctx context.Context, roomID string) ([]board.Stroke, error)
	ReplaceStrokes(ctx context.Context, roomID string, strokes []*board.Stroke) error
	AppendMessage(ctx context.Context, m *board.ChatMessage) error
	ListMessages(ctx context.Context, roomID string) ([]board.ChatMessage, error)
}

// StrokeInput is the raw draw payload forwarded by the gateway.
type StrokeInput struct {
	StrokeID string    `json:"stroke_id"`
	Points   []float64 `json:"points"`
	Color    string    `json:"color"`
	Tool     string    `json:"tool"`
	Width    float64   `json:"width"`
}

// section is one room's mutual-exclusion boundary. Every operation that can
// mutate the room's observable state runs to completion under mu before the
// next queued operation begins. refs counts operations holding or awaiting
// mu; a section is only discarded when refs is zero and the room has no
// members, so a waiting goroutine can never be split onto a fresh section.
type section struct {
	mu   sync.Mutex
	refs int
}

// Coordinator serializes all state-affecting operations within a room so
// that join-time snapshots are race-free. Different rooms run fully in
// parallel; nothing is shared across rooms except the section table itself.
type Coordinator struct {
	store    HistoryStore
	registry *Registry
	router   *Router
	logger   *slog.Logger

	mu       sync.Mutex
	sections map[string]*section
}

// NewCoordinator creates a coordinator over the given history store.
func NewCoordinator(store HistoryStore, registry *Registry, router *Router, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:    store,
		registry: registry,
		router:   router,
		logger:   logger,
		sections: make(map[string]*section),
	}
}

// Registry exposes the membership registry, e.g. for health reporting.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

func (c *Coordinator) acquire(roomID string) *section {
	c.mu.Lock()
	sec, ok := c.sections[roomID]
	if !ok {
		sec = &section{}
		c.sections[roomID] = sec
	}
	sec.refs++
	c.mu.Unlock()

	sec.mu.Lock()
	return sec
}

func (c *Coordinator) release(roomID string, sec *section) {
	sec.mu.Unlock()

	c.mu.Lock()
	sec.refs--
	if sec.refs == 0 && c.registry.Count(roomID) == 0 {
		delete(c.sections, roomID)
	}
	c.mu.Unlock()
}

// Join attaches sess to roomID. Inside the room's section it reads the
// persisted history, enqueues the snapshot envelope onto the session's own
// FIFO queue and registers the membership. Because the snapshot enters the
// queue before the section is released, every live envelope published after
// the attach point lands strictly behind it: no gap, no duplicate.
func (c *Coordinator) Join(ctx context.Context, roomID string, sess Session) error {
	if roomID == "" {
		return board.ErrRoomIDRequired
	}

	sec := c.acquire(roomID)
	defer c.release(roomID, sec)

	strokes, err := c.store.ListStrokes(ctx, roomID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	messages, err := c.store.ListMessages(ctx, roomID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	snapshot := Envelope{
		Type: EventSnapshot,
		Payload: SnapshotPayload{
			RoomID:   roomID,
			Strokes:  strokes,
			Messages: messages,
		},
	}
	if err := sess.Enqueue(snapshot); err != nil {
		// Transport already gone; do not register the membership.
		return err
	}

	c.registry.Add(roomID, sess)
	c.logger.Info("session joined room",
		"room", roomID, "session", sess.ID(), "user", sess.UserID(),
		"strokes", len(strokes), "messages", len(messages))
	return nil
}

// Leave detaches a session from a room. Unknown sessions are a no-op, so a
// transport-failure leave racing an explicit one is harmless.
func (c *Coordinator) Leave(roomID, sessionID string) {
	if roomID == "" {
		return
	}

	sec := c.acquire(roomID)
	defer c.release(roomID, sec)

	if !c.registry.IsMember(roomID, sessionID) {
		return
	}
	c.registry.Remove(roomID, sessionID)
	c.logger.Info("session left room", "room", roomID, "session", sessionID)
}

// Draw validates, persists and broadcasts one stroke. A duplicate StrokeID
// (client retransmission after reconnect) is swallowed: no new record, no
// broadcast, no error back to the sender.
func (c *Coordinator) Draw(ctx context.Context, roomID string, sess Session, in StrokeInput) error {
	stroke, err := board.NewStroke(roomID, in.StrokeID, in.Points, in.Color, in.Tool, in.Width)
	if err != nil {
		return err
	}

	sec := c.acquire(roomID)
	defer c.release(roomID, sec)

	if !c.registry.IsMember(roomID, sess.ID()) {
		return ErrNotMember
	}

	stroke.CreatedAt = time.Now()
	if err := c.store.AppendStroke(ctx, stroke); err != nil {
		if errors.Is(err, board.ErrDuplicateStroke) {
			c.logger.Debug("duplicate stroke suppressed",
				"room", roomID, "stroke", stroke.StrokeID)
			return nil
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	c.router.Publish(roomID, Envelope{Type: EventStroke, Payload: *stroke}, sess.ID(), true)
	return nil
}

// Chat validates, persists and broadcasts one chat message. The origin is
// included in the fan-out so all of the sender's devices converge.
func (c *Coordinator) Chat(ctx context.Context, roomID string, sess Session, text string) error {
	msg, err := board.NewChatMessage(roomID, sess.UserID(), sess.Username(), text)
	if err != nil {
		return err
	}

	sec := c.acquire(roomID)
	defer c.release(roomID, sec)

	if !c.registry.IsMember(roomID, sess.ID()) {
		return ErrNotMember
	}

	msg.CreatedAt = time.Now()
	if err := c.store.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	c.router.Publish(roomID, Envelope{Type: EventChat, Payload: *msg}, sess.ID(), false)
	return nil
}

// Replace atomically swaps a room's entire persisted stroke set for the
// given one. It runs inside the room's section, so a concurrent join's
// snapshot read observes either the full pre-replace set or the full
// post-replace set, never an intermediate state.
func (c *Coordinator) Replace(ctx context.Context, roomID string, sess Session, ins []StrokeInput) error {
	strokes := make([]*board.Stroke, 0, len(ins))
	for _, in := range ins {
		stroke, err := board.NewStroke(roomID, in.StrokeID, in.Points, in.Color, in.Tool, in.Width)
		if err != nil {
			return err
		}
		strokes = append(strokes, stroke)
	}

	sec := c.acquire(roomID)
	defer c.release(roomID, sec)

	if !c.registry.IsMember(roomID, sess.ID()) {
		return ErrNotMember
	}

	now := time.Now()
	for _, s := range strokes {
		s.CreatedAt = now
	}
	if err := c.store.ReplaceStrokes(ctx, roomID, strokes); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	c.logger.Info("room strokes replaced", "room", roomID, "strokes", len(strokes))
	return nil
}

// PublishFile fans a file_added envelope out to every member of a room. It
// takes the room's section like any other publish so ordering against
// strokes and chat is preserved. Files are persisted by the files module;
// the hub only delivers the announcement.
func (c *Coordinator) PublishFile(roomID string, p FilePayload) {
	sec := c.acquire(roomID)
	defer c.release(roomID, sec)

	c.router.Publish(roomID, Envelope{Type: EventFileAdded, Payload: p}, "", false)
}
