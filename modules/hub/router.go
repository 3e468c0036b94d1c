package hub

import (
	"errors"
	"log/slog"
)

// Router fans one published envelope out to the current members of a room.
// Publish is only ever called from inside a room's serialized section, so
// envelopes reach every member's FIFO queue in publish order. Delivery is
// at-most-once per session: a closed session is dropped from the registry
// and the broadcast continues with the remaining members.
type Router struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{registry: registry, logger: logger}
}

// Publish enqueues env to every registered member of roomID. When
// excludeOrigin is set the originating session is skipped (live strokes:
// the originator already rendered locally). Chat and file envelopes go to
// all members including the origin so every device of a user converges.
func (r *Router) Publish(roomID string, env Envelope, originID string, excludeOrigin bool) {
	for _, s := range r.registry.Members(roomID) {
		if excludeOrigin && s.ID() == originID {
			continue
		}
		if err := s.Enqueue(env); err != nil {
			if !errors.Is(err, ErrSessionClosed) {
				r.logger.Warn("dropping member after send failure",
					"room", roomID, "session", s.ID(), "error", err)
			}
			r.registry.Remove(roomID, s.ID())
		}
	}
}
