package hub

import (
	"errors"
	"time"

	"github.com/rutvikbangar/collab-sphere/domain/board"
)

// ErrSessionClosed is returned by Session.Enqueue once the underlying
// transport is gone. The router treats it as an implicit leave.
var ErrSessionClosed = errors.New("session closed")

// Session is one client connection attached to the hub. The gateway owns the
// transport; the hub only ever enqueues outbound envelopes. Enqueue must be
// non-blocking: a slow consumer may drop its own stale envelopes but must
// never stall a room's serialized section.
type Session interface {
	ID() string
	UserID() string
	Username() string
	Enqueue(Envelope) error
}

// EventType enumerates the closed set of outbound envelope types.
type EventType string

// Outbound envelope types.
const (
	EventSnapshot  EventType = "snapshot"
	EventStroke    EventType = "stroke"
	EventChat      EventType = "chat"
	EventFileAdded EventType = "file_added"
	EventError     EventType = "error"
)

// Envelope is the unit of delivery to a session. The gateway marshals it to
// the wire format.
type Envelope struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// SnapshotPayload carries the full persisted history of a room at one
// consistent instant. It is always the first envelope a joining session
// receives.
type SnapshotPayload struct {
	RoomID   string              `json:"room_id"`
	Strokes  []board.Stroke      `json:"strokes"`
	Messages []board.ChatMessage `json:"messages"`
}

// FilePayload announces a file uploaded to the room.
type FilePayload struct {
	FileID       string    `json:"file_id"`
	RoomID       string    `json:"room_id"`
	FileName     string    `json:"file_name"`
	URL          string    `json:"url"`
	UploadedBy   string    `json:"uploaded_by"`
	UploaderName string    `json:"uploader_name"`
	Timestamp    time.Time `json:"timestamp"`
}

// ErrorPayload is sent to a single offending session, never broadcast.
type ErrorPayload struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}
