// Package board holds the whiteboard domain entities shared by the hub,
// history and gateway modules. Strokes and chat messages are constructed
// only through the checked constructors below; once stored they are
// immutable.
package board

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Tool identifies the drawing tool used for a stroke.
type Tool string

// Supported drawing tools.
const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
)

// Validation limits.
const (
	MaxPoints        = 10000
	MaxMessageLength = 4096
	MaxColorLength   = 32
	MaxStrokeWidth   = 100
)

// Stroke is one freehand drawing action: an ordered coordinate sequence
// [x1, y1, x2, y2, ...] plus rendering attributes. StrokeID is generated by
// the drawing client and is globally unique; it is the deduplication key for
// retransmissions after a reconnect.
type Stroke struct {
	RoomID    string    `json:"room_id"`
	StrokeID  string    `json:"stroke_id"`
	Points    []float64 `json:"points"`
	Color     string    `json:"color"`
	Tool      Tool      `json:"tool"`
	Width     float64   `json:"width"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one chat message in a room. Messages carry no deduplication
// key; client retries after a dropped ack can duplicate them.
type ChatMessage struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewStroke validates the raw stroke payload and returns a Stroke.
// CreatedAt is left zero; it is assigned when the stroke enters its room's
// serialized section so that timestamps are monotonic per room.
func NewStroke(roomID, strokeID string, points []float64, color, tool string, width float64) (*Stroke, error) {
	if roomID == "" {
		return nil, ErrRoomIDRequired
	}
	if strokeID == "" {
		return nil, ErrStrokeIDRequired
	}
	if len(points) == 0 {
		return nil, ErrPointsRequired
	}
	if len(points)%2 != 0 {
		return nil, ErrPointsOdd
	}
	if len(points) > MaxPoints {
		return nil, ErrPointsTooMany
	}
	for _, p := range points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, ErrPointNotFinite
		}
	}
	if color == "" || len(color) > MaxColorLength {
		return nil, ErrColorInvalid
	}
	t := Tool(tool)
	if t != ToolPen && t != ToolEraser {
		return nil, ErrToolInvalid
	}
	if width <= 0 || width > MaxStrokeWidth || math.IsNaN(width) {
		return nil, ErrWidthInvalid
	}

	return &Stroke{
		RoomID:   roomID,
		StrokeID: strokeID,
		Points:   points,
		Color:    color,
		Tool:     t,
		Width:    width,
	}, nil
}

// NewChatMessage validates the text and returns a ChatMessage with a fresh
// server-generated ID. CreatedAt is assigned inside the room's serialized
// section, like strokes.
func NewChatMessage(roomID, senderID, senderName, text string) (*ChatMessage, error) {
	if roomID == "" {
		return nil, ErrRoomIDRequired
	}
	if senderID == "" {
		return nil, ErrSenderRequired
	}
	if text == "" {
		return nil, ErrTextRequired
	}
	if len(text) > MaxMessageLength {
		return nil, ErrTextTooLong
	}
	if !utf8.ValidString(text) {
		return nil, ErrTextInvalid
	}

	return &ChatMessage{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
	}, nil
}
