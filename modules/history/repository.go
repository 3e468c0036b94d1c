package history

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rutvikbangar/collab-sphere/domain/board"
)

// Store provides durable append-only access to stroke and chat history,
// queryable in creation order per room. Records are independent of any
// connection's lifetime. Distinct rooms can be read and written concurrently;
// per-room serialization is the hub coordinator's job, not the store's.
type Store struct {
	db *gorm.DB
}

// NewStore creates a history store. The *gorm.DB must have been opened with
// TranslateError enabled so unique-index violations surface as
// gorm.ErrDuplicatedKey.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AppendStroke stores one stroke. A StrokeID that already exists yields
// board.ErrDuplicateStroke and persists nothing.
func (s *Store) AppendStroke(ctx context.Context, stroke *board.Stroke) error {
	record := strokeToRecord(stroke)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return board.ErrDuplicateStroke
		}
		return fmt.Errorf("failed to append stroke: %w", err)
	}
	return nil
}

// ListStrokes returns a room's strokes oldest first. Repeated calls reflect
// the latest committed state.
func (s *Store) ListStrokes(ctx context.Context, roomID string) ([]board.Stroke, error) {
	var records []StrokeRecord
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("seq ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list strokes: %w", err)
	}

	strokes := make([]board.Stroke, 0, len(records))
	for _, r := range records {
		strokes = append(strokes, recordToStroke(r))
	}
	return strokes, nil
}

// ReplaceStrokes atomically discards a room's stored strokes and stores the
// given set as the new full set. Readers observe either the complete old set
// or the complete new one.
func (s *Store) ReplaceStrokes(ctx context.Context, roomID string, strokes []*board.Stroke) error {
	records := make([]StrokeRecord, 0, len(strokes))
	for _, stroke := range strokes {
		records = append(records, strokeToRecord(stroke))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&StrokeRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace strokes: %w", err)
	}
	return nil
}

// AppendMessage stores one chat message.
func (s *Store) AppendMessage(ctx context.Context, msg *board.ChatMessage) error {
	record := messageToRecord(msg)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// ListMessages returns a room's chat messages oldest first.
func (s *Store) ListMessages(ctx context.Context, roomID string) ([]board.ChatMessage, error) {
	var records []MessageRecord
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("seq ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]board.ChatMessage, 0, len(records))
	for _, r := range records {
		messages = append(messages, recordToMessage(r))
	}
	return messages, nil
}

func strokeToRecord(s *board.Stroke) StrokeRecord {
	return StrokeRecord{
		StrokeID:  s.StrokeID,
		RoomID:    s.RoomID,
		Points:    PointList(s.Points),
		Color:     s.Color,
		Tool:      string(s.Tool),
		Width:     s.Width,
		CreatedAt: s.CreatedAt,
	}
}

func recordToStroke(r StrokeRecord) board.Stroke {
	return board.Stroke{
		RoomID:    r.RoomID,
		StrokeID:  r.StrokeID,
		Points:    []float64(r.Points),
		Color:     r.Color,
		Tool:      board.Tool(r.Tool),
		Width:     r.Width,
		CreatedAt: r.CreatedAt,
	}
}

func messageToRecord(m *board.ChatMessage) MessageRecord {
	return MessageRecord{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
	}
}

func recordToMessage(r MessageRecord) board.ChatMessage {
	return board.ChatMessage{
		ID:         r.ID,
		RoomID:     r.RoomID,
		SenderID:   r.SenderID,
		SenderName: r.SenderName,
		Text:       r.Text,
		CreatedAt:  r.CreatedAt,
	}
}
