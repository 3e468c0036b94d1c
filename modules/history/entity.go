package history

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PointList stores a stroke's coordinate sequence as a JSON array in a TEXT
// column, since SQLite has no native array type.
type PointList []float64

// Value implements driver.Valuer.
func (p PointList) Value() (driver.Value, error) {
	data, err := json.Marshal([]float64(p))
	if err != nil {
		return nil, fmt.Errorf("failed to encode points: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (p *PointList) Scan(value any) error {
	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), (*[]float64)(p))
	case []byte:
		return json.Unmarshal(v, (*[]float64)(p))
	default:
		return fmt.Errorf("unsupported points column type %T", value)
	}
}

// StrokeRecord is the persisted form of a stroke. Seq is assigned by the
// database and gives a total order per room that survives equal CreatedAt
// timestamps. The unique index on StrokeID is the deduplication mechanism.
type StrokeRecord struct {
	Seq       int64     `gorm:"primarykey;autoIncrement"`
	StrokeID  string    `gorm:"uniqueIndex;size:64;not null"`
	RoomID    string    `gorm:"index;size:64;not null"`
	Points    PointList `gorm:"type:text;not null"`
	Color     string    `gorm:"size:32"`
	Tool      string    `gorm:"size:16"`
	Width     float64
	CreatedAt time.Time
}

// TableName returns the table name for StrokeRecord.
func (StrokeRecord) TableName() string {
	return "strokes"
}

// MessageRecord is the persisted form of a chat message.
type MessageRecord struct {
	Seq        int64  `gorm:"primarykey;autoIncrement"`
	ID         string `gorm:"uniqueIndex;size:36;not null"`
	RoomID     string `gorm:"index;size:64;not null"`
	SenderID   string `gorm:"size:36;not null"`
	SenderName string `gorm:"size:100"`
	Text       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
}

// TableName returns the table name for MessageRecord.
func (MessageRecord) TableName() string {
	return "messages"
}
