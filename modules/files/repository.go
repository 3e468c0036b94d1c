package files

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrFileNotFound is returned when a file record does not exist.
var ErrFileNotFound = errors.New("file not found")

// Repository handles file metadata persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new file repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new file record.
func (r *Repository) Create(rec *FileRecord) error {
	if err := r.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}
	return nil
}

// FindByID returns a file record by ID.
func (r *Repository) FindByID(id string) (*FileRecord, error) {
	var rec FileRecord
	err := r.db.First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return &rec, nil
}

// ListByRoom returns all file records for a room, oldest first.
func (r *Repository) ListByRoom(roomID string) ([]FileRecord, error) {
	var recs []FileRecord
	err := r.db.Where("room_id = ?", roomID).Order("created_at ASC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return recs, nil
}

// Delete removes a file record.
func (r *Repository) Delete(id string) error {
	if err := r.db.Delete(&FileRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}
