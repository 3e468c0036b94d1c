package rooms

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRoomNotFound is returned when a room does not exist.
var ErrRoomNotFound = errors.New("room not found")

// Repository provides access to room storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new room repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new room.
func (r *Repository) Create(room *Room) error {
	if err := r.db.Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// FindByID retrieves a room by ID.
func (r *Repository) FindByID(id string) (*Room, error) {
	var room Room
	if err := r.db.First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// ListForUser returns rooms the user created or was added to.
func (r *Repository) ListForUser(userID string) ([]Room, error) {
	var rooms []Room
	err := r.db.
		Where("created_by = ?", userID).
		Or("id IN (?)", r.db.Model(&Member{}).Select("room_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// AddMember adds a user to a room. Idempotent: adding an existing member is
// a no-op.
func (r *Repository) AddMember(roomID, userID string) error {
	member := Member{RoomID: roomID, UserID: userID}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// IsAuthorized reports whether a user may enter a room: the creator or any
// added member.
func (r *Repository) IsAuthorized(roomID, userID string) (bool, error) {
	room, err := r.FindByID(roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return false, nil
		}
		return false, err
	}
	if room.CreatedBy == userID {
		return true, nil
	}

	var count int64
	err = r.db.Model(&Member{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}
