package rooms

import "time"

// Room is a named namespace grouping users who share one whiteboard and one
// chat history. Its persisted history outlives any live membership.
type Room struct {
	ID        string    `gorm:"primarykey;size:21" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedBy string    `gorm:"index;size:36;not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Room.
func (Room) TableName() string {
	return "rooms"
}

// Member links a user to a room they were invited into. The creator is
// implicitly a member and has no row here.
type Member struct {
	Seq       int64     `gorm:"primarykey;autoIncrement" json:"-"`
	RoomID    string    `gorm:"uniqueIndex:idx_room_user;size:21;not null" json:"room_id"`
	UserID    string    `gorm:"uniqueIndex:idx_room_user;size:36;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Member.
func (Member) TableName() string {
	return "room_members"
}
