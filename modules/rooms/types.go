package rooms

import "time"

// CreateRoomRequest is the request for creating a room.
type CreateRoomRequest struct {
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
}

// RoomResponse represents a room in responses.
type RoomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// GetRoomRequest is the request for fetching a room.
type GetRoomRequest struct {
	RoomID string `json:"room_id"`
}

// ListRoomsRequest is the request for listing a user's rooms.
type ListRoomsRequest struct {
	UserID string `json:"user_id"`
}

// ListRoomsResponse is the response containing a user's rooms.
type ListRoomsResponse struct {
	Rooms []RoomResponse `json:"rooms"`
	Total int            `json:"total"`
}

// AddMemberRequest is the request for adding a member to a room.
type AddMemberRequest struct {
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	RequestedBy string `json:"requested_by"`
}

// AddMemberResponse is the response after adding a member.
type AddMemberResponse struct {
	Added bool `json:"added"`
}

// AuthorizeRequest asks whether a user may enter a room.
type AuthorizeRequest struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// AuthorizeResponse is the authorization verdict.
type AuthorizeResponse struct {
	Allowed bool `json:"allowed"`
	Exists  bool `json:"exists"`
}
