package rooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
)

// Validation limits.
const MaxRoomNameLength = 100

// Service-level errors.
var (
	ErrRoomNameEmpty   = errors.New("room name cannot be empty")
	ErrRoomNameTooLong = errors.New("room name exceeds maximum length")
	ErrNotRoomCreator  = errors.New("only the room creator can add members")
)

// createRoom handles the create-room service request.
func (m *Module) createRoom(_ context.Context, req CreateRoomRequest, _ *mono.Msg) (RoomResponse, error) {
	if req.Name == "" {
		return RoomResponse{}, ErrRoomNameEmpty
	}
	if len(req.Name) > MaxRoomNameLength {
		return RoomResponse{}, ErrRoomNameTooLong
	}
	if req.CreatedBy == "" {
		return RoomResponse{}, fmt.Errorf("created_by is required")
	}

	room := &Room{
		ID:        m.newID(),
		Name:      req.Name,
		CreatedBy: req.CreatedBy,
	}
	if err := m.repo.Create(room); err != nil {
		return RoomResponse{}, err
	}

	return toResponse(room), nil
}

// getRoom handles the get-room service request.
func (m *Module) getRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (RoomResponse, error) {
	room, err := m.repo.FindByID(req.RoomID)
	if err != nil {
		return RoomResponse{}, err
	}
	return toResponse(room), nil
}

// listRooms handles the list-rooms service request.
func (m *Module) listRooms(_ context.Context, req ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	rooms, err := m.repo.ListForUser(req.UserID)
	if err != nil {
		return ListRoomsResponse{}, err
	}

	out := make([]RoomResponse, 0, len(rooms))
	for i := range rooms {
		out = append(out, toResponse(&rooms[i]))
	}
	return ListRoomsResponse{Rooms: out, Total: len(out)}, nil
}

// addMember handles the add-member service request. Only the creator can
// add members.
func (m *Module) addMember(_ context.Context, req AddMemberRequest, _ *mono.Msg) (AddMemberResponse, error) {
	room, err := m.repo.FindByID(req.RoomID)
	if err != nil {
		return AddMemberResponse{}, err
	}
	if room.CreatedBy != req.RequestedBy {
		return AddMemberResponse{}, ErrNotRoomCreator
	}
	if err := m.repo.AddMember(req.RoomID, req.UserID); err != nil {
		return AddMemberResponse{}, err
	}
	return AddMemberResponse{Added: true}, nil
}

// authorize handles the authorize service request. A missing room yields
// Exists=false rather than an error so the gateway can distinguish
// not-found from denied.
func (m *Module) authorize(_ context.Context, req AuthorizeRequest, _ *mono.Msg) (AuthorizeResponse, error) {
	if _, err := m.repo.FindByID(req.RoomID); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return AuthorizeResponse{Allowed: false, Exists: false}, nil
		}
		return AuthorizeResponse{}, err
	}

	allowed, err := m.repo.IsAuthorized(req.RoomID, req.UserID)
	if err != nil {
		return AuthorizeResponse{}, err
	}
	return AuthorizeResponse{Allowed: allowed, Exists: true}, nil
}

func toResponse(r *Room) RoomResponse {
	return RoomResponse{
		ID:        r.ID,
		Name:      r.Name,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}
