package rooms

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RoomsPort defines the interface for room operations used by other modules.
type RoomsPort interface {
	CreateRoom(ctx context.Context, name, createdBy string) (*RoomResponse, error)
	GetRoom(ctx context.Context, roomID string) (*RoomResponse, error)
	ListRooms(ctx context.Context, userID string) ([]RoomResponse, error)
	AddMember(ctx context.Context, roomID, userID, requestedBy string) error
	Authorize(ctx context.Context, roomID, userID string) (AuthorizeResponse, error)
}

// roomsAdapter implements RoomsPort over the ServiceContainer.
type roomsAdapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a RoomsPort backed by the rooms module's container,
// received via SetDependencyServiceContainer.
func NewAdapter(container mono.ServiceContainer) RoomsPort {
	if container == nil {
		panic("rooms adapter requires non-nil ServiceContainer")
	}
	return &roomsAdapter{container: container}
}

// CreateRoom creates a room via the create-room service.
func (a *roomsAdapter) CreateRoom(ctx context.Context, name, createdBy string) (*RoomResponse, error) {
	req := CreateRoomRequest{Name: name, CreatedBy: createdBy}
	var resp RoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create-room", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("create-room service call failed: %w", err)
	}
	return &resp, nil
}

// GetRoom retrieves a room via the get-room service.
func (a *roomsAdapter) GetRoom(ctx context.Context, roomID string) (*RoomResponse, error) {
	req := GetRoomRequest{RoomID: roomID}
	var resp RoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-room", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-room service call failed: %w", err)
	}
	return &resp, nil
}

// ListRooms lists a user's rooms via the list-rooms service.
func (a *roomsAdapter) ListRooms(ctx context.Context, userID string) ([]RoomResponse, error) {
	req := ListRoomsRequest{UserID: userID}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-rooms", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-rooms service call failed: %w", err)
	}
	return resp.Rooms, nil
}

// AddMember adds a member via the add-member service.
func (a *roomsAdapter) AddMember(ctx context.Context, roomID, userID, requestedBy string) error {
	req := AddMemberRequest{RoomID: roomID, UserID: userID, RequestedBy: requestedBy}
	var resp AddMemberResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "add-member", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("add-member service call failed: %w", err)
	}
	return nil
}

// Authorize checks room existence and membership via the authorize service.
func (a *roomsAdapter) Authorize(ctx context.Context, roomID, userID string) (AuthorizeResponse, error) {
	req := AuthorizeRequest{RoomID: roomID, UserID: userID}
	var resp AuthorizeResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "authorize", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return AuthorizeResponse{}, fmt.Errorf("authorize service call failed: %w", err)
	}
	return resp, nil
}
