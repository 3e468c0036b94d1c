package gateway

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rutvikbangar/collab-sphere/modules/auth"
	"github.com/rutvikbangar/collab-sphere/modules/files"
)

// registerRequest is the request body for account registration.
type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// loginRequest is the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the request body for token refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// createRoomBody is the request body for room creation.
type createRoomBody struct {
	Name string `json:"name"`
}

// addMemberBody is the request body for adding a room member.
type addMemberBody struct {
	UserID string `json:"user_id"`
}

// requireAuth verifies the Bearer token and stashes the identity in locals.
func (m *Module) requireAuth(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}
	identity, err := m.authService.Verify(c.Context(), token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	c.Locals(localUserID, identity.UserID)
	c.Locals(localUsername, identity.Name)
	return c.Next()
}

// handleHealth handles health check requests (GET /health).
func (m *Module) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "collab-sphere",
		"rooms":   m.coordinator.Registry().RoomCount(),
	})
}

// handleRegister creates a new account (POST /api/v1/auth/register).
func (m *Module) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	u, err := m.authService.Register(c.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if isAuthValidation(err) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
	})
}

// handleLogin exchanges credentials for a token pair (POST /api/v1/auth/login).
func (m *Module) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	pair, err := m.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return err
	}
	return c.JSON(pair)
}

// handleRefresh exchanges a refresh token for a new pair (POST /api/v1/auth/refresh).
func (m *Module) handleRefresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "refresh_token is required")
	}

	pair, err := m.authService.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid refresh token")
	}
	return c.JSON(pair)
}

// handleCreateRoom creates a room (POST /api/v1/rooms).
func (m *Module) handleCreateRoom(c *fiber.Ctx) error {
	var body createRoomBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	room, err := m.rooms.CreateRoom(c.Context(), body.Name, c.Locals(localUserID).(string))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

// handleListRooms lists the caller's rooms (GET /api/v1/rooms).
func (m *Module) handleListRooms(c *fiber.Ctx) error {
	roomList, err := m.rooms.ListRooms(c.Context(), c.Locals(localUserID).(string))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"rooms": roomList,
		"total": len(roomList),
	})
}

// handleGetRoom fetches one room (GET /api/v1/rooms/:id).
func (m *Module) handleGetRoom(c *fiber.Ctx) error {
	room, err := m.rooms.GetRoom(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "room not found")
	}
	return c.JSON(room)
}

// handleAddMember invites a user into a room (POST /api/v1/rooms/:id/members).
// Only the room creator may do this; the rooms module enforces it.
func (m *Module) handleAddMember(c *fiber.Ctx) error {
	var body addMemberBody
	if err := c.BodyParser(&body); err != nil || body.UserID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
	}

	err := m.rooms.AddMember(c.Context(), c.Params("id"), body.UserID, c.Locals(localUserID).(string))
	if err != nil {
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleRoomStrokes returns a room's persisted strokes (GET /api/v1/rooms/:id/strokes).
// Served from the cached read path, not the realtime join path.
func (m *Module) handleRoomStrokes(c *fiber.Ctx) error {
	roomID := c.Params("id")
	if err := m.authorizeRoom(c, roomID); err != nil {
		return err
	}

	strokes, err := m.reader.Strokes(c.Context(), roomID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"room_id": roomID,
		"strokes": strokes,
		"total":   len(strokes),
	})
}

// handleRoomMessages returns a room's chat history (GET /api/v1/rooms/:id/messages).
func (m *Module) handleRoomMessages(c *fiber.Ctx) error {
	roomID := c.Params("id")
	if err := m.authorizeRoom(c, roomID); err != nil {
		return err
	}

	messages, err := m.reader.Messages(c.Context(), roomID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"room_id":  roomID,
		"messages": messages,
		"total":    len(messages),
	})
}

// handleUploadFile accepts a multipart file upload (POST /api/v1/rooms/:id/files).
func (m *Module) handleUploadFile(c *fiber.Ctx) error {
	roomID := c.Params("id")
	if err := m.authorizeRoom(c, roomID); err != nil {
		return err
	}

	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field 'file' is required")
	}
	if header.Size > files.MaxUploadSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds maximum size")
	}

	f, err := header.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
	}

	rec, err := m.filesModule.Save(c.Context(), roomID,
		c.Locals(localUserID).(string), c.Locals(localUsername).(string),
		header.Filename, data)
	if err != nil {
		if errors.Is(err, files.ErrEmptyFile) || errors.Is(err, files.ErrFileTooLarge) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// handleListFiles lists a room's uploaded files (GET /api/v1/rooms/:id/files).
func (m *Module) handleListFiles(c *fiber.Ctx) error {
	roomID := c.Params("id")
	if err := m.authorizeRoom(c, roomID); err != nil {
		return err
	}

	fileList, err := m.filesModule.ListRoomFiles(c.Context(), roomID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"room_id": roomID,
		"files":   fileList,
		"total":   len(fileList),
	})
}

// handleDeleteFile removes an uploaded file (DELETE /api/v1/uploads/:id).
func (m *Module) handleDeleteFile(c *fiber.Ctx) error {
	err := m.filesModule.Delete(c.Context(), c.Params("id"), c.Locals(localUserID).(string))
	if err != nil {
		if errors.Is(err, files.ErrFileNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if errors.Is(err, files.ErrNotOwner) {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// authorizeRoom rejects callers who are neither creator nor member of the
// room. A missing room is reported as 404 rather than 403.
func (m *Module) authorizeRoom(c *fiber.Ctx, roomID string) error {
	verdict, err := m.rooms.Authorize(c.Context(), roomID, c.Locals(localUserID).(string))
	if err != nil {
		return err
	}
	if !verdict.Exists {
		return fiber.NewError(fiber.StatusNotFound, "room not found")
	}
	if !verdict.Allowed {
		return fiber.NewError(fiber.StatusForbidden, "not a member of this room")
	}
	return nil
}

// isAuthValidation reports whether an auth error is a client-side input
// problem.
func isAuthValidation(err error) bool {
	return errors.Is(err, auth.ErrInvalidEmail) ||
		errors.Is(err, auth.ErrNameRequired) ||
		errors.Is(err, auth.ErrWeakPassword) ||
		errors.Is(err, auth.ErrPasswordTooLong)
}
