package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/rutvikbangar/collab-sphere/domain/board"
	"github.com/rutvikbangar/collab-sphere/modules/hub"
)

// Inbound frame types accepted from clients. Everything else is rejected
// with an error envelope.
const (
	frameJoin    = "join"
	frameLeave   = "leave"
	frameDraw    = "draw"
	frameChat    = "chat"
	frameReplace = "replace"
)

// Error codes carried in error envelopes.
const (
	codeValidation   = "validation"
	codeNotMember    = "not_member"
	codePersistence  = "persistence"
	codeUnauthorized = "unauthorized"
	codeRateLimited  = "rate_limited"
	codeUnknown      = "unknown"
)

// inboundFrame is the wire format for client-to-server messages.
type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// joinPayload is the payload for joining a room.
type joinPayload struct {
	RoomID string `json:"room_id"`
}

// chatPayload is the payload for sending a chat message.
type chatPayload struct {
	Text string `json:"text"`
}

// replacePayload is the payload for an atomic board rewrite (undo).
type replacePayload struct {
	Strokes []hub.StrokeInput `json:"strokes"`
}

// wsClient is the per-connection state of the read loop. A connection is
// bound to at most one room at a time; joining a new room leaves the old one
// first.
type wsClient struct {
	m       *Module
	sess    *wsSession
	limiter *rateLimiter
	roomID  string
	logger  *slog.Logger
}

// handleWebSocket runs one websocket connection to completion. The identity
// was verified during the upgrade and stashed in locals; clients never
// supply their own user id.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	userID, _ := c.Locals(localUserID).(string)
	username, _ := c.Locals(localUsername).(string)

	sess := newSession(uuid.New().String(), userID, username)
	client := &wsClient{
		m:       m,
		sess:    sess,
		limiter: newRateLimiter(frameBurst, framesPerSecond),
		logger:  m.wsLogger.With("session", sess.ID(), "user", userID),
	}

	go sess.writePump(c, websocket.TextMessage, func(env hub.Envelope) ([]byte, error) {
		return json.Marshal(env)
	}, func(err error) {
		client.logger.Debug("write failed", "error", err)
	})

	defer func() {
		if client.roomID != "" {
			m.coordinator.Leave(client.roomID, sess.ID())
		}
		sess.close()
		c.Close()
	}()

	client.logger.Info("websocket connected")

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				client.logger.Error("websocket read failed", "error", err)
			}
			break
		}

		if !client.limiter.allow() {
			client.sendError(codeRateLimited, "too many messages, slow down")
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			client.sendError(codeValidation, "malformed frame")
			continue
		}
		client.handleFrame(frame)
	}

	client.logger.Info("websocket disconnected")
}

// handleFrame dispatches one inbound frame.
func (c *wsClient) handleFrame(frame inboundFrame) {
	ctx := context.Background()

	switch frame.Type {
	case frameJoin:
		c.handleJoin(ctx, frame.Payload)
	case frameLeave:
		c.handleLeave()
	case frameDraw:
		c.handleDraw(ctx, frame.Payload)
	case frameChat:
		c.handleChat(ctx, frame.Payload)
	case frameReplace:
		c.handleReplace(ctx, frame.Payload)
	default:
		c.sendError(codeUnknown, "unknown frame type: "+frame.Type)
	}
}

func (c *wsClient) handleJoin(ctx context.Context, payload json.RawMessage) {
	var req joinPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomID == "" {
		c.sendError(codeValidation, "join requires a room_id")
		return
	}

	verdict, err := c.m.rooms.Authorize(ctx, req.RoomID, c.sess.UserID())
	if err != nil {
		c.logger.Error("authorize failed", "room", req.RoomID, "error", err)
		c.sendError(codePersistence, "authorization check failed")
		return
	}
	if !verdict.Exists {
		c.sendError(codeValidation, "room does not exist")
		return
	}
	if !verdict.Allowed {
		c.sendError(codeUnauthorized, "not a member of this room")
		return
	}

	if c.roomID != "" {
		c.m.coordinator.Leave(c.roomID, c.sess.ID())
		c.roomID = ""
	}

	if err := c.m.coordinator.Join(ctx, req.RoomID, c.sess); err != nil {
		c.sendMappedError(err)
		return
	}
	c.roomID = req.RoomID
}

func (c *wsClient) handleLeave() {
	if c.roomID == "" {
		return
	}
	c.m.coordinator.Leave(c.roomID, c.sess.ID())
	c.roomID = ""
}

func (c *wsClient) handleDraw(ctx context.Context, payload json.RawMessage) {
	if c.roomID == "" {
		c.sendError(codeNotMember, "join a room first")
		return
	}
	var in hub.StrokeInput
	if err := json.Unmarshal(payload, &in); err != nil {
		c.sendError(codeValidation, "malformed draw payload")
		return
	}
	if err := c.m.coordinator.Draw(ctx, c.roomID, c.sess, in); err != nil {
		c.sendMappedError(err)
	}
}

func (c *wsClient) handleChat(ctx context.Context, payload json.RawMessage) {
	if c.roomID == "" {
		c.sendError(codeNotMember, "join a room first")
		return
	}
	var req chatPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(codeValidation, "malformed chat payload")
		return
	}
	if err := c.m.coordinator.Chat(ctx, c.roomID, c.sess, req.Text); err != nil {
		c.sendMappedError(err)
	}
}

func (c *wsClient) handleReplace(ctx context.Context, payload json.RawMessage) {
	if c.roomID == "" {
		c.sendError(codeNotMember, "join a room first")
		return
	}
	var req replacePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(codeValidation, "malformed replace payload")
		return
	}
	if err := c.m.coordinator.Replace(ctx, c.roomID, c.sess, req.Strokes); err != nil {
		c.sendMappedError(err)
	}
}

// sendMappedError classifies a coordinator error into a wire code.
func (c *wsClient) sendMappedError(err error) {
	switch {
	case errors.Is(err, board.ErrValidation):
		c.sendError(codeValidation, err.Error())
	case errors.Is(err, hub.ErrNotMember):
		c.sendError(codeNotMember, "not a member of this room")
	case errors.Is(err, hub.ErrPersistence):
		c.logger.Error("persistence failure", "error", err)
		c.sendError(codePersistence, "history storage unavailable")
	default:
		c.logger.Error("unexpected error", "error", err)
		c.sendError(codeUnknown, "internal error")
	}
}

// sendError delivers an error envelope through the session queue so it
// cannot overtake envelopes already queued for this client.
func (c *wsClient) sendError(code, detail string) {
	err := c.sess.Enqueue(hub.Envelope{
		Type:    hub.EventError,
		Payload: hub.ErrorPayload{Code: code, Detail: detail},
	})
	if err != nil && !errors.Is(err, hub.ErrSessionClosed) {
		c.logger.Debug("failed to queue error envelope", "error", err)
	}
}
