package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/chat"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const maxChatFrameBytes = 64 * 1024

type chatRequest struct {
	Message string          `json:"message" binding:"required"`
	Context json.RawMessage `json:"context"`
}

type chatFrame struct {
	Message        string          `json:"message"`
	ConversationID string          `json:"conversation_id"`
	Context        json.RawMessage `json:"context"`
}

func (h *Handler) handleChat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.chat.Handle(c.Request.Context(), chat.Request{
		UserID:         userID(c),
		ConversationID: c.Query("conversation_id"),
		Message:        req.Message,
		Context:        req.Context,
	})
	if err != nil {
		h.writeChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (h *Handler) writeChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrMessageRequired), errors.Is(err, chat.ErrUserRequired):
		writeError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, store.ErrNotFound):
		writeError(c, http.StatusNotFound, "conversation not found", err)
	default:
		h.logger.Errorw("chat turn failed", "user_id", userID(c), "error", err)
		writeError(c, http.StatusInternalServerError, "Error processing chat message", err)
	}
}

// handleChatWebsocket runs the chat pipeline for every text frame on the socket. Frames are
// processed one at a time, so replies arrive in request order.
func (h *Handler) handleChatWebsocket(c *gin.Context) {
	conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("chat websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxChatFrameBytes)

	uid := userID(c)
	ctx := c.Request.Context()

	sendError := func(message string, detail error) {
		payload := gin.H{"type": "error", "error": message}
		if detail != nil {
			payload["details"] = detail.Error()
		}
		_ = conn.WriteJSON(payload)
	}

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warnf("chat websocket closed: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			sendError("only text frames are supported", nil)
			continue
		}

		var frame chatFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			sendError("invalid payload", err)
			continue
		}
		if strings.TrimSpace(frame.Message) == "" {
			sendError("message is required", chat.ErrMessageRequired)
			continue
		}

		reply, err := h.chat.Handle(ctx, chat.Request{
			UserID:         uid,
			ConversationID: frame.ConversationID,
			Message:        frame.Message,
			Context:        frame.Context,
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				sendError("conversation not found", err)
				continue
			}
			h.logger.Errorw("chat websocket turn failed", "user_id", uid, "error", err)
			sendError("Error processing chat message", err)
			continue
		}

		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Warnf("chat websocket write failed: %v", err)
			return
		}
	}
}
