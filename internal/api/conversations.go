package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

type conversationRequest struct {
	Title string `json:"title" binding:"max=200"`
}

type titleRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

func (h *Handler) handleListConversations(c *gin.Context) {
	limit := store.ClampLimit(queryInt(c, "limit", 0), store.DefaultConversationLimit, store.MaxConversationLimit)
	offset := max(queryInt(c, "offset", 0), 0)

	convs, err := h.conversations.ListConversations(c.Request.Context(), userID(c), limit, offset)
	if err != nil {
		h.writeStoreError(c, "failed to list conversations", err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (h *Handler) handleCreateConversation(c *gin.Context) {
	var req conversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conv, err := h.conversations.CreateConversation(c.Request.Context(), userID(c), agents.GenerateConversationTitle(req.Title))
	if err != nil {
		h.writeStoreError(c, "failed to create conversation", err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *Handler) handleGetConversation(c *gin.Context) {
	conv, err := h.conversations.GetConversation(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		h.writeStoreError(c, "failed to load conversation", err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *Handler) handleDeleteConversation(c *gin.Context) {
	if err := h.conversations.DeleteConversation(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		h.writeStoreError(c, "failed to delete conversation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": c.Param("id")})
}

func (h *Handler) handleClearConversation(c *gin.Context) {
	if err := h.conversations.ClearMessages(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		h.writeStoreError(c, "failed to clear conversation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "id": c.Param("id")})
}

func (h *Handler) handleUpdateTitle(c *gin.Context) {
	var req titleRequest
	if !bindJSON(c, &req) {
		return
	}

	conv, err := h.conversations.UpdateTitle(c.Request.Context(), c.Param("id"), userID(c), agents.GenerateConversationTitle(req.Title))
	if err != nil {
		h.writeStoreError(c, "failed to update title", err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *Handler) handleListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.conversations.GetConversation(ctx, id, userID(c)); err != nil {
		h.writeStoreError(c, "failed to load conversation", err)
		return
	}

	limit := store.ClampLimit(queryInt(c, "limit", 0), store.DefaultMessageLimit, store.MaxMessageLimit)
	offset := max(queryInt(c, "offset", 0), 0)

	msgs, err := h.conversations.ListMessages(ctx, id, limit, offset)
	if err != nil {
		h.writeStoreError(c, "failed to list messages", err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
