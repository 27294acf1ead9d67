package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/service"
	"github.com/fleveque/stock-assistant/internal/session"
)

// ChatHandler exposes conversation sessions over HTTP.
type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

func NewChatHandler(chat *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateSession starts a conversation.
// Route: POST /api/v1/sessions
func (h *ChatHandler) CreateSession(c *gin.Context) {
	sess := h.chat.CreateSession()
	c.JSON(http.StatusCreated, gin.H{
		"id":         sess.ID(),
		"created_at": sess.CreatedAt(),
	})
}

// ListMessages returns the transcript.
// Route: GET /api/v1/sessions/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	turns, err := h.chat.History(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": turns})
}

// SendMessage runs one turn and returns the assistant's reply. Assistant-side
// failures still produce a 200 with an explanatory reply.
// Route: POST /api/v1/sessions/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with a non-empty content field"})
		return
	}

	turn, err := h.chat.Send(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, turn)
}

// DeleteSession ends a conversation.
// Route: DELETE /api/v1/sessions/:id
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if err := h.chat.DeleteSession(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, session.ErrInvalidTurn):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrTurnInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("chat request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
