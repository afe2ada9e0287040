package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curbshare/curbshare/internal/messages"
	"github.com/curbshare/curbshare/pkg/logger"
	"github.com/curbshare/curbshare/pkg/middleware"
)

// SendMessageRequest is the payload for direct messages.
type SendMessageRequest struct {
	ReceiverUsername string `json:"receiver_username"`
	Message          string `json:"message"`
}

// MessagesHandler holds dependencies
type MessagesHandler struct {
	svc *messages.Service
}

func NewMessagesHandler(svc *messages.Service) *MessagesHandler {
	return &MessagesHandler{svc: svc}
}

// Register routes under /api/message
func (h *MessagesHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	g := rg.Group("/api/message", auth)
	g.POST("/send", h.Send)
	g.GET("/inbox", h.Inbox)
	g.GET("/:userID", h.Conversation)
}

func (h *MessagesHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ReceiverUsername == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field"})
		return
	}
	err := h.svc.Send(c.Request.Context(), middleware.UserID(c), req.ReceiverUsername, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
		case errors.Is(err, messages.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "receiver not found"})
		default:
			logger.Errorf("send message failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "message sent successfully"})
}

func (h *MessagesHandler) Inbox(c *gin.Context) {
	entries, err := h.svc.Inbox(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, messages.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Errorf("inbox failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inbox": entries})
}

func (h *MessagesHandler) Conversation(c *gin.Context) {
	msgs, err := h.svc.Conversation(c.Request.Context(), middleware.UserID(c), c.Param("userID"))
	if err != nil {
		if errors.Is(err, messages.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Errorf("conversation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
