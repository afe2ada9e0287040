package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curbshare/curbshare/internal/comments"
	"github.com/curbshare/curbshare/pkg/logger"
	"github.com/curbshare/curbshare/pkg/middleware"
)

// CreateCommentRequest is the payload for posting a comment.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// CommentsHandler holds dependencies
type CommentsHandler struct {
	svc *comments.Service
}

func NewCommentsHandler(svc *comments.Service) *CommentsHandler {
	return &CommentsHandler{svc: svc}
}

// Register routes under /api/comments
func (h *CommentsHandler) Register(rg *gin.RouterGroup, auth, optional gin.HandlerFunc) {
	g := rg.Group("/api/comments")
	g.POST("/:spotID", auth, h.Create)
	g.GET("/:spotID", optional, h.List)
	g.POST("/:spotID/:commentID", auth, h.Like)
}

func (h *CommentsHandler) Create(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		return
	}
	v, err := h.svc.Create(c.Request.Context(), c.Param("spotID"), middleware.UserID(c), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrEmptyText):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		case errors.Is(err, comments.ErrSpotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Parking spot not found"})
		default:
			logger.Errorf("create comment failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment created successfully",
		"comment": gin.H{
			"id":         v.ID,
			"text":       v.Text,
			"author":     v.Author,
			"created_at": v.CreatedAt,
		},
	})
}

func (h *CommentsHandler) List(c *gin.Context) {
	list, err := h.svc.ListBySpot(c.Request.Context(), c.Param("spotID"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, comments.ErrSpotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parking spot not found"})
			return
		}
		logger.Errorf("list comments failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

func (h *CommentsHandler) Like(c *gin.Context) {
	count, liked, err := h.svc.ToggleLike(c.Request.Context(), c.Param("commentID"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, comments.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
		logger.Errorf("like comment failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"like_count": count,
		"is_liked":   liked,
	})
}
