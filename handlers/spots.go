package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/curbshare/curbshare/internal/spots"
	"github.com/curbshare/curbshare/internal/storage"
	"github.com/curbshare/curbshare/pkg/logger"
	"github.com/curbshare/curbshare/pkg/middleware"
)

// uploadURLTTL bounds how long a presigned image upload stays valid;
// downloadURLTTL bounds presigned GET links handed out for private buckets.
const (
	uploadURLTTL   = 15 * time.Minute
	downloadURLTTL = 24 * time.Hour
)

// CreateSpotRequest is the payload for publishing a listing.
type CreateSpotRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	ImageURL    string   `json:"image_url"`
	Tags        string   `json:"tags"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

// UpdateSpotRequest is an owner-only partial update.
type UpdateSpotRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Tags        *string `json:"tags"`
}

// SpotsHandler holds dependencies
type SpotsHandler struct {
	svc   *spots.Service
	store *storage.MinIOStorage
}

func NewSpotsHandler(svc *spots.Service, store *storage.MinIOStorage) *SpotsHandler {
	return &SpotsHandler{svc: svc, store: store}
}

// Register routes under /api/parking
func (h *SpotsHandler) Register(rg *gin.RouterGroup, auth, optional gin.HandlerFunc) {
	p := rg.Group("/api/parking")
	p.POST("/spots", auth, h.Create)
	p.GET("/spots", optional, h.List)
	p.GET("/spots/:id", optional, h.Get)
	p.PUT("/update-post/:id", auth, h.Update)
	p.DELETE("/spots/:id", auth, h.Delete)
	p.POST("/spots/:id/like", auth, h.Like)
	p.POST("/generate-signature", auth, h.GenerateUploadURL)
	p.POST("/upload", auth, h.Upload)
}

func (h *SpotsHandler) Create(c *gin.Context) {
	var req CreateSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	required := []struct {
		name string
		ok   bool
	}{
		{"title", req.Title != ""},
		{"address", req.Address != ""},
		{"lat", req.Lat != nil},
		{"lng", req.Lng != nil},
	}
	for _, f := range required {
		if !f.ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Missing required field: %s", f.name)})
			return
		}
	}
	sp, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), spots.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
		Lat:         *req.Lat,
		Lng:         *req.Lng,
	})
	if err != nil {
		if errors.Is(err, spots.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Errorf("create spot failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Parking spot created successfully",
		"spot": gin.H{
			"id":    sp.ID.Hex(),
			"title": sp.Title,
		},
	})
}

func (h *SpotsHandler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		logger.Errorf("list spots failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"spots": views})
}

func (h *SpotsHandler) Get(c *gin.Context) {
	v, err := h.svc.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, spots.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Spot not found"})
			return
		}
		logger.Errorf("get spot failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"spot": v})
}

func (h *SpotsHandler) Update(c *gin.Context) {
	var req UpdateSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	patch := spots.Patch{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if req.Tags != nil {
		patch.Tags = splitTags(*req.Tags)
	}
	v, err := h.svc.Update(c.Request.Context(), c.Param("id"), middleware.UserID(c), patch)
	if err != nil {
		switch {
		case errors.Is(err, spots.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, spots.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing POST ID"})
		default:
			logger.Errorf("update spot failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Parking spot updated successfully",
		"spot":    v,
	})
}

func (h *SpotsHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, spots.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, spots.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found or unauthorized"})
		default:
			logger.Errorf("delete spot failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (h *SpotsHandler) Like(c *gin.Context) {
	count, liked, err := h.svc.ToggleLike(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, spots.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, spots.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		default:
			logger.Errorf("like spot failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"like_count": count,
		"is_liked":   liked,
	})
}

// splitTags turns the raw space-separated tag string into the stored form.
func splitTags(raw string) []string {
	return strings.Fields(raw)
}

// GenerateUploadURL hands the client a short-lived presigned PUT URL for an
// image upload, plus the URL the object will be readable at afterwards.
func (h *SpotsHandler) GenerateUploadURL(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "uploads not configured"})
		return
	}
	key := fmt.Sprintf("spots/%s/%s", middleware.UserID(c), primitive.NewObjectID().Hex())
	uploadURL, err := h.store.PresignedPutURL(c.Request.Context(), key, uploadURLTTL)
	if err != nil {
		logger.Errorf("presign upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upload_url": uploadURL,
		"public_url": h.store.PublicURL(key),
		"key":        key,
		"expires_in": int(uploadURLTTL.Seconds()),
	})
}

// Upload accepts a multipart image and stores it server-side, for clients
// that cannot PUT to a presigned URL directly. The response carries both the
// public URL and a presigned GET link that works against private buckets.
func (h *SpotsHandler) Upload(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "uploads not configured"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: file"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("spots/%s/%s", middleware.UserID(c), primitive.NewObjectID().Hex())
	contentType := header.Header.Get("Content-Type")
	if err := h.store.UploadFile(c.Request.Context(), key, file, header.Size, contentType); err != nil {
		logger.Errorf("upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	downloadURL, err := h.store.GetPresignedURL(c.Request.Context(), key, downloadURLTTL)
	if err != nil {
		logger.Errorf("presign download failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"key":          key,
		"public_url":   h.store.PublicURL(key),
		"download_url": downloadURL,
		"expires_in":   int(downloadURLTTL.Seconds()),
	})
}
