package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curbshare/curbshare/internal/oidc"
	"github.com/curbshare/curbshare/internal/users"
	"github.com/curbshare/curbshare/pkg/logger"
	"github.com/curbshare/curbshare/pkg/metrics"
	"github.com/curbshare/curbshare/pkg/middleware"
)

// RegisterRequest is the payload for password account creation.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	ProfileImage string `json:"profile_image"`
}

// LoginRequest is the payload for password sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleSignInRequest carries the Google ID token obtained by the frontend.
type GoogleSignInRequest struct {
	Token string `json:"token"`
}

// UpdateProfileRequest carries the partial profile patch. Absent fields are
// left untouched.
type UpdateProfileRequest struct {
	Username     *string `json:"username"`
	Firstname    *string `json:"firstname"`
	Lastname     *string `json:"lastname"`
	ProfileImage *string `json:"profile_image"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	usersSvc *users.Service
	google   oidc.Verifier
}

func NewAuthHandler(u *users.Service, google oidc.Verifier) *AuthHandler {
	return &AuthHandler{usersSvc: u, google: google}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/register", h.RegisterUser)
	a.POST("/login", h.Login)
	a.POST("/google-signin", h.GoogleSignIn)
	a.PUT("/update-profile", auth, h.UpdateProfile)
	a.GET("/me", auth, h.Me)
}

// RegisterUser creates a password account and returns a bearer token.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	u, token, err := h.usersSvc.Register(c.Request.Context(), users.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Username:     req.Username,
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrMissingFields):
			metrics.AuthAttempts.WithLabelValues("register", "rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		case errors.Is(err, users.ErrEmailTaken):
			metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		default:
			logger.Errorf("register failed: %v", err)
			metrics.AuthAttempts.WithLabelValues("register", "error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	metrics.AuthAttempts.WithLabelValues("register", "ok").Inc()
	c.JSON(http.StatusCreated, gin.H{
		"message":      "user registered successfully",
		"email":        u.Email,
		"access_token": token,
	})
}

// Login verifies email/password and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	token, err := h.usersSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		case errors.Is(err, users.ErrNoPasswordSet):
			metrics.AuthAttempts.WithLabelValues("password", "rejected").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no password set"})
		case errors.Is(err, users.ErrInvalidCredentials):
			metrics.AuthAttempts.WithLabelValues("password", "rejected").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
		default:
			logger.Errorf("login failed: %v", err)
			metrics.AuthAttempts.WithLabelValues("password", "error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	metrics.AuthAttempts.WithLabelValues("password", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"message":      "login successful",
		"access_token": token,
	})
}

// GoogleSignIn verifies a Google ID token, auto-registering the account on
// first sign-in, and returns a bearer token.
func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	var req GoogleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	if h.google == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "google sign-in not configured"})
		return
	}
	claims, err := h.google.Verify(c.Request.Context(), req.Token)
	if err != nil {
		logger.Debugf("google token rejected: %v", err)
		metrics.AuthAttempts.WithLabelValues("google", "rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad token"})
		return
	}
	token, err := h.usersSvc.GoogleSignIn(c.Request.Context(), claims)
	if err != nil {
		logger.Errorf("google sign-in failed: %v", err)
		metrics.AuthAttempts.WithLabelValues("google", "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	metrics.AuthAttempts.WithLabelValues("google", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

// UpdateProfile applies a partial patch to the caller's profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	err := h.usersSvc.UpdateProfile(c.Request.Context(), middleware.UserID(c), users.ProfilePatch{
		Username:     req.Username,
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Errorf("profile update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated successfully"})
}

// Me returns the caller's sanitized profile.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.usersSvc.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Errorf("profile lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
