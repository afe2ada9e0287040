package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// userIDKey is the gin context key under which the authenticated user's id
// is stored.
const userIDKey = "userID"

// TokenVerifier is the minimal interface the middleware depends on. It
// returns the user id the token was issued for.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// AuthRequired returns a Gin middleware that verifies Bearer tokens using
// the provided verifier and rejects requests without a valid one.
func AuthRequired(ver TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := bearerSubject(c, ver)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// AuthOptional attaches the user id when a valid Bearer token is present and
// lets the request through anonymously otherwise. Used on read endpoints
// whose response varies with the viewer (like state).
func AuthOptional(ver TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := bearerSubject(c, ver); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

func bearerSubject(c *gin.Context, ver TokenVerifier) (string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", false
	}
	// Expect 'Bearer <token>'
	var token string
	if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
		return "", false
	}
	userID, err := ver.Verify(token)
	if err != nil {
		return "", false
	}
	return userID, true
}

// UserID returns the authenticated user's id set by AuthRequired or
// AuthOptional, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
