package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	userID string
	err    error
}

func (f *fakeVerifier) Verify(raw string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.userID, nil
}

func newAuthRouter(ver TokenVerifier) *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthRequired(ver), func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": UserID(c)})
	})
	r.GET("/open", AuthOptional(ver), func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": UserID(c)})
	})
	return r
}

func TestAuthRequired_ValidToken(t *testing.T) {
	r := newAuthRouter(&fakeVerifier{userID: "abc123"})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "abc123")
}

func TestAuthRequired_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		header string
		ver    TokenVerifier
	}{
		{"missing header", "", &fakeVerifier{userID: "x"}},
		{"malformed header", "Token abc", &fakeVerifier{userID: "x"}},
		{"bad token", "Bearer junk", &fakeVerifier{err: errors.New("bad")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAuthRouter(tc.ver)
			req := httptest.NewRequest("GET", "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthOptional(t *testing.T) {
	r := newAuthRouter(&fakeVerifier{userID: "abc123"})

	// anonymous request passes with empty user id
	req := httptest.NewRequest("GET", "/open", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":""`)

	// valid token attaches the user id
	req2 := httptest.NewRequest("GET", "/open", nil)
	req2.Header.Set("Authorization", "Bearer ok")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Contains(t, w2.Body.String(), "abc123")

	// invalid token still passes, anonymously
	r2 := newAuthRouter(&fakeVerifier{err: errors.New("bad")})
	req3 := httptest.NewRequest("GET", "/open", nil)
	req3.Header.Set("Authorization", "Bearer junk")
	w3 := httptest.NewRecorder()
	r2.ServeHTTP(w3, req3)
	require.Equal(t, http.StatusOK, w3.Code)
	require.Contains(t, w3.Body.String(), `"user_id":""`)
}
