package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/curbshare/curbshare/internal/models"
	"github.com/curbshare/curbshare/internal/oidc"
	"github.com/curbshare/curbshare/internal/tokens"
	"github.com/curbshare/curbshare/internal/users"
	"github.com/curbshare/curbshare/pkg/middleware"
)

const testSecret = "handler-test-secret-32-bytes-abc"

// stubGoogle returns fixed claims or an error, standing in for the real
// Google verifier.
type stubGoogle struct {
	claims *oidc.Claims
	err    error
}

func (s *stubGoogle) Verify(ctx context.Context, raw string) (*oidc.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func newAuthTestRouter(google oidc.Verifier) (*gin.Engine, *users.Service) {
	gin.SetMode(gin.TestMode)
	issuer := tokens.NewIssuer(testSecret, 24*time.Hour)
	svc := users.NewService(users.NewMemoryRepository(), issuer)

	r := gin.New()
	h := NewAuthHandler(svc, google)
	h.Register(r.Group(""), middleware.AuthRequired(issuer))
	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"email":     email,
		"password":  "pw1",
		"username":  "u1",
		"firstname": "A",
		"lastname":  "B",
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	r, _ := newAuthTestRouter(nil)

	w := doJSON(t, r, "POST", "/auth/register", registerBody("a@x.com"), "")
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	require.Equal(t, "a@x.com", body["email"])
	require.NotEmpty(t, body["access_token"])

	// login with the right password
	w = doJSON(t, r, "POST", "/auth/login", map[string]string{"email": "a@x.com", "password": "pw1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, decode(t, w)["access_token"])

	// wrong password
	w = doJSON(t, r, "POST", "/auth/login", map[string]string{"email": "a@x.com", "password": "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "incorrect password", decode(t, w)["error"])

	// unknown email gets the same opaque rejection
	w = doJSON(t, r, "POST", "/auth/login", map[string]string{"email": "b@x.com", "password": "pw1"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "incorrect password", decode(t, w)["error"])
}

func TestRegister_Conflicts(t *testing.T) {
	r, _ := newAuthTestRouter(nil)

	w := doJSON(t, r, "POST", "/auth/register", registerBody("a@x.com"), "")
	require.Equal(t, http.StatusCreated, w.Code)

	// same email again
	w = doJSON(t, r, "POST", "/auth/register", registerBody("a@x.com"), "")
	require.Equal(t, http.StatusConflict, w.Code)

	// case/whitespace variants collapse to the same identity
	w = doJSON(t, r, "POST", "/auth/register", registerBody("  A@X.COM "), "")
	require.Equal(t, http.StatusConflict, w.Code)

	// missing required field
	incomplete := registerBody("c@x.com")
	delete(incomplete, "password")
	incomplete["password"] = ""
	w = doJSON(t, r, "POST", "/auth/register", incomplete, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleSignIn(t *testing.T) {
	google := &stubGoogle{claims: &oidc.Claims{Subject: "google-sub-1", Email: "g@x.com", Name: "G User"}}
	r, _ := newAuthTestRouter(google)

	// missing token
	w := doJSON(t, r, "POST", "/auth/google-signin", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "missing token", decode(t, w)["error"])

	// first sign-in auto-registers
	w = doJSON(t, r, "POST", "/auth/google-signin", map[string]string{"token": "idtok"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	tok1 := decode(t, w)["access_token"].(string)
	require.NotEmpty(t, tok1)

	// second sign-in resolves the same account
	w = doJSON(t, r, "POST", "/auth/google-signin", map[string]string{"token": "idtok"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	tok2 := decode(t, w)["access_token"].(string)

	issuer := tokens.NewIssuer(testSecret, time.Hour)
	id1, err := issuer.Verify(tok1)
	require.NoError(t, err)
	id2, err := issuer.Verify(tok2)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	// a google account can never password-login
	w = doJSON(t, r, "POST", "/auth/login", map[string]string{"email": "g@x.com", "password": "anything"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "no password set", decode(t, w)["error"])
}

func TestGoogleSignIn_BadToken(t *testing.T) {
	r, _ := newAuthTestRouter(&stubGoogle{err: errors.New("verification failed")})

	w := doJSON(t, r, "POST", "/auth/google-signin", map[string]string{"token": "junk"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "bad token", decode(t, w)["error"])
}

func TestGoogleSignIn_NotConfigured(t *testing.T) {
	r, _ := newAuthTestRouter(nil)

	w := doJSON(t, r, "POST", "/auth/google-signin", map[string]string{"token": "idtok"}, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUpdateProfileAndMe(t *testing.T) {
	r, _ := newAuthTestRouter(nil)

	w := doJSON(t, r, "POST", "/auth/register", registerBody("a@x.com"), "")
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode(t, w)["access_token"].(string)

	// no bearer token -> 401
	w = doJSON(t, r, "PUT", "/auth/update-profile", map[string]string{"firstname": "New"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// partial patch
	w = doJSON(t, r, "PUT", "/auth/update-profile", map[string]string{"firstname": "New"}, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "GET", "/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "New", me.User.Firstname)
	require.Equal(t, "B", me.User.Lastname)
	require.Equal(t, "a@x.com", me.User.Email)
	// credential fields never serialize
	require.NotContains(t, w.Body.String(), "passwordHash")
	require.NotContains(t, w.Body.String(), "password_hash")
}
