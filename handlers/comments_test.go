package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/curbshare/curbshare/internal/comments"
	"github.com/curbshare/curbshare/internal/spots"
	"github.com/curbshare/curbshare/internal/tokens"
	"github.com/curbshare/curbshare/internal/users"
	"github.com/curbshare/curbshare/pkg/middleware"
)

type commentsTestEnv struct {
	router *gin.Engine
}

func newCommentsTestEnv(t *testing.T) (*commentsTestEnv, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer := tokens.NewIssuer(testSecret, 24*time.Hour)
	usersRepo := users.NewMemoryRepository()
	usersSvc := users.NewService(usersRepo, issuer)
	spotsRepo := spots.NewMemoryRepository()
	spotsSvc := spots.NewService(spotsRepo, usersRepo)
	commentsSvc := comments.NewService(comments.NewMemoryRepository(), spotsRepo, usersRepo)

	r := gin.New()
	NewAuthHandler(usersSvc, nil).Register(r.Group(""), middleware.AuthRequired(issuer))
	NewSpotsHandler(spotsSvc, nil).Register(r.Group(""), middleware.AuthRequired(issuer), middleware.AuthOptional(issuer))
	NewCommentsHandler(commentsSvc).Register(r.Group(""), middleware.AuthRequired(issuer), middleware.AuthOptional(issuer))
	env := &commentsTestEnv{router: r}

	w := doJSON(t, r, "POST", "/auth/register", registerBody("c@x.com"), "")
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode(t, w)["access_token"].(string)

	w = doJSON(t, r, "POST", "/api/parking/spots", spotBody(), token)
	require.Equal(t, http.StatusCreated, w.Code)
	spotID := decode(t, w)["spot"].(map[string]any)["id"].(string)

	return env, token, spotID
}

func TestCommentCreateAndList(t *testing.T) {
	env, token, spotID := newCommentsTestEnv(t)

	// anonymous create rejected
	w := doJSON(t, env.router, "POST", "/api/comments/"+spotID, map[string]string{"text": "hi"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, env.router, "POST", "/api/comments/"+spotID, map[string]string{"text": "great spot"}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)["comment"].(map[string]any)
	require.Equal(t, "great spot", created["text"])
	require.Equal(t, "u1", created["author"])

	// blank text rejected
	w = doJSON(t, env.router, "POST", "/api/comments/"+spotID, map[string]string{"text": "   "}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Comment text is required", decode(t, w)["error"])

	// unknown spot
	w = doJSON(t, env.router, "POST", "/api/comments/"+primitive.NewObjectID().Hex(), map[string]string{"text": "hi"}, token)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Parking spot not found", decode(t, w)["error"])

	// anonymous list works
	w = doJSON(t, env.router, "GET", "/api/comments/"+spotID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Comments []comments.View `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Comments, 1)
	require.False(t, resp.Comments[0].IsLiked)
}

func TestCommentLike_Toggle(t *testing.T) {
	env, token, spotID := newCommentsTestEnv(t)

	w := doJSON(t, env.router, "POST", "/api/comments/"+spotID, map[string]string{"text": "like me"}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	commentID := decode(t, w)["comment"].(map[string]any)["id"].(string)

	w = doJSON(t, env.router, "POST", "/api/comments/"+spotID+"/"+commentID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, float64(1), body["like_count"])
	require.Equal(t, true, body["is_liked"])

	w = doJSON(t, env.router, "POST", "/api/comments/"+spotID+"/"+commentID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	require.Equal(t, float64(0), body["like_count"])
	require.Equal(t, false, body["is_liked"])

	// unknown comment
	w = doJSON(t, env.router, "POST", "/api/comments/"+spotID+"/"+primitive.NewObjectID().Hex(), nil, token)
	require.Equal(t, http.StatusNotFound, w.Code)
}
