package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marshlink/internal/database"
	"marshlink/internal/engine"
	"marshlink/internal/middleware"
	"marshlink/internal/realtime"
	"marshlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := database.NewMemoryStore()
	metrics := utils.NewMetricsCollector()
	hub := realtime.NewHub()
	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, store, hub, metrics)

	auth, err := middleware.NewAuth("test-secret", time.Hour)
	assert.NoError(t, err)

	return NewServer(system, eng, metrics, store, hub, auth, 5*time.Second)
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// registerAndLogin creates an account through the HTTP surface and returns
// the user's token and hex ID.
func registerAndLogin(t *testing.T, s *Server, username string) (token, userID string) {
	t.Helper()

	rec := doJSON(t, s.HandleRegister(), http.MethodPost, "/user/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, s.HandleLogin(), http.MethodPost, "/user/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login LoginResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)
	return login.Token, login.UserID
}

func createCommunity(t *testing.T, s *Server, token, name string) string {
	t.Helper()

	rec := doJSON(t, s.Auth.ApplyJWT(s.HandleCommunities()), http.MethodPost, "/communities", token, map[string]string{
		"name":        name,
		"description": "a test community",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var community struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &community))
	return community.ID
}

func createPost(t *testing.T, s *Server, token, communityID string) string {
	t.Helper()

	rec := doJSON(t, s.Auth.ApplyJWT(s.HandlePost()), http.MethodPost, "/posts", token, map[string]string{
		"title":       "test post",
		"content":     "some **markdown** content",
		"communityId": communityID,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var post struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	return post.ID
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	token, userID := registerAndLogin(t, s, "alice")
	assert.NotEmpty(t, token)
	assert.Len(t, userID, 24)

	// Wrong password is rejected.
	rec := doJSON(t, s.HandleLogin(), http.MethodPost, "/user/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Duplicate email is rejected.
	rec = doJSON(t, s.HandleRegister(), http.MethodPost, "/user/register", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)

	token, _ := registerAndLogin(t, s, "alice")
	communityID := createCommunity(t, s, token, "gators")
	postID := createPost(t, s, token, communityID)

	// The post is readable and carries rendered markdown.
	rec := doJSON(t, s.HandlePost(), http.MethodGet, "/posts?postId="+postID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var post struct {
		Title           string `json:"title"`
		RenderedContent string `json:"renderedContent"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, "test post", post.Title)
	assert.Contains(t, post.RenderedContent, "<strong>markdown</strong>")

	// A stranger cannot delete it.
	strangerToken, _ := registerAndLogin(t, s, "mallory")
	rec = doJSON(t, s.Auth.ApplyJWT(s.HandlePost()), http.MethodDelete, "/posts?postId="+postID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The author can.
	rec = doJSON(t, s.Auth.ApplyJWT(s.HandlePost()), http.MethodDelete, "/posts?postId="+postID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Gone afterwards.
	rec = doJSON(t, s.HandlePost(), http.MethodGet, "/posts?postId="+postID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostDeleteCascadesComments(t *testing.T) {
	s := newTestServer(t)

	token, _ := registerAndLogin(t, s, "alice")
	communityID := createCommunity(t, s, token, "gators")
	postID := createPost(t, s, token, communityID)

	rec := doJSON(t, s.Auth.ApplyJWT(s.HandleComment()), http.MethodPost, "/comments", token, map[string]string{
		"content": "first",
		"postId":  postID,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var comment struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comment))

	rec = doJSON(t, s.Auth.ApplyJWT(s.HandleComment()), http.MethodPost, "/comments", token, map[string]string{
		"content":  "second",
		"postId":   postID,
		"parentId": comment.ID,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s.Auth.ApplyJWT(s.HandlePost()), http.MethodDelete, "/posts?postId="+postID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var cascade struct {
		CommentsDeleted int64 `json:"commentsDeleted"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cascade))
	assert.Equal(t, int64(2), cascade.CommentsDeleted)

	rec = doJSON(t, s.HandleComment(), http.MethodGet, "/comments?commentId="+comment.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoteConflictAndSwing(t *testing.T) {
	s := newTestServer(t)

	authorToken, _ := registerAndLogin(t, s, "alice")
	voterToken, _ := registerAndLogin(t, s, "bob")
	communityID := createCommunity(t, s, authorToken, "gators")
	postID := createPost(t, s, authorToken, communityID)

	vote := func(token string, isUpvote bool) *httptest.ResponseRecorder {
		return doJSON(t, s.Auth.ApplyJWT(s.HandlePostVote()), http.MethodPost, "/posts/vote", token, map[string]interface{}{
			"postId":   postID,
			"isUpvote": isUpvote,
		})
	}

	score := func() int {
		rec := doJSON(t, s.Auth.ApplyJWT(s.HandlePostVote()), http.MethodGet,
			fmt.Sprintf("/posts/vote?postId=%s", postID), voterToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp struct {
			Score int `json:"score"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Score
	}

	assert.Equal(t, http.StatusOK, vote(voterToken, true).Code)
	assert.Equal(t, 1, score())

	// Repeating the same direction is a conflict.
	assert.Equal(t, http.StatusBadRequest, vote(voterToken, true).Code)

	// Swinging to the opposite direction succeeds.
	assert.Equal(t, http.StatusOK, vote(voterToken, false).Code)
	assert.Equal(t, -1, score())

	// Removing the vote, then removing again is not found.
	remove := func() *httptest.ResponseRecorder {
		return doJSON(t, s.Auth.ApplyJWT(s.HandlePostVote()), http.MethodPost, "/posts/vote", voterToken, map[string]interface{}{
			"postId": postID,
			"remove": true,
		})
	}
	assert.Equal(t, http.StatusOK, remove().Code)
	assert.Equal(t, http.StatusNotFound, remove().Code)
}

func TestCommunityMembershipRequiredToPost(t *testing.T) {
	s := newTestServer(t)

	creatorToken, _ := registerAndLogin(t, s, "alice")
	outsiderToken, _ := registerAndLogin(t, s, "bob")
	communityID := createCommunity(t, s, creatorToken, "gators")

	rec := doJSON(t, s.Auth.ApplyJWT(s.HandlePost()), http.MethodPost, "/posts", outsiderToken, map[string]string{
		"title":       "intruder",
		"content":     "hello",
		"communityId": communityID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Joining fixes it.
	rec = doJSON(t, s.Auth.ApplyJWT(s.HandleCommunityMembership()), http.MethodPost, "/communities/membership", outsiderToken, map[string]string{
		"communityId": communityID,
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, s.Auth.ApplyJWT(s.HandlePost()), http.MethodPost, "/posts", outsiderToken, map[string]string{
		"title":       "member now",
		"content":     "hello",
		"communityId": communityID,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestInvalidIDsRejected(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerAndLogin(t, s, "alice")

	rec := doJSON(t, s.HandlePost(), http.MethodGet, "/posts?postId=not-hex", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Auth.ApplyJWT(s.HandleComment()), http.MethodDelete,
		fmt.Sprintf("/comments?commentId=%s", "zzzz"), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommunityUpdateAndDelete(t *testing.T) {
	s := newTestServer(t)

	creatorToken, _ := registerAndLogin(t, s, "alice")
	strangerToken, _ := registerAndLogin(t, s, "mallory")
	communityID := createCommunity(t, s, creatorToken, "gators")

	// Non-moderators cannot update.
	rec := doJSON(t, s.Auth.ApplyJWT(s.HandleCommunities()), http.MethodPut, "/communities", strangerToken, map[string]interface{}{
		"communityId": communityID,
		"description": "hijacked",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s.Auth.ApplyJWT(s.HandleCommunities()), http.MethodPut, "/communities", creatorToken, map[string]interface{}{
		"communityId": communityID,
		"description": "updated description",
		"rules":       []string{"be kind"},
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated struct {
		Description string   `json:"description"`
		Rules       []string `json:"rules"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "updated description", updated.Description)
	assert.Equal(t, []string{"be kind"}, updated.Rules)

	// Only the creator can delete.
	rec = doJSON(t, s.Auth.ApplyJWT(s.HandleCommunities()), http.MethodDelete,
		fmt.Sprintf("/communities?communityId=%s", communityID), strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s.Auth.ApplyJWT(s.HandleCommunities()), http.MethodDelete,
		fmt.Sprintf("/communities?communityId=%s", communityID), creatorToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, s.Auth.ApplyJWT(s.HandleCommunities()), http.MethodGet,
		fmt.Sprintf("/communities?communityId=%s", communityID), creatorToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
