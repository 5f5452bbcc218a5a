package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewAuthRequiresSecret(t *testing.T) {
	_, err := NewAuth("", time.Hour)
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	auth, err := NewAuth("test-secret", time.Hour)
	assert.NoError(t, err)

	userID := primitive.NewObjectID()
	token, err := auth.GenerateToken(userID)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := auth.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.UserID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer, _ := NewAuth("secret-one", time.Hour)
	verifier, _ := NewAuth("secret-two", time.Hour)

	token, err := issuer.GenerateToken(primitive.NewObjectID())
	assert.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	auth, _ := NewAuth("test-secret", time.Hour)
	auth.expiration = -time.Minute

	token, err := auth.GenerateToken(primitive.NewObjectID())
	assert.NoError(t, err)

	_, err = auth.ValidateToken(token)
	assert.Error(t, err)
}

func TestApplyJWT(t *testing.T) {
	auth, _ := NewAuth("test-secret", time.Hour)
	userID := primitive.NewObjectID()

	var gotUserID primitive.ObjectID
	handler := auth.ApplyJWT(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserIDFromContext(r.Context())
		assert.True(t, ok)
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	})

	// Missing header
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Malformed header
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Token abc")
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token
	token, err := auth.GenerateToken(userID)
	assert.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUserID)
}
