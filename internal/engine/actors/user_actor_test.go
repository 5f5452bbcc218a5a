package actors

import (
	"testing"
	"time"

	"marshlink/internal/database"
	"marshlink/internal/models"
	"marshlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func spawnUserActor(t *testing.T) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(database.NewMemoryStore(), utils.NewMetricsCollector())
	})
	return system, system.Root.Spawn(props)
}

func TestUserRegistrationAndLogin(t *testing.T) {
	system, pid := spawnUserActor(t)

	regFuture := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}, 5*time.Second)

	regResult, err := regFuture.Result()
	if err != nil {
		t.Fatalf("Registration failed: %v", err)
	}

	user, ok := regResult.(*models.User)
	if !ok {
		t.Fatalf("Unexpected registration response: %+v", regResult)
	}
	assert.Equal(t, "testuser", user.Username)
	assert.Empty(t, user.Karma)

	loginFuture := system.Root.RequestFuture(pid, &LoginMsg{
		Email:    "test@example.com",
		Password: "password123",
	}, 5*time.Second)

	loginResult, err := loginFuture.Result()
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	loginResponse, ok := loginResult.(*LoginResponse)
	if !ok {
		t.Fatalf("Unexpected login response: %+v", loginResult)
	}
	assert.True(t, loginResponse.Success)
	assert.Equal(t, user.ID.Hex(), loginResponse.UserID)

	badLoginFuture := system.Root.RequestFuture(pid, &LoginMsg{
		Email:    "test@example.com",
		Password: "wrongpassword",
	}, 5*time.Second)

	badLoginResult, err := badLoginFuture.Result()
	if err != nil {
		t.Fatalf("Bad login request failed: %v", err)
	}

	badLoginResponse, ok := badLoginResult.(*LoginResponse)
	if !ok {
		t.Fatalf("Unexpected bad login response: %+v", badLoginResult)
	}
	assert.False(t, badLoginResponse.Success)
	assert.Equal(t, "Invalid credentials", badLoginResponse.Error)
}

func TestUserDuplicateRegistration(t *testing.T) {
	system, pid := spawnUserActor(t)

	first := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "testuser",
		Email:    "dup@example.com",
		Password: "password123",
	}, 5*time.Second)
	_, err := first.Result()
	assert.NoError(t, err)

	second := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "other",
		Email:    "dup@example.com",
		Password: "password456",
	}, 5*time.Second)
	result, err := second.Result()
	assert.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got: %+v", result)
	}
	assert.Equal(t, utils.ErrUserAlreadyExists, appErr.Code)
}

func TestUserProfileNotFound(t *testing.T) {
	system, pid := spawnUserActor(t)

	future := system.Root.RequestFuture(pid, &GetUserProfileMsg{
		UserID: primitive.NewObjectID(),
	}, 5*time.Second)
	result, err := future.Result()
	assert.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got: %+v", result)
	}
	assert.Equal(t, utils.ErrUserNotFound, appErr.Code)
}
