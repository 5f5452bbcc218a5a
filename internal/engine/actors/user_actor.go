package actors

import (
	stdctx "context"
	"log"
	"time"

	"marshlink/internal/database"
	"marshlink/internal/models"
	"marshlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Message types for user operations
type (
	RegisterUserMsg struct {
		Username string
		Email    string
		Password string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserProfileMsg struct {
		UserID primitive.ObjectID
	}

	ConnectUserMsg struct {
		UserID primitive.ObjectID
	}

	DisconnectUserMsg struct {
		UserID primitive.ObjectID
	}
)

// LoginResponse is returned for login attempts. The HTTP layer exchanges a
// successful response for a signed token.
type LoginResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// UserActor owns account state: registration, authentication and profile
// reads. The store is the source of truth; the actor serializes access.
type UserActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewUserActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &UserActor{store: store, metrics: metrics}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("UserActor started")

	case *RegisterUserMsg:
		a.handleRegister(context, msg)

	case *LoginMsg:
		a.handleLogin(context, msg)

	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)

	case *ConnectUserMsg:
		a.handleActivity(context, msg.UserID, true)

	case *DisconnectUserMsg:
		a.handleActivity(context, msg.UserID, false)
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.Username == "" || msg.Email == "" || msg.Password == "" {
		context.Respond(utils.NewValidationError("username, email and password are required"))
		return
	}

	if existing, _ := a.store.GetUserByEmail(ctx, msg.Email); existing != nil {
		log.Printf("UserActor: email already registered: %s", msg.Email)
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
		return
	}

	hashed, err := hashPassword(msg.Password)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
		return
	}

	now := time.Now()
	user := &models.User{
		ID:             primitive.NewObjectID(),
		Username:       msg.Username,
		Email:          msg.Email,
		HashedPassword: hashed,
		Karma:          0,
		Communities:    make([]primitive.ObjectID, 0),
		CreatedAt:      now,
		LastActive:     now,
		IsConnected:    true,
	}

	if err := a.store.SaveUser(ctx, user); err != nil {
		log.Printf("UserActor: failed to save user: %v", err)
		context.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	log.Printf("UserActor: registered user %s", user.ID.Hex())
	context.Respond(user)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	ctx := stdctx.Background()
	log.Printf("UserActor: processing login for email: %s", msg.Email)

	user, err := a.store.GetUserByEmail(ctx, msg.Email)
	if err != nil {
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	if err := a.store.UpdateUserActivity(ctx, user.ID, true); err != nil {
		log.Printf("UserActor: failed to update activity for %s: %v", user.ID.Hex(), err)
	}

	context.Respond(&LoginResponse{Success: true, UserID: user.ID.Hex()})
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	ctx := stdctx.Background()

	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleActivity(context actor.Context, userID primitive.ObjectID, active bool) {
	ctx := stdctx.Background()

	if err := a.store.UpdateUserActivity(ctx, userID, active); err != nil {
		context.Respond(err)
		return
	}
	context.Respond(&models.StatusResponse{Success: true})
}
