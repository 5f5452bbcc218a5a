package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"marshlink/internal/database"
	"marshlink/internal/engine"
	"marshlink/internal/middleware"
	"marshlink/internal/realtime"
	"marshlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Store          database.Store
	Hub            *realtime.Hub
	Auth           *middleware.Auth
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	store database.Store,
	hub *realtime.Hub,
	auth *middleware.Auth,
	requestTimeout time.Duration,
) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        metrics,
		Store:          store,
		Hub:            hub,
		Auth:           auth,
		RequestTimeout: requestTimeout,
	}
}

// request sends msg to the actor and waits for its reply.
func (s *Server) request(pid *actor.PID, msg interface{}) (interface{}, error) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	return future.Result()
}

// respond writes an actor result as JSON, translating AppError replies into
// their HTTP status.
func (s *Server) respond(w http.ResponseWriter, result interface{}, status int) {
	if appErr, ok := result.(*utils.AppError); ok {
		s.Metrics.IncrementErrors()
		http.Error(w, appErr.Message, utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// parseID converts a 24-character hex string into an ObjectID.
func parseID(raw string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(raw)
}
