// Package engine spawns the actor system and coordinates the entity actors.
package engine

import (
	"marshlink/internal/database"
	"marshlink/internal/engine/actors"
	"marshlink/internal/markdown"
	"marshlink/internal/realtime"
	"marshlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine holds the PIDs of the long-lived entity actors. All mutation of a
// given entity class funnels through its actor, which serializes access on
// top of the store.
type Engine struct {
	userActor      *actor.PID
	communityActor *actor.PID
	postActor      *actor.PID
	commentActor   *actor.PID
}

func NewEngine(system *actor.ActorSystem, store database.Store, hub *realtime.Hub, metrics *utils.MetricsCollector) *Engine {
	context := system.Root
	renderer := markdown.NewRenderer()

	userPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(store, metrics)
	}))

	communityPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommunityActor(store, metrics)
	}))

	postPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(store, renderer, hub, metrics)
	}))

	commentPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommentActor(store, renderer, hub, metrics)
	}))

	return &Engine{
		userActor:      userPID,
		communityActor: communityPID,
		postActor:      postPID,
		commentActor:   commentPID,
	}
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetCommunityActor returns the PID of the community actor
func (e *Engine) GetCommunityActor() *actor.PID {
	return e.communityActor
}

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetCommentActor returns the PID of the comment actor
func (e *Engine) GetCommentActor() *actor.PID {
	return e.commentActor
}
