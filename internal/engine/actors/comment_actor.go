package actors

import (
	stdctx "context"
	"log"
	"time"

	"marshlink/internal/database"
	"marshlink/internal/markdown"
	"marshlink/internal/models"
	"marshlink/internal/realtime"
	"marshlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message types for comment operations
type (
	CreateCommentMsg struct {
		Content  string              `json:"content"`
		AuthorID primitive.ObjectID  `json:"authorId"`
		PostID   primitive.ObjectID  `json:"postId"`
		ParentID *primitive.ObjectID `json:"parentId,omitempty"`
	}

	EditCommentMsg struct {
		CommentID primitive.ObjectID `json:"commentId"`
		AuthorID  primitive.ObjectID `json:"authorId"`
		Content   string             `json:"content"`
	}

	DeleteCommentMsg struct {
		CommentID   primitive.ObjectID `json:"commentId"`
		RequesterID primitive.ObjectID `json:"requesterId"`
	}

	GetCommentMsg struct {
		CommentID primitive.ObjectID `json:"commentId"`
	}

	GetCommentsForPostMsg struct {
		PostID primitive.ObjectID `json:"postId"`
	}

	VoteCommentMsg struct {
		CommentID primitive.ObjectID `json:"commentId"`
		UserID    primitive.ObjectID `json:"userId"`
		Value     int                `json:"value"`
		Remove    bool               `json:"remove"`
	}

	GetCommentScoreMsg struct {
		CommentID primitive.ObjectID `json:"commentId"`
	}
)

// usernameCacheLimit bounds the per-actor username caches. A full cache is
// dropped wholesale, which also ages out renamed users.
const usernameCacheLimit = 1024

// CommentActor manages comment operations. Deleting a comment removes its
// whole reply subtree along with the votes on it.
type CommentActor struct {
	store    database.Store
	renderer *markdown.Renderer
	hub      *realtime.Hub
	metrics  *utils.MetricsCollector

	usernames map[primitive.ObjectID]string
}

func NewCommentActor(store database.Store, renderer *markdown.Renderer, hub *realtime.Hub, metrics *utils.MetricsCollector) actor.Actor {
	return &CommentActor{
		store:     store,
		renderer:  renderer,
		hub:       hub,
		metrics:   metrics,
		usernames: make(map[primitive.ObjectID]string),
	}
}

func (a *CommentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("CommentActor started with PID: %v", context.Self())

	case *CreateCommentMsg:
		a.handleCreate(context, msg)

	case *EditCommentMsg:
		a.handleEdit(context, msg)

	case *DeleteCommentMsg:
		a.handleDelete(context, msg)

	case *GetCommentMsg:
		a.handleGet(context, msg)

	case *GetCommentsForPostMsg:
		a.handleGetPostComments(context, msg)

	case *VoteCommentMsg:
		a.handleVote(context, msg)

	case *GetCommentScoreMsg:
		a.handleScore(context, msg)

	default:
		log.Printf("CommentActor: unknown message type %T", msg)
	}
}

func (a *CommentActor) username(ctx stdctx.Context, userID primitive.ObjectID) string {
	if name, ok := a.usernames[userID]; ok {
		return name
	}
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("CommentActor: failed to fetch user %s: %v", userID.Hex(), err)
		return "[unknown]"
	}
	if len(a.usernames) >= usernameCacheLimit {
		a.usernames = make(map[primitive.ObjectID]string)
	}
	a.usernames[userID] = user.Username
	return user.Username
}

// decorate fills the response-only fields of a comment.
func (a *CommentActor) decorate(ctx stdctx.Context, comment *models.Comment) {
	comment.AuthorUsername = a.username(ctx, comment.AuthorID)
	rendered, err := a.renderer.Render(comment.Content)
	if err != nil {
		log.Printf("CommentActor: failed to render comment %s: %v", comment.ID.Hex(), err)
		return
	}
	comment.RenderedContent = rendered
}

func (a *CommentActor) handleCreate(context actor.Context, msg *CreateCommentMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	comment, err := database.CreateComment(ctx, a.store, &models.Comment{
		Content:  msg.Content,
		AuthorID: msg.AuthorID,
		PostID:   msg.PostID,
		ParentID: msg.ParentID,
	})
	if err != nil {
		context.Respond(err)
		return
	}

	a.decorate(ctx, comment)
	a.hub.PublishEvent(realtime.EventCommentCreated, comment)

	a.metrics.AddOperationLatency("create_comment", time.Since(startTime))
	log.Printf("CommentActor: created comment %s on post %s", comment.ID.Hex(), comment.PostID.Hex())
	context.Respond(comment)
}

func (a *CommentActor) handleEdit(context actor.Context, msg *EditCommentMsg) {
	ctx := stdctx.Background()

	comment, err := a.store.GetComment(ctx, msg.CommentID)
	if err != nil {
		context.Respond(err)
		return
	}
	if comment.AuthorID != msg.AuthorID {
		context.Respond(utils.NewForbiddenError("only the comment author can edit this comment"))
		return
	}
	if msg.Content == "" {
		context.Respond(utils.NewValidationError("comment content is required"))
		return
	}

	comment.Content = msg.Content
	if err := a.store.UpdateComment(ctx, comment); err != nil {
		context.Respond(err)
		return
	}

	a.decorate(ctx, comment)
	context.Respond(comment)
}

func (a *CommentActor) handleDelete(context actor.Context, msg *DeleteCommentMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	result, err := database.DeleteCommentCascade(ctx, a.store, msg.CommentID, msg.RequesterID)
	if err != nil {
		context.Respond(err)
		return
	}

	a.hub.PublishEvent(realtime.EventCommentDeleted, map[string]interface{}{
		"commentId":       msg.CommentID.Hex(),
		"commentsDeleted": result.CommentsDeleted,
	})

	a.metrics.AddOperationLatency("delete_comment", time.Since(startTime))
	log.Printf("CommentActor: deleted comment %s (%d comments, %d votes)",
		msg.CommentID.Hex(), result.CommentsDeleted, result.VotesDeleted)
	context.Respond(result)
}

func (a *CommentActor) handleGet(context actor.Context, msg *GetCommentMsg) {
	ctx := stdctx.Background()

	comment, err := a.store.GetComment(ctx, msg.CommentID)
	if err != nil {
		context.Respond(err)
		return
	}

	a.decorate(ctx, comment)
	context.Respond(comment)
}

func (a *CommentActor) handleGetPostComments(context actor.Context, msg *GetCommentsForPostMsg) {
	ctx := stdctx.Background()

	if _, err := a.store.GetPost(ctx, msg.PostID); err != nil {
		context.Respond(err)
		return
	}

	comments, err := a.store.GetPostComments(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}

	for _, comment := range comments {
		a.decorate(ctx, comment)
	}
	context.Respond(comments)
}

func (a *CommentActor) handleVote(context actor.Context, msg *VoteCommentMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.Remove {
		if err := database.RemoveVote(ctx, a.store, msg.UserID, msg.CommentID, models.CommentTarget); err != nil {
			context.Respond(err)
			return
		}
		context.Respond(&models.StatusResponse{Success: true, Message: "Vote removed"})
		return
	}

	vote, err := database.CastVote(ctx, a.store, msg.UserID, msg.CommentID, models.CommentTarget, msg.Value)
	if err != nil {
		context.Respond(err)
		return
	}

	a.hub.PublishEvent(realtime.EventVoteCast, map[string]interface{}{
		"targetId":   msg.CommentID.Hex(),
		"targetType": models.CommentTarget,
		"value":      vote.Value,
	})

	a.metrics.AddOperationLatency("vote_comment", time.Since(startTime))
	context.Respond(vote)
}

func (a *CommentActor) handleScore(context actor.Context, msg *GetCommentScoreMsg) {
	ctx := stdctx.Background()

	if _, err := a.store.GetComment(ctx, msg.CommentID); err != nil {
		context.Respond(err)
		return
	}

	score, err := a.store.TargetScore(ctx, msg.CommentID, models.CommentTarget)
	if err != nil {
		context.Respond(err)
		return
	}

	context.Respond(&models.ScoreResponse{
		TargetID:   msg.CommentID,
		TargetType: models.CommentTarget,
		Score:      score,
	})
}
