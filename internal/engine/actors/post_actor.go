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

// Message types for post operations
type (
	CreatePostMsg struct {
		Title       string
		Content     string
		PostType    models.PostType
		AuthorID    primitive.ObjectID
		CommunityID primitive.ObjectID
	}

	GetPostMsg struct {
		PostID primitive.ObjectID
	}

	EditPostMsg struct {
		PostID   primitive.ObjectID
		AuthorID primitive.ObjectID
		Title    string
		Content  string
	}

	DeletePostMsg struct {
		PostID      primitive.ObjectID
		RequesterID primitive.ObjectID
	}

	GetCommunityPostsMsg struct {
		CommunityID primitive.ObjectID
		Limit       int
		Offset      int
	}

	GetRecentPostsMsg struct {
		Limit  int
		Offset int
	}

	VotePostMsg struct {
		PostID primitive.ObjectID
		UserID primitive.ObjectID
		Value  int
		Remove bool
	}

	GetPostScoreMsg struct {
		PostID primitive.ObjectID
	}
)

// PostActor handles the post lifecycle: creation, edits, feeds, votes and
// cascading deletion. Deleting a post also removes its comment tree and the
// votes on all of it.
type PostActor struct {
	store    database.Store
	renderer *markdown.Renderer
	hub      *realtime.Hub
	metrics  *utils.MetricsCollector

	usernames map[primitive.ObjectID]string
}

func NewPostActor(store database.Store, renderer *markdown.Renderer, hub *realtime.Hub, metrics *utils.MetricsCollector) actor.Actor {
	return &PostActor{
		store:     store,
		renderer:  renderer,
		hub:       hub,
		metrics:   metrics,
		usernames: make(map[primitive.ObjectID]string),
	}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("PostActor started with PID: %v", context.Self())

	case *CreatePostMsg:
		a.handleCreate(context, msg)

	case *GetPostMsg:
		a.handleGet(context, msg)

	case *EditPostMsg:
		a.handleEdit(context, msg)

	case *DeletePostMsg:
		a.handleDelete(context, msg)

	case *GetCommunityPostsMsg:
		a.handleCommunityPosts(context, msg)

	case *GetRecentPostsMsg:
		a.handleRecentPosts(context, msg)

	case *VotePostMsg:
		a.handleVote(context, msg)

	case *GetPostScoreMsg:
		a.handleScore(context, msg)
	}
}

func (a *PostActor) username(ctx stdctx.Context, userID primitive.ObjectID) string {
	if name, ok := a.usernames[userID]; ok {
		return name
	}
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("PostActor: failed to fetch user %s: %v", userID.Hex(), err)
		return "[unknown]"
	}
	if len(a.usernames) >= usernameCacheLimit {
		a.usernames = make(map[primitive.ObjectID]string)
	}
	a.usernames[userID] = user.Username
	return user.Username
}

// decorate fills the response-only fields of a post.
func (a *PostActor) decorate(ctx stdctx.Context, post *models.Post) {
	post.AuthorUsername = a.username(ctx, post.AuthorID)
	if post.PostType == models.TextPost {
		rendered, err := a.renderer.Render(post.Content)
		if err != nil {
			log.Printf("PostActor: failed to render post %s: %v", post.ID.Hex(), err)
			return
		}
		post.RenderedContent = rendered
	}
}

func (a *PostActor) handleCreate(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	post, err := database.CreatePost(ctx, a.store, &models.Post{
		Title:       msg.Title,
		Content:     msg.Content,
		PostType:    msg.PostType,
		AuthorID:    msg.AuthorID,
		CommunityID: msg.CommunityID,
	})
	if err != nil {
		context.Respond(err)
		return
	}

	a.decorate(ctx, post)
	a.hub.PublishEvent(realtime.EventPostCreated, post)

	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	log.Printf("PostActor: created post %s in community %s", post.ID.Hex(), post.CommunityID.Hex())
	context.Respond(post)
}

func (a *PostActor) handleGet(context actor.Context, msg *GetPostMsg) {
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}

	a.decorate(ctx, post)
	context.Respond(post)
}

func (a *PostActor) handleEdit(context actor.Context, msg *EditPostMsg) {
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}
	if post.AuthorID != msg.AuthorID {
		context.Respond(utils.NewForbiddenError("only the post author can edit this post"))
		return
	}
	if msg.Title != "" {
		post.Title = msg.Title
	}
	if msg.Content != "" {
		post.Content = msg.Content
	}

	if err := a.store.UpdatePost(ctx, post); err != nil {
		context.Respond(err)
		return
	}

	a.decorate(ctx, post)
	context.Respond(post)
}

func (a *PostActor) handleDelete(context actor.Context, msg *DeletePostMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	result, err := database.DeletePostCascade(ctx, a.store, msg.PostID, msg.RequesterID)
	if err != nil {
		context.Respond(err)
		return
	}

	a.hub.PublishEvent(realtime.EventPostDeleted, map[string]interface{}{
		"postId":          msg.PostID.Hex(),
		"commentsDeleted": result.CommentsDeleted,
	})

	a.metrics.AddOperationLatency("delete_post", time.Since(startTime))
	log.Printf("PostActor: deleted post %s (%d comments, %d votes)",
		msg.PostID.Hex(), result.CommentsDeleted, result.VotesDeleted)
	context.Respond(result)
}

func (a *PostActor) handleCommunityPosts(context actor.Context, msg *GetCommunityPostsMsg) {
	ctx := stdctx.Background()

	if _, err := a.store.GetCommunity(ctx, msg.CommunityID); err != nil {
		context.Respond(err)
		return
	}

	posts, err := a.store.GetCommunityPosts(ctx, msg.CommunityID, msg.Limit, msg.Offset)
	if err != nil {
		context.Respond(err)
		return
	}
	for _, post := range posts {
		a.decorate(ctx, post)
	}
	context.Respond(posts)
}

func (a *PostActor) handleRecentPosts(context actor.Context, msg *GetRecentPostsMsg) {
	ctx := stdctx.Background()

	posts, err := a.store.GetRecentPosts(ctx, msg.Limit, msg.Offset)
	if err != nil {
		context.Respond(err)
		return
	}
	for _, post := range posts {
		a.decorate(ctx, post)
	}
	context.Respond(posts)
}

func (a *PostActor) handleVote(context actor.Context, msg *VotePostMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.Remove {
		if err := database.RemoveVote(ctx, a.store, msg.UserID, msg.PostID, models.PostTarget); err != nil {
			context.Respond(err)
			return
		}
		context.Respond(&models.StatusResponse{Success: true, Message: "Vote removed"})
		return
	}

	vote, err := database.CastVote(ctx, a.store, msg.UserID, msg.PostID, models.PostTarget, msg.Value)
	if err != nil {
		context.Respond(err)
		return
	}

	a.hub.PublishEvent(realtime.EventVoteCast, map[string]interface{}{
		"targetId":   msg.PostID.Hex(),
		"targetType": models.PostTarget,
		"value":      vote.Value,
	})

	a.metrics.AddOperationLatency("vote_post", time.Since(startTime))
	context.Respond(vote)
}

func (a *PostActor) handleScore(context actor.Context, msg *GetPostScoreMsg) {
	ctx := stdctx.Background()

	if _, err := a.store.GetPost(ctx, msg.PostID); err != nil {
		context.Respond(err)
		return
	}

	score, err := a.store.TargetScore(ctx, msg.PostID, models.PostTarget)
	if err != nil {
		context.Respond(err)
		return
	}

	context.Respond(&models.ScoreResponse{
		TargetID:   msg.PostID,
		TargetType: models.PostTarget,
		Score:      score,
	})
}
