package actors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"marshlink/internal/database"
	"marshlink/internal/markdown"
	"marshlink/internal/models"
	"marshlink/internal/realtime"
	"marshlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type commentFixture struct {
	system *actor.ActorSystem
	pid    *actor.PID
	store  *database.MemoryStore
	author *models.User
	post   *models.Post
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	store := database.NewMemoryStore()
	ctx := context.Background()

	author := &models.User{
		ID:       primitive.NewObjectID(),
		Username: "gator",
		Email:    "gator@example.com",
	}
	assert.NoError(t, store.SaveUser(ctx, author))

	community := &models.Community{
		ID:        primitive.NewObjectID(),
		Name:      "swamp",
		CreatorID: author.ID,
		Members:   []primitive.ObjectID{author.ID},
	}
	assert.NoError(t, store.CreateCommunity(ctx, community))

	post, err := database.CreatePost(ctx, store, &models.Post{
		Title:       "hello",
		Content:     "world",
		PostType:    models.TextPost,
		AuthorID:    author.ID,
		CommunityID: community.ID,
	})
	assert.NoError(t, err)

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCommentActor(store, markdown.NewRenderer(), realtime.NewHub(), utils.NewMetricsCollector())
	})

	return &commentFixture{
		system: system,
		pid:    system.Root.Spawn(props),
		store:  store,
		author: author,
		post:   post,
	}
}

func (f *commentFixture) request(t *testing.T, msg interface{}) interface{} {
	t.Helper()
	future := f.system.Root.RequestFuture(f.pid, msg, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		t.Fatalf("Actor request failed: %v", err)
	}
	return result
}

func TestCommentActorCreate(t *testing.T) {
	f := newCommentFixture(t)

	result := f.request(t, &CreateCommentMsg{
		Content:  "nice post",
		AuthorID: f.author.ID,
		PostID:   f.post.ID,
	})

	comment, ok := result.(*models.Comment)
	if !ok {
		t.Fatalf("Unexpected response: %+v", result)
	}
	assert.Equal(t, "nice post", comment.Content)
	assert.Equal(t, "gator", comment.AuthorUsername)

	gotPost, err := f.store.GetPost(context.Background(), f.post.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, gotPost.CommentCount)
}

func TestCommentActorCreateMissingPost(t *testing.T) {
	f := newCommentFixture(t)

	result := f.request(t, &CreateCommentMsg{
		Content:  "orphan",
		AuthorID: f.author.ID,
		PostID:   primitive.NewObjectID(),
	})

	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got: %+v", result)
	}
	assert.Equal(t, utils.ErrNotFound, appErr.Code)
}

func TestCommentActorDeleteCascade(t *testing.T) {
	f := newCommentFixture(t)

	top := f.request(t, &CreateCommentMsg{
		Content:  "top",
		AuthorID: f.author.ID,
		PostID:   f.post.ID,
	}).(*models.Comment)

	f.request(t, &CreateCommentMsg{
		Content:  "reply",
		AuthorID: f.author.ID,
		PostID:   f.post.ID,
		ParentID: &top.ID,
	})

	result := f.request(t, &DeleteCommentMsg{
		CommentID:   top.ID,
		RequesterID: f.author.ID,
	})

	cascade, ok := result.(*database.CascadeResult)
	if !ok {
		t.Fatalf("Unexpected response: %+v", result)
	}
	assert.Equal(t, int64(2), cascade.CommentsDeleted)

	remaining, err := f.store.GetPostComments(context.Background(), f.post.ID)
	assert.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestCommentActorDeleteForbidden(t *testing.T) {
	f := newCommentFixture(t)

	top := f.request(t, &CreateCommentMsg{
		Content:  "top",
		AuthorID: f.author.ID,
		PostID:   f.post.ID,
	}).(*models.Comment)

	result := f.request(t, &DeleteCommentMsg{
		CommentID:   top.ID,
		RequesterID: primitive.NewObjectID(),
	})

	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got: %+v", result)
	}
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
}

func TestUsernameCacheStaysBounded(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	a := NewCommentActor(store, markdown.NewRenderer(), realtime.NewHub(), utils.NewMetricsCollector()).(*CommentActor)

	for i := 0; i < usernameCacheLimit+5; i++ {
		user := &models.User{
			ID:       primitive.NewObjectID(),
			Username: fmt.Sprintf("gator%d", i),
			Email:    fmt.Sprintf("gator%d@example.com", i),
		}
		assert.NoError(t, store.SaveUser(ctx, user))
		assert.Equal(t, user.Username, a.username(ctx, user.ID))
	}

	assert.LessOrEqual(t, len(a.usernames), usernameCacheLimit)
}

func TestCommentActorVote(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	voter := &models.User{
		ID:       primitive.NewObjectID(),
		Username: "heron",
		Email:    "heron@example.com",
	}
	assert.NoError(t, f.store.SaveUser(ctx, voter))

	comment := f.request(t, &CreateCommentMsg{
		Content:  "top",
		AuthorID: f.author.ID,
		PostID:   f.post.ID,
	}).(*models.Comment)

	result := f.request(t, &VoteCommentMsg{
		CommentID: comment.ID,
		UserID:    voter.ID,
		Value:     models.Upvote,
	})
	vote, ok := result.(*models.Vote)
	if !ok {
		t.Fatalf("Unexpected response: %+v", result)
	}
	assert.Equal(t, models.Upvote, vote.Value)

	score, ok := f.request(t, &GetCommentScoreMsg{CommentID: comment.ID}).(*models.ScoreResponse)
	if !ok {
		t.Fatal("Expected score response")
	}
	assert.Equal(t, 1, score.Score)

	// Casting the same direction again is rejected.
	result = f.request(t, &VoteCommentMsg{
		CommentID: comment.ID,
		UserID:    voter.ID,
		Value:     models.Upvote,
	})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got: %+v", result)
	}
	assert.Equal(t, utils.ErrAlreadyVoted, appErr.Code)

	// Removing the vote restores the tally.
	f.request(t, &VoteCommentMsg{
		CommentID: comment.ID,
		UserID:    voter.ID,
		Remove:    true,
	})
	got, err := f.store.GetComment(ctx, comment.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, got.Upvotes)
}
