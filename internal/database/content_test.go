package database

import (
	"context"
	"testing"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	community := seedCommunity(t, s, author)

	post, err := CreatePost(ctx, s, &models.Post{
		Title:       "First",
		Content:     "hello swamp",
		PostType:    models.TextPost,
		AuthorID:    author.ID,
		CommunityID: community.ID,
	})
	assert.NoError(t, err)
	assert.False(t, post.ID.IsZero())

	got, err := s.GetPost(ctx, post.ID)
	assert.NoError(t, err)
	assert.Equal(t, "First", got.Title)
	assert.Equal(t, 0, got.CommentCount)
}

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	community := seedCommunity(t, s, author)

	cases := []struct {
		name string
		post models.Post
	}{
		{"empty title", models.Post{Content: "x", PostType: models.TextPost, AuthorID: author.ID, CommunityID: community.ID}},
		{"empty content", models.Post{Title: "x", PostType: models.TextPost, AuthorID: author.ID, CommunityID: community.ID}},
		{"bad type", models.Post{Title: "x", Content: "y", PostType: "video", AuthorID: author.ID, CommunityID: community.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreatePost(ctx, s, &tc.post)
			assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
		})
	}
}

func TestCreatePostRequiresMembership(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	creator := seedUser(t, s, "alice")
	outsider := seedUser(t, s, "bob")
	community := seedCommunity(t, s, creator)

	_, err := CreatePost(ctx, s, &models.Post{
		Title:       "hi",
		Content:     "there",
		PostType:    models.TextPost,
		AuthorID:    outsider.ID,
		CommunityID: community.ID,
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotCommunityMember))
}

func TestCreateCommentTopLevel(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	community := seedCommunity(t, s, author)
	post := seedPost(t, s, author, community)

	comment, err := CreateComment(ctx, s, &models.Comment{
		Content:  "first!",
		AuthorID: author.ID,
		PostID:   post.ID,
	})
	assert.NoError(t, err)
	assert.False(t, comment.ID.IsZero())

	gotPost, err := s.GetPost(ctx, post.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, gotPost.CommentCount)
	assert.Equal(t, 1, userKarma(t, s, author.ID))
}

func TestCreateCommentReply(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	community := seedCommunity(t, s, author)
	post := seedPost(t, s, author, community)
	top := seedComment(t, s, author, post, nil)

	commentCountBefore := 1

	reply, err := CreateComment(ctx, s, &models.Comment{
		Content:  "agreed",
		AuthorID: author.ID,
		PostID:   post.ID,
		ParentID: &top.ID,
	})
	assert.NoError(t, err)

	// A reply bumps the parent's reply count and nothing else.
	gotTop, err := s.GetComment(ctx, top.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, gotTop.RepliesCount)

	gotPost, err := s.GetPost(ctx, post.ID)
	assert.NoError(t, err)
	assert.Equal(t, commentCountBefore, gotPost.CommentCount)

	gotReply, err := s.GetComment(ctx, reply.ID)
	assert.NoError(t, err)
	assert.Equal(t, top.ID, *gotReply.ParentID)
}

func TestCreateCommentParentMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	community := seedCommunity(t, s, author)
	postA := seedPost(t, s, author, community)
	postB := seedPost(t, s, author, community)
	parent := seedComment(t, s, author, postA, nil)

	karmaBefore := userKarma(t, s, author.ID)

	_, err := CreateComment(ctx, s, &models.Comment{
		Content:  "wrong thread",
		AuthorID: author.ID,
		PostID:   postB.ID,
		ParentID: &parent.ID,
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	// The failed transaction leaves counters and karma alone.
	gotPost, err := s.GetPost(ctx, postB.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, gotPost.CommentCount)
	assert.Equal(t, karmaBefore, userKarma(t, s, author.ID))
}

func TestCreateCommentMissingPost(t *testing.T) {
	s := NewMemoryStore()
	author := seedUser(t, s, "alice")

	_, err := CreateComment(context.Background(), s, &models.Comment{
		Content:  "into the void",
		AuthorID: author.ID,
		PostID:   primitive.NewObjectID(),
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestCreateCommentEmptyContent(t *testing.T) {
	s := NewMemoryStore()
	author := seedUser(t, s, "alice")

	_, err := CreateComment(context.Background(), s, &models.Comment{
		Content:  "   ",
		AuthorID: author.ID,
		PostID:   primitive.NewObjectID(),
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}
