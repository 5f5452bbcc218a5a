package database

import (
	"context"
	"errors"
	"testing"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryStoreTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user := seedUser(t, s, "alice")

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.AdjustUserKarma(txCtx, user.ID, 10); err != nil {
			return err
		}
		if err := s.InsertPost(txCtx, &models.Post{
			ID:       primitive.NewObjectID(),
			Title:    "partial",
			Content:  "write",
			PostType: models.TextPost,
			AuthorID: user.ID,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 0, userKarma(t, s, user.ID))
	posts, err := s.GetRecentPosts(ctx, 10, 0)
	assert.NoError(t, err)
	assert.Empty(t, posts)
}

func TestMemoryStoreTransactionCommit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user := seedUser(t, s, "alice")

	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.AdjustUserKarma(txCtx, user.ID, 5)
	})
	assert.NoError(t, err)
	assert.Equal(t, 5, userKarma(t, s, user.ID))
}

func TestMemoryStoreNestedTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user := seedUser(t, s, "alice")

	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.RunInTransaction(txCtx, func(inner context.Context) error {
			return s.AdjustUserKarma(inner, user.ID, 1)
		})
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, userKarma(t, s, user.ID))
}

func TestMemoryStoreDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seedUser(t, s, "alice")
	err := s.SaveUser(ctx, &models.User{
		ID:       primitive.NewObjectID(),
		Username: "alice2",
		Email:    "ALICE@example.com",
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))
}

func TestMemoryStoreCommunityMembership(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	creator := seedUser(t, s, "alice")
	member := seedUser(t, s, "bob")
	community := seedCommunity(t, s, creator)

	assert.NoError(t, s.UpdateCommunityMembership(ctx, community.ID, member.ID, true))
	assert.NoError(t, s.UpdateUserCommunities(ctx, member.ID, community.ID, true))

	got, err := s.GetCommunity(ctx, community.ID)
	assert.NoError(t, err)
	assert.Contains(t, got.Members, member.ID)

	gotUser, err := s.GetUser(ctx, member.ID)
	assert.NoError(t, err)
	assert.Contains(t, gotUser.Communities, community.ID)

	assert.NoError(t, s.UpdateCommunityMembership(ctx, community.ID, member.ID, false))
	got, err = s.GetCommunity(ctx, community.ID)
	assert.NoError(t, err)
	assert.NotContains(t, got.Members, member.ID)
}

func TestMemoryStorePostPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	community := seedCommunity(t, s, author)
	for i := 0; i < 5; i++ {
		seedPost(t, s, author, community)
	}

	page, err := s.GetCommunityPosts(ctx, community.ID, 2, 0)
	assert.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.GetCommunityPosts(ctx, community.ID, 10, 4)
	assert.NoError(t, err)
	assert.Len(t, rest, 1)

	none, err := s.GetCommunityPosts(ctx, community.ID, 10, 99)
	assert.NoError(t, err)
	assert.Empty(t, none)
}
