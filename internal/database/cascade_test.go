package database

import (
	"context"
	"testing"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedUser(t *testing.T, s Store, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Email:    username + "@example.com",
	}
	assert.NoError(t, s.SaveUser(context.Background(), user))
	return user
}

func seedCommunity(t *testing.T, s Store, creator *models.User, members ...*models.User) *models.Community {
	t.Helper()
	community := &models.Community{
		ID:        primitive.NewObjectID(),
		Name:      "gators-" + primitive.NewObjectID().Hex()[:8],
		CreatorID: creator.ID,
		Members:   []primitive.ObjectID{creator.ID},
	}
	for _, m := range members {
		community.Members = append(community.Members, m.ID)
	}
	assert.NoError(t, s.CreateCommunity(context.Background(), community))
	return community
}

func seedPost(t *testing.T, s Store, author *models.User, community *models.Community) *models.Post {
	t.Helper()
	post, err := CreatePost(context.Background(), s, &models.Post{
		Title:       "Swamp report",
		Content:     "The water is rising",
		PostType:    models.TextPost,
		AuthorID:    author.ID,
		CommunityID: community.ID,
	})
	assert.NoError(t, err)
	return post
}

func seedComment(t *testing.T, s Store, author *models.User, post *models.Post, parent *models.Comment) *models.Comment {
	t.Helper()
	c := &models.Comment{
		Content:  "noted",
		AuthorID: author.ID,
		PostID:   post.ID,
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	comment, err := CreateComment(context.Background(), s, c)
	assert.NoError(t, err)
	return comment
}

func userKarma(t *testing.T, s Store, id primitive.ObjectID) int {
	t.Helper()
	user, err := s.GetUser(context.Background(), id)
	assert.NoError(t, err)
	return user.Karma
}

func TestDeletePostCascade(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	voter := seedUser(t, s, "bob")
	community := seedCommunity(t, s, author, voter)
	post := seedPost(t, s, author, community)

	top := seedComment(t, s, voter, post, nil)
	reply := seedComment(t, s, author, post, top)
	seedComment(t, s, voter, post, reply)

	// One upvote on the post and one on the top comment.
	_, err := CastVote(ctx, s, voter.ID, post.ID, models.PostTarget, models.Upvote)
	assert.NoError(t, err)
	_, err = CastVote(ctx, s, author.ID, top.ID, models.CommentTarget, models.Upvote)
	assert.NoError(t, err)

	karmaBefore := userKarma(t, s, author.ID)

	result, err := DeletePostCascade(ctx, s, post.ID, author.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), result.CommentsDeleted)
	assert.Equal(t, int64(2), result.VotesDeleted)
	assert.Equal(t, -2, result.KarmaDelta)

	_, err = s.GetPost(ctx, post.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
	remaining, err := s.GetPostComments(ctx, post.ID)
	assert.NoError(t, err)
	assert.Empty(t, remaining)

	// Both removed votes come out of the post author's karma, including the
	// vote that was on the other user's comment.
	assert.Equal(t, karmaBefore-2, userKarma(t, s, author.ID))
}

func TestDeletePostCascadeForbidden(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	stranger := seedUser(t, s, "mallory")
	community := seedCommunity(t, s, author)
	post := seedPost(t, s, author, community)

	_, err := DeletePostCascade(ctx, s, post.ID, stranger.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))

	_, err = s.GetPost(ctx, post.ID)
	assert.NoError(t, err)
}

func TestDeletePostCascadeNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := DeletePostCascade(context.Background(), s, primitive.NewObjectID(), primitive.NewObjectID())
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestDeleteCommentCascadeSubtreeOnly(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	other := seedUser(t, s, "bob")
	community := seedCommunity(t, s, author, other)
	post := seedPost(t, s, author, community)

	// Two sibling threads under the post; deleting one must not touch the other.
	doomed := seedComment(t, s, author, post, nil)
	doomedChild := seedComment(t, s, other, post, doomed)
	seedComment(t, s, author, post, doomedChild)
	survivor := seedComment(t, s, other, post, nil)
	survivorChild := seedComment(t, s, author, post, survivor)

	_, err := CastVote(ctx, s, other.ID, doomed.ID, models.CommentTarget, models.Upvote)
	assert.NoError(t, err)
	_, err = CastVote(ctx, s, author.ID, survivor.ID, models.CommentTarget, models.Upvote)
	assert.NoError(t, err)

	karmaBefore := userKarma(t, s, author.ID)
	otherKarmaBefore := userKarma(t, s, other.ID)

	result, err := DeleteCommentCascade(ctx, s, doomed.ID, author.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), result.CommentsDeleted)
	assert.Equal(t, int64(1), result.VotesDeleted)
	assert.Equal(t, -1, result.KarmaDelta)

	remaining, err := s.GetPostComments(ctx, post.ID)
	assert.NoError(t, err)
	assert.Len(t, remaining, 2)
	ids := map[primitive.ObjectID]bool{}
	for _, c := range remaining {
		ids[c.ID] = true
	}
	assert.True(t, ids[survivor.ID])
	assert.True(t, ids[survivorChild.ID])

	// Subtree votes come out of the deleted comment's author, not the voter
	// or the other thread's author.
	assert.Equal(t, karmaBefore-1, userKarma(t, s, author.ID))
	assert.Equal(t, otherKarmaBefore, userKarma(t, s, other.ID))

	// The surviving thread's vote is untouched.
	score, err := s.TargetScore(ctx, survivor.ID, models.CommentTarget)
	assert.NoError(t, err)
	assert.Equal(t, 1, score)
}

func TestDeleteCommentCascadeChargesEachAuthorForOwnVotes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	carol := seedUser(t, s, "carol")
	dave := seedUser(t, s, "dave")
	community := seedCommunity(t, s, alice, bob, carol, dave)
	post := seedPost(t, s, carol, community)

	c1 := seedComment(t, s, alice, post, nil)
	c2 := seedComment(t, s, bob, post, c1)

	// Three votes on the root comment, one on the reply.
	_, err := CastVote(ctx, s, bob.ID, c1.ID, models.CommentTarget, models.Upvote)
	assert.NoError(t, err)
	_, err = CastVote(ctx, s, carol.ID, c1.ID, models.CommentTarget, models.Upvote)
	assert.NoError(t, err)
	_, err = CastVote(ctx, s, dave.ID, c1.ID, models.CommentTarget, models.Downvote)
	assert.NoError(t, err)
	_, err = CastVote(ctx, s, carol.ID, c2.ID, models.CommentTarget, models.Upvote)
	assert.NoError(t, err)

	aliceBefore := userKarma(t, s, alice.ID)
	bobBefore := userKarma(t, s, bob.ID)

	result, err := DeleteCommentCascade(ctx, s, c1.ID, alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), result.CommentsDeleted)
	assert.Equal(t, int64(4), result.VotesDeleted)
	assert.Equal(t, -1, result.KarmaDelta)

	// The root's votes sum to +1 and come out of its author. The reply's
	// upvote comes out of the reply's author, not the root's.
	assert.Equal(t, aliceBefore-1, userKarma(t, s, alice.ID))
	assert.Equal(t, bobBefore-1, userKarma(t, s, bob.ID))
}

func TestDeleteCommentCascadeCounters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	community := seedCommunity(t, s, author)
	post := seedPost(t, s, author, community)

	top := seedComment(t, s, author, post, nil)
	reply := seedComment(t, s, author, post, top)

	// Deleting the reply decrements the parent's reply count.
	_, err := DeleteCommentCascade(ctx, s, reply.ID, author.ID)
	assert.NoError(t, err)
	got, err := s.GetComment(ctx, top.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, got.RepliesCount)

	// Deleting the top-level comment decrements the post's comment count.
	_, err = DeleteCommentCascade(ctx, s, top.ID, author.ID)
	assert.NoError(t, err)
	gotPost, err := s.GetPost(ctx, post.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, gotPost.CommentCount)
}

func TestDeleteCommentCascadeForbidden(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	stranger := seedUser(t, s, "mallory")
	community := seedCommunity(t, s, author)
	post := seedPost(t, s, author, community)
	comment := seedComment(t, s, author, post, nil)

	_, err := DeleteCommentCascade(ctx, s, comment.ID, stranger.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))
}

func TestCollectDescendants(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	author := seedUser(t, s, "alice")
	community := seedCommunity(t, s, author)
	post := seedPost(t, s, author, community)

	root := seedComment(t, s, author, post, nil)
	a := seedComment(t, s, author, post, root)
	b := seedComment(t, s, author, post, root)
	aa := seedComment(t, s, author, post, a)
	seedComment(t, s, author, post, nil) // unrelated sibling thread

	descendants, err := CollectDescendants(ctx, s, []primitive.ObjectID{root.ID})
	assert.NoError(t, err)
	assert.Len(t, descendants, 3)

	found := map[primitive.ObjectID]bool{}
	for _, d := range descendants {
		found[d.ID] = true
	}
	assert.True(t, found[a.ID])
	assert.True(t, found[b.ID])
	assert.True(t, found[aa.ID])
	assert.False(t, found[root.ID], "roots are excluded from the result")
}

func TestCollectDescendantsEmptyRoots(t *testing.T) {
	s := NewMemoryStore()
	descendants, err := CollectDescendants(context.Background(), s, nil)
	assert.NoError(t, err)
	assert.Empty(t, descendants)
}
