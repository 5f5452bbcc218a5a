package database

import (
	"context"

	"marshlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store defines the common interface for entity persistence. Two
// implementations exist: MongoStore for production and MemoryStore for tests
// and the simulator's local mode.
type Store interface {
	// Connection
	Close(ctx context.Context) error

	// RunInTransaction executes fn inside one atomic unit. The transaction
	// commits when fn returns nil and aborts on error or panic; partial
	// writes are never observable to other callers. Store methods invoked
	// within fn must use the ctx passed to fn.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AdjustUserKarma(ctx context.Context, id primitive.ObjectID, delta int) error
	UpdateUserActivity(ctx context.Context, id primitive.ObjectID, active bool) error
	UpdateUserCommunities(ctx context.Context, userID, communityID primitive.ObjectID, join bool) error

	// Community methods
	CreateCommunity(ctx context.Context, community *models.Community) error
	GetCommunity(ctx context.Context, id primitive.ObjectID) (*models.Community, error)
	GetCommunityByName(ctx context.Context, name string) (*models.Community, error)
	ListCommunities(ctx context.Context) ([]*models.Community, error)
	UpdateCommunity(ctx context.Context, community *models.Community) error
	DeleteCommunity(ctx context.Context, id primitive.ObjectID) error
	UpdateCommunityMembership(ctx context.Context, communityID, userID primitive.ObjectID, join bool) error

	// Post methods
	InsertPost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	GetCommunityPosts(ctx context.Context, communityID primitive.ObjectID, limit, offset int) ([]*models.Post, error)
	GetRecentPosts(ctx context.Context, limit, offset int) ([]*models.Post, error)
	AdjustPostCounters(ctx context.Context, id primitive.ObjectID, commentDelta, upvoteDelta, downvoteDelta int) error

	// Comment methods
	InsertComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	GetPostComments(ctx context.Context, postID primitive.ObjectID) ([]*models.Comment, error)
	FindCommentsByParents(ctx context.Context, parentIDs []primitive.ObjectID) ([]*models.Comment, error)
	DeleteComments(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	AdjustCommentCounters(ctx context.Context, id primitive.ObjectID, repliesDelta, upvoteDelta, downvoteDelta int) error

	// Vote ledger methods
	GetVote(ctx context.Context, userID, targetID primitive.ObjectID, targetType models.VoteTargetType) (*models.Vote, error)
	InsertVote(ctx context.Context, vote *models.Vote) error
	UpdateVoteValue(ctx context.Context, id primitive.ObjectID, value int) error
	DeleteVote(ctx context.Context, userID, targetID primitive.ObjectID, targetType models.VoteTargetType) error
	FindVotesByTargets(ctx context.Context, targetIDs []primitive.ObjectID) ([]*models.Vote, error)
	DeleteVotesByTargets(ctx context.Context, targetIDs []primitive.ObjectID) (int64, error)
	TargetScore(ctx context.Context, targetID primitive.ObjectID, targetType models.VoteTargetType) (int, error)
}
