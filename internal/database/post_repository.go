// internal/database/post_repository.go
package database

import (
	"context"
	"time"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertPost stores a new post document.
func (m *MongoStore) InsertPost(ctx context.Context, post *models.Post) error {
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	_, err := m.Posts.InsertOne(ctx, post)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to insert post", err)
	}
	return nil
}

// GetPost retrieves a post by ID.
func (m *MongoStore) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := m.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get post", err)
	}
	return &post, nil
}

// UpdatePost replaces the author-editable fields of a post.
func (m *MongoStore) UpdatePost(ctx context.Context, post *models.Post) error {
	filter := bson.M{"_id": post.ID}
	update := bson.M{"$set": bson.M{
		"title":     post.Title,
		"content":   post.Content,
		"updatedAt": time.Now(),
	}}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// DeletePost removes a single post document. Cascading cleanup of comments
// and votes is the orchestrator's job, not this method's.
func (m *MongoStore) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.Posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete post", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// GetCommunityPosts retrieves posts for a community with pagination, newest first.
func (m *MongoStore) GetCommunityPosts(ctx context.Context, communityID primitive.ObjectID, limit, offset int) ([]*models.Post, error) {
	return m.findPosts(ctx, bson.M{"communityId": communityID}, limit, offset)
}

// GetRecentPosts retrieves the most recent posts across all communities.
func (m *MongoStore) GetRecentPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return m.findPosts(ctx, bson.M{}, limit, offset)
}

func (m *MongoStore) findPosts(ctx context.Context, filter bson.M, limit, offset int) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}

	cursor, err := m.Posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query posts", err)
	}
	defer cursor.Close(ctx)

	posts := make([]*models.Post, 0)
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode posts", err)
	}
	return posts, nil
}

// AdjustPostCounters atomically increments the denormalized counters on a post.
func (m *MongoStore) AdjustPostCounters(ctx context.Context, id primitive.ObjectID, commentDelta, upvoteDelta, downvoteDelta int) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{
			"commentCount": commentDelta,
			"upvotes":      upvoteDelta,
			"downvotes":    downvoteDelta,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to adjust post counters", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}
