// internal/database/comment_repository.go
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

// InsertComment stores a new comment document.
func (m *MongoStore) InsertComment(ctx context.Context, comment *models.Comment) error {
	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now

	_, err := m.Comments.InsertOne(ctx, comment)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to insert comment", err)
	}
	return nil
}

// GetComment retrieves a comment by ID.
func (m *MongoStore) GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	err := m.Comments.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get comment", err)
	}
	return &comment, nil
}

// UpdateComment replaces the author-editable fields of a comment.
func (m *MongoStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	filter := bson.M{"_id": comment.ID}
	update := bson.M{"$set": bson.M{
		"content":   comment.Content,
		"updatedAt": time.Now(),
	}}

	result, err := m.Comments.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update comment", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}

// GetPostComments retrieves all comments for a post, oldest first.
func (m *MongoStore) GetPostComments(ctx context.Context, postID primitive.ObjectID) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.Comments.Find(ctx, bson.M{"postId": postID}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post comments", err)
	}
	defer cursor.Close(ctx)

	comments := make([]*models.Comment, 0)
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode comments", err)
	}
	return comments, nil
}

// FindCommentsByParents returns the comments whose parentId is in parentIDs.
// One call resolves one level of the tree during descendant enumeration.
func (m *MongoStore) FindCommentsByParents(ctx context.Context, parentIDs []primitive.ObjectID) ([]*models.Comment, error) {
	if len(parentIDs) == 0 {
		return []*models.Comment{}, nil
	}

	cursor, err := m.Comments.Find(ctx, bson.M{"parentId": bson.M{"$in": parentIDs}})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query child comments", err)
	}
	defer cursor.Close(ctx)

	comments := make([]*models.Comment, 0)
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode child comments", err)
	}
	return comments, nil
}

// DeleteComments removes the given comments and reports how many were deleted.
func (m *MongoStore) DeleteComments(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := m.Comments.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to delete comments", err)
	}
	return result.DeletedCount, nil
}

// AdjustCommentCounters atomically increments the denormalized counters on a comment.
func (m *MongoStore) AdjustCommentCounters(ctx context.Context, id primitive.ObjectID, repliesDelta, upvoteDelta, downvoteDelta int) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{
			"repliesCount": repliesDelta,
			"upvotes":      upvoteDelta,
			"downvotes":    downvoteDelta,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result, err := m.Comments.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to adjust comment counters", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}
