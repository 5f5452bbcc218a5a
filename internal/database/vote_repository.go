// internal/database/vote_repository.go
package database

import (
	"context"
	"time"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetVote looks up the vote a user has on a target, if any.
func (m *MongoStore) GetVote(ctx context.Context, userID, targetID primitive.ObjectID, targetType models.VoteTargetType) (*models.Vote, error) {
	var vote models.Vote
	err := m.Votes.FindOne(ctx, bson.M{
		"userId":     userID,
		"targetId":   targetID,
		"targetType": targetType,
	}).Decode(&vote)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrVoteNotFound, "Vote not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get vote", err)
	}
	return &vote, nil
}

// InsertVote stores a new vote row. The unique (userId, targetId, targetType)
// index turns a concurrent double-insert into a duplicate-key error.
func (m *MongoStore) InsertVote(ctx context.Context, vote *models.Vote) error {
	now := time.Now()
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = now
	}
	vote.UpdatedAt = now

	_, err := m.Votes.InsertOne(ctx, vote)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrAlreadyVoted, "Already voted", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to insert vote", err)
	}
	return nil
}

// UpdateVoteValue overwrites the direction of an existing vote in place.
func (m *MongoStore) UpdateVoteValue(ctx context.Context, id primitive.ObjectID, value int) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"value":     value,
		"updatedAt": time.Now(),
	}}

	result, err := m.Votes.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update vote", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrVoteNotFound, "Vote not found", nil)
	}
	return nil
}

// DeleteVote removes the vote a user has on a target.
func (m *MongoStore) DeleteVote(ctx context.Context, userID, targetID primitive.ObjectID, targetType models.VoteTargetType) error {
	result, err := m.Votes.DeleteOne(ctx, bson.M{
		"userId":     userID,
		"targetId":   targetID,
		"targetType": targetType,
	})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete vote", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrVoteNotFound, "Vote not found", nil)
	}
	return nil
}

// FindVotesByTargets returns every vote whose target is in targetIDs,
// regardless of target type. Used by the cascade orchestrator, which owns
// a mixed set of post and comment ids.
func (m *MongoStore) FindVotesByTargets(ctx context.Context, targetIDs []primitive.ObjectID) ([]*models.Vote, error) {
	if len(targetIDs) == 0 {
		return []*models.Vote{}, nil
	}

	cursor, err := m.Votes.Find(ctx, bson.M{"targetId": bson.M{"$in": targetIDs}})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query votes", err)
	}
	defer cursor.Close(ctx)

	votes := make([]*models.Vote, 0)
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode votes", err)
	}
	return votes, nil
}

// DeleteVotesByTargets removes every vote on the given targets.
func (m *MongoStore) DeleteVotesByTargets(ctx context.Context, targetIDs []primitive.ObjectID) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}

	result, err := m.Votes.DeleteMany(ctx, bson.M{"targetId": bson.M{"$in": targetIDs}})
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to delete votes", err)
	}
	return result.DeletedCount, nil
}

// TargetScore sums vote values for a target. Recomputed per query, uncached.
func (m *MongoStore) TargetScore(ctx context.Context, targetID primitive.ObjectID, targetType models.VoteTargetType) (int, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"targetId": targetID, "targetType": targetType}},
		{"$group": bson.M{"_id": nil, "score": bson.M{"$sum": "$value"}}},
	}

	cursor, err := m.Votes.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to aggregate score", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Score int `bson:"score"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to decode score", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Score, nil
}
