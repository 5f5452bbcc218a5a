// internal/database/community_repository.go
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

// CreateCommunity inserts a new community. Name uniqueness is backed by the
// unique index on the name field.
func (m *MongoStore) CreateCommunity(ctx context.Context, community *models.Community) error {
	if community.CreatedAt.IsZero() {
		community.CreatedAt = time.Now()
	}
	if community.Moderators == nil {
		community.Moderators = []primitive.ObjectID{community.CreatorID}
	}
	if community.Members == nil {
		community.Members = []primitive.ObjectID{community.CreatorID}
	}
	if community.Rules == nil {
		community.Rules = make([]string, 0)
	}

	_, err := m.Communities.InsertOne(ctx, community)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrCommunityExists, "Community already exists: "+community.Name, err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to create community", err)
	}
	return nil
}

// GetCommunity retrieves a community by ID.
func (m *MongoStore) GetCommunity(ctx context.Context, id primitive.ObjectID) (*models.Community, error) {
	var community models.Community
	err := m.Communities.FindOne(ctx, bson.M{"_id": id}).Decode(&community)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewCommunityNotFoundError(id.Hex())
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get community", err)
	}
	return &community, nil
}

// GetCommunityByName retrieves a community by its unique name.
func (m *MongoStore) GetCommunityByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	err := m.Communities.FindOne(ctx, bson.M{"name": name}).Decode(&community)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewCommunityNotFoundError(name)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get community by name", err)
	}
	return &community, nil
}

// ListCommunities returns all communities, newest first.
func (m *MongoStore) ListCommunities(ctx context.Context) ([]*models.Community, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Communities.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to list communities", err)
	}
	defer cursor.Close(ctx)

	communities := make([]*models.Community, 0)
	if err := cursor.All(ctx, &communities); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode communities", err)
	}
	return communities, nil
}

// UpdateCommunity replaces the mutable fields of a community.
func (m *MongoStore) UpdateCommunity(ctx context.Context, community *models.Community) error {
	filter := bson.M{"_id": community.ID}
	update := bson.M{"$set": bson.M{
		"description": community.Description,
		"moderators":  community.Moderators,
		"rules":       community.Rules,
	}}

	result, err := m.Communities.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update community", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewCommunityNotFoundError(community.ID.Hex())
	}
	return nil
}

// DeleteCommunity removes a community document.
func (m *MongoStore) DeleteCommunity(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.Communities.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete community", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewCommunityNotFoundError(id.Hex())
	}
	return nil
}

// UpdateCommunityMembership adds or removes a user from the member set.
func (m *MongoStore) UpdateCommunityMembership(ctx context.Context, communityID, userID primitive.ObjectID, join bool) error {
	filter := bson.M{"_id": communityID}
	var update bson.M
	if join {
		update = bson.M{"$addToSet": bson.M{"members": userID}}
	} else {
		update = bson.M{"$pull": bson.M{"members": userID}}
	}

	result, err := m.Communities.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update community membership", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewCommunityNotFoundError(communityID.Hex())
	}
	return nil
}
