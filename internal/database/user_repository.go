// internal/database/user_repository.go
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

// SaveUser creates or updates a user document.
func (m *MongoStore) SaveUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.LastActive.IsZero() {
		user.LastActive = user.CreatedAt
	}
	if user.Communities == nil {
		user.Communities = make([]primitive.ObjectID, 0)
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": user.ID}
	update := bson.M{"$set": user}

	_, err := m.Users.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (m *MongoStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := m.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewUserNotFoundError(id.Hex())
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (m *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := m.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user by email", err)
	}
	return &user, nil
}

// AdjustUserKarma increments (or decrements) a user's karma score.
func (m *MongoStore) AdjustUserKarma(ctx context.Context, id primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$inc": bson.M{"karma": delta}}

	result, err := m.Users.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to adjust user karma", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewUserNotFoundError(id.Hex())
	}
	return nil
}

// UpdateUserActivity updates a user's last active time and connection status.
func (m *MongoStore) UpdateUserActivity(ctx context.Context, id primitive.ObjectID, active bool) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"lastActive":  time.Now(),
		"isConnected": active,
	}}

	result, err := m.Users.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update user activity", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewUserNotFoundError(id.Hex())
	}
	return nil
}

// UpdateUserCommunities adds or removes a community from a user's subscriptions.
func (m *MongoStore) UpdateUserCommunities(ctx context.Context, userID, communityID primitive.ObjectID, join bool) error {
	filter := bson.M{"_id": userID}
	var update bson.M
	if join {
		update = bson.M{"$addToSet": bson.M{"communities": communityID}}
	} else {
		update = bson.M{"$pull": bson.M{"communities": communityID}}
	}

	result, err := m.Users.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update user subscriptions", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewUserNotFoundError(userID.Hex())
	}
	return nil
}
