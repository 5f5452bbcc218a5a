package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id"`
	Username       string               `json:"username" bson:"username"`
	Email          string               `json:"email" bson:"email"`
	HashedPassword string               `json:"-" bson:"hashedPassword"`
	Karma          int                  `json:"karma" bson:"karma"`
	Communities    []primitive.ObjectID `json:"communities" bson:"communities"`
	CreatedAt      time.Time            `json:"createdAt" bson:"createdAt"`
	LastActive     time.Time            `json:"lastActive" bson:"lastActive"`
	IsConnected    bool                 `json:"isConnected" bson:"isConnected"`
}

type Community struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id"`
	Name        string               `json:"name" bson:"name"`
	Description string               `json:"description" bson:"description"`
	CreatorID   primitive.ObjectID   `json:"creatorId" bson:"creatorId"`
	Moderators  []primitive.ObjectID `json:"moderators" bson:"moderators"`
	Members     []primitive.ObjectID `json:"members" bson:"members"`
	Rules       []string             `json:"rules" bson:"rules"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
}

// IsModerator reports whether userID is in the community's moderator set.
func (c *Community) IsModerator(userID primitive.ObjectID) bool {
	for _, id := range c.Moderators {
		if id == userID {
			return true
		}
	}
	return false
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ScoreResponse reports the live vote sum for a post or comment.
type ScoreResponse struct {
	TargetID   primitive.ObjectID `json:"targetId"`
	TargetType VoteTargetType     `json:"targetType"`
	Score      int                `json:"score"`
}
