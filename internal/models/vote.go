package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoteTargetType discriminates what a vote points at.
type VoteTargetType string

const (
	PostTarget    VoteTargetType = "post"
	CommentTarget VoteTargetType = "comment"
)

// ValidVoteTarget reports whether t names a votable entity kind.
func ValidVoteTarget(t VoteTargetType) bool {
	return t == PostTarget || t == CommentTarget
}

// Vote values. Exactly one vote per (user, target, targetType) may exist.
const (
	Upvote   = 1
	Downvote = -1
)

// ValidVoteValue reports whether v is a castable vote value.
func ValidVoteValue(v int) bool {
	return v == Upvote || v == Downvote
}

type Vote struct {
	ID         primitive.ObjectID `json:"id" bson:"_id"`
	UserID     primitive.ObjectID `json:"userId" bson:"userId"`
	TargetID   primitive.ObjectID `json:"targetId" bson:"targetId"`
	TargetType VoteTargetType     `json:"targetType" bson:"targetType"`
	Value      int                `json:"value" bson:"value"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}
