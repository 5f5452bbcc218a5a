package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id"`
	Content        string              `json:"content" bson:"content"`
	AuthorID       primitive.ObjectID  `json:"authorId" bson:"authorId"`
	AuthorUsername string              `json:"authorUsername,omitempty" bson:"-"`
	PostID         primitive.ObjectID  `json:"postId" bson:"postId"`
	ParentID       *primitive.ObjectID `json:"parentId,omitempty" bson:"parentId,omitempty"`
	// RenderedContent is the sanitized HTML for the comment body, populated
	// on reads only.
	RenderedContent string    `json:"renderedContent,omitempty" bson:"-"`
	RepliesCount    int       `json:"repliesCount" bson:"repliesCount"`
	Upvotes         int       `json:"upvotes" bson:"upvotes"`
	Downvotes       int       `json:"downvotes" bson:"downvotes"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}
