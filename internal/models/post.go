package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostType determines how a post's content field is interpreted.
type PostType string

const (
	TextPost  PostType = "text"
	ImagePost PostType = "image"
	LinkPost  PostType = "link"
	PollPost  PostType = "poll"
)

// ValidPostType reports whether t is one of the recognized post types.
func ValidPostType(t PostType) bool {
	switch t {
	case TextPost, ImagePost, LinkPost, PollPost:
		return true
	}
	return false
}

type Post struct {
	ID             primitive.ObjectID `json:"id" bson:"_id"`
	Title          string             `json:"title" bson:"title"`
	Content        string             `json:"content" bson:"content"`
	PostType       PostType           `json:"postType" bson:"postType"`
	AuthorID       primitive.ObjectID `json:"authorId" bson:"authorId"`
	AuthorUsername string             `json:"authorUsername,omitempty" bson:"-"`
	CommunityID    primitive.ObjectID `json:"communityId" bson:"communityId"`
	CommentCount   int                `json:"commentCount" bson:"commentCount"`
	Upvotes        int                `json:"upvotes" bson:"upvotes"`
	Downvotes      int                `json:"downvotes" bson:"downvotes"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`

	// RenderedContent is the sanitized HTML for text posts, populated on
	// reads, never persisted.
	RenderedContent string `json:"renderedContent,omitempty" bson:"-"`
}
