// internal/database/content.go
package database

import (
	"context"
	"strings"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreatePost validates and stores a new post. The author must exist and be
// a member of the target community.
func CreatePost(ctx context.Context, s Store, post *models.Post) (*models.Post, error) {
	if strings.TrimSpace(post.Title) == "" {
		return nil, utils.NewValidationError("post title is required")
	}
	if strings.TrimSpace(post.Content) == "" {
		return nil, utils.NewValidationError("post content is required")
	}
	if !models.ValidPostType(post.PostType) {
		return nil, utils.NewValidationError("invalid post type")
	}

	if _, err := s.GetUser(ctx, post.AuthorID); err != nil {
		return nil, err
	}
	community, err := s.GetCommunity(ctx, post.CommunityID)
	if err != nil {
		return nil, err
	}

	member := false
	for _, m := range community.Members {
		if m == post.AuthorID {
			member = true
			break
		}
	}
	if !member {
		return nil, utils.NewAppError(utils.ErrNotCommunityMember, "user is not a member of this community", nil)
	}

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if err := s.InsertPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment validates and stores a new comment, bumping exactly one
// counter: the parent comment's reply count for a reply, or the post's
// comment count for a top-level comment. Writing a comment earns the author
// one karma point.
func CreateComment(ctx context.Context, s Store, comment *models.Comment) (*models.Comment, error) {
	if strings.TrimSpace(comment.Content) == "" {
		return nil, utils.NewValidationError("comment content is required")
	}

	if _, err := s.GetUser(ctx, comment.AuthorID); err != nil {
		return nil, err
	}

	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.GetPost(txCtx, comment.PostID); err != nil {
			return err
		}

		if comment.ParentID != nil {
			parent, err := s.GetComment(txCtx, *comment.ParentID)
			if err != nil {
				return err
			}
			if parent.PostID != comment.PostID {
				return utils.NewValidationError("parent comment belongs to a different post")
			}
		}

		if comment.ID.IsZero() {
			comment.ID = primitive.NewObjectID()
		}
		if err := s.InsertComment(txCtx, comment); err != nil {
			return err
		}

		if comment.ParentID != nil {
			if err := s.AdjustCommentCounters(txCtx, *comment.ParentID, 1, 0, 0); err != nil {
				return err
			}
		} else {
			if err := s.AdjustPostCounters(txCtx, comment.PostID, 1, 0, 0); err != nil {
				return err
			}
		}

		return s.AdjustUserKarma(txCtx, comment.AuthorID, 1)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}
