// internal/database/cascade.go
package database

import (
	"context"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CascadeResult reports what a cascading delete removed and the karma
// adjustment it applied to the author of the deleted root.
type CascadeResult struct {
	CommentsDeleted int64 `json:"commentsDeleted"`
	VotesDeleted    int64 `json:"votesDeleted"`
	KarmaDelta      int   `json:"karmaDelta"`
}

// DeletePostCascade removes a post together with every comment under it and
// every vote on the post or those comments. The summed value of the removed
// votes is deducted from the post author's karma so deleted content stops
// counting toward it. Only the post author may delete the post.
func DeletePostCascade(ctx context.Context, s Store, postID, requesterID primitive.ObjectID) (*CascadeResult, error) {
	result := &CascadeResult{}
	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		post, err := s.GetPost(txCtx, postID)
		if err != nil {
			return err
		}
		if post.AuthorID != requesterID {
			return utils.NewForbiddenError("only the post author can delete this post")
		}

		comments, err := s.GetPostComments(txCtx, postID)
		if err != nil {
			return err
		}

		targets := make([]primitive.ObjectID, 0, len(comments)+1)
		targets = append(targets, postID)
		for _, c := range comments {
			targets = append(targets, c.ID)
		}

		votes, err := s.FindVotesByTargets(txCtx, targets)
		if err != nil {
			return err
		}
		karma := 0
		for _, v := range votes {
			karma += v.Value
		}

		votesDeleted, err := s.DeleteVotesByTargets(txCtx, targets)
		if err != nil {
			return err
		}

		commentIDs := targets[1:]
		commentsDeleted, err := s.DeleteComments(txCtx, commentIDs)
		if err != nil {
			return err
		}

		if err := s.DeletePost(txCtx, postID); err != nil {
			return err
		}

		if karma != 0 {
			if err := s.AdjustUserKarma(txCtx, post.AuthorID, -karma); err != nil {
				return err
			}
		}

		result.CommentsDeleted = commentsDeleted
		result.VotesDeleted = votesDeleted
		result.KarmaDelta = -karma
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteCommentCascade removes a comment, every descendant reply, and every
// vote on any of them. Each removed vote is charged back to the author of
// the comment it was cast on, so a reply's votes never move the deleting
// author's karma. The parent's reply counter (or the post's comment counter,
// for a top-level comment) is decremented by one. Only the comment author
// may delete the comment.
func DeleteCommentCascade(ctx context.Context, s Store, commentID, requesterID primitive.ObjectID) (*CascadeResult, error) {
	result := &CascadeResult{}
	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		comment, err := s.GetComment(txCtx, commentID)
		if err != nil {
			return err
		}
		if comment.AuthorID != requesterID {
			return utils.NewForbiddenError("only the comment author can delete this comment")
		}

		descendants, err := CollectDescendants(txCtx, s, []primitive.ObjectID{commentID})
		if err != nil {
			return err
		}

		targets := make([]primitive.ObjectID, 0, len(descendants)+1)
		targets = append(targets, commentID)
		authors := map[primitive.ObjectID]primitive.ObjectID{commentID: comment.AuthorID}
		for _, d := range descendants {
			targets = append(targets, d.ID)
			authors[d.ID] = d.AuthorID
		}

		votes, err := s.FindVotesByTargets(txCtx, targets)
		if err != nil {
			return err
		}
		debits := make(map[primitive.ObjectID]int)
		for _, v := range votes {
			debits[authors[v.TargetID]] += v.Value
		}

		votesDeleted, err := s.DeleteVotesByTargets(txCtx, targets)
		if err != nil {
			return err
		}

		commentsDeleted, err := s.DeleteComments(txCtx, targets)
		if err != nil {
			return err
		}

		if comment.ParentID != nil {
			err = s.AdjustCommentCounters(txCtx, *comment.ParentID, -1, 0, 0)
		} else {
			err = s.AdjustPostCounters(txCtx, comment.PostID, -1, 0, 0)
		}
		if err != nil {
			return err
		}

		for authorID, sum := range debits {
			if sum == 0 {
				continue
			}
			if err := s.AdjustUserKarma(txCtx, authorID, -sum); err != nil {
				return err
			}
		}

		result.CommentsDeleted = commentsDeleted
		result.VotesDeleted = votesDeleted
		result.KarmaDelta = -debits[comment.AuthorID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// targetAuthor resolves the author of a vote target, verifying the target
// exists in the process.
func targetAuthor(ctx context.Context, s Store, targetID primitive.ObjectID, targetType models.VoteTargetType) (primitive.ObjectID, error) {
	switch targetType {
	case models.PostTarget:
		post, err := s.GetPost(ctx, targetID)
		if err != nil {
			return primitive.NilObjectID, err
		}
		return post.AuthorID, nil
	case models.CommentTarget:
		comment, err := s.GetComment(ctx, targetID)
		if err != nil {
			return primitive.NilObjectID, err
		}
		return comment.AuthorID, nil
	default:
		return primitive.NilObjectID, utils.NewValidationError("invalid vote target type")
	}
}
