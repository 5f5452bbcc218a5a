// internal/database/ledger.go
package database

import (
	"context"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CastVote records a user's vote on a post or comment. A user holds at most
// one vote per target: repeating the same direction is rejected, while voting
// the opposite direction overwrites the stored vote in place. A fresh vote
// moves the target author's karma by the vote value; a direction swing only
// rewrites the ledger row and tallies.
func CastVote(ctx context.Context, s Store, userID, targetID primitive.ObjectID, targetType models.VoteTargetType, value int) (*models.Vote, error) {
	if !models.ValidVoteValue(value) {
		return nil, utils.NewValidationError("vote value must be 1 or -1")
	}
	if !models.ValidVoteTarget(targetType) {
		return nil, utils.NewValidationError("invalid vote target type")
	}

	authorID, err := targetAuthor(ctx, s, targetID, targetType)
	if err != nil {
		return nil, err
	}

	var vote *models.Vote
	err = s.RunInTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.GetVote(txCtx, userID, targetID, targetType)
		switch {
		case err == nil:
			if existing.Value == value {
				return utils.NewAppError(utils.ErrAlreadyVoted, "Already voted in this direction", nil)
			}
			// Direction swing: flip the row and move one tally to the other.
			if err := s.UpdateVoteValue(txCtx, existing.ID, value); err != nil {
				return err
			}
			up, down := 1, -1
			if value == models.Downvote {
				up, down = -1, 1
			}
			if err := adjustTargetTallies(txCtx, s, targetID, targetType, up, down); err != nil {
				return err
			}
			existing.Value = value
			vote = existing
			return nil

		case utils.IsErrorCode(err, utils.ErrVoteNotFound):
			fresh := &models.Vote{
				ID:         primitive.NewObjectID(),
				UserID:     userID,
				TargetID:   targetID,
				TargetType: targetType,
				Value:      value,
			}
			if err := s.InsertVote(txCtx, fresh); err != nil {
				return err
			}
			up, down := 1, 0
			if value == models.Downvote {
				up, down = 0, 1
			}
			if err := adjustTargetTallies(txCtx, s, targetID, targetType, up, down); err != nil {
				return err
			}
			if err := s.AdjustUserKarma(txCtx, authorID, value); err != nil {
				return err
			}
			vote = fresh
			return nil

		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return vote, nil
}

// RemoveVote withdraws a user's vote from a target, reversing the tally and
// karma movement the vote made when cast. Removing a vote that does not
// exist is a not-found error.
func RemoveVote(ctx context.Context, s Store, userID, targetID primitive.ObjectID, targetType models.VoteTargetType) error {
	if !models.ValidVoteTarget(targetType) {
		return utils.NewValidationError("invalid vote target type")
	}

	authorID, err := targetAuthor(ctx, s, targetID, targetType)
	if err != nil {
		return err
	}

	return s.RunInTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.GetVote(txCtx, userID, targetID, targetType)
		if err != nil {
			return err
		}
		if err := s.DeleteVote(txCtx, userID, targetID, targetType); err != nil {
			return err
		}

		up, down := -1, 0
		if existing.Value == models.Downvote {
			up, down = 0, -1
		}
		if err := adjustTargetTallies(txCtx, s, targetID, targetType, up, down); err != nil {
			return err
		}
		return s.AdjustUserKarma(txCtx, authorID, -existing.Value)
	})
}

func adjustTargetTallies(ctx context.Context, s Store, targetID primitive.ObjectID, targetType models.VoteTargetType, upDelta, downDelta int) error {
	if targetType == models.PostTarget {
		return s.AdjustPostCounters(ctx, targetID, 0, upDelta, downDelta)
	}
	return s.AdjustCommentCounters(ctx, targetID, 0, upDelta, downDelta)
}
