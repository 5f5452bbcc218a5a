package handlers

import (
	"encoding/json"
	"net/http"

	"marshlink/internal/engine/actors"
	"marshlink/internal/middleware"
	"marshlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateCommentRequest represents a request to create a new comment
type CreateCommentRequest struct {
	Content  string `json:"content"`
	PostID   string `json:"postId"`
	ParentID string `json:"parentId,omitempty"` // Optional, for replies
}

// EditCommentRequest represents a request to edit an existing comment
type EditCommentRequest struct {
	CommentID string `json:"commentId"`
	Content   string `json:"content"`
}

// HandleComment handles comment creation, edits, lookup and deletion
func (s *Server) HandleComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req CreateCommentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			authorID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			postID, err := parseID(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			var parentID *primitive.ObjectID
			if req.ParentID != "" {
				parsed, err := parseID(req.ParentID)
				if err != nil {
					http.Error(w, "Invalid parent comment ID", http.StatusBadRequest)
					return
				}
				parentID = &parsed
			}

			result, err := s.request(s.Engine.GetCommentActor(), &actors.CreateCommentMsg{
				Content:  req.Content,
				AuthorID: authorID,
				PostID:   postID,
				ParentID: parentID,
			})
			if err != nil {
				http.Error(w, "Failed to create comment", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusCreated)

		case http.MethodPut:
			var req EditCommentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			commentID, err := parseID(req.CommentID)
			if err != nil {
				http.Error(w, "Invalid comment ID", http.StatusBadRequest)
				return
			}

			authorID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			result, err := s.request(s.Engine.GetCommentActor(), &actors.EditCommentMsg{
				CommentID: commentID,
				AuthorID:  authorID,
				Content:   req.Content,
			})
			if err != nil {
				http.Error(w, "Failed to edit comment", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)

		case http.MethodDelete:
			commentID, err := parseID(r.URL.Query().Get("commentId"))
			if err != nil {
				http.Error(w, "Invalid comment ID", http.StatusBadRequest)
				return
			}

			requesterID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			result, err := s.request(s.Engine.GetCommentActor(), &actors.DeleteCommentMsg{
				CommentID:   commentID,
				RequesterID: requesterID,
			})
			if err != nil {
				http.Error(w, "Failed to delete comment", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)

		case http.MethodGet:
			commentID, err := parseID(r.URL.Query().Get("commentId"))
			if err != nil {
				http.Error(w, "Invalid comment ID", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetCommentActor(), &actors.GetCommentMsg{CommentID: commentID})
			if err != nil {
				http.Error(w, "Failed to get comment", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleGetPostComments retrieves all comments for a given post
func (s *Server) HandleGetPostComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		postID, err := parseID(r.URL.Query().Get("postId"))
		if err != nil {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetCommentActor(), &actors.GetCommentsForPostMsg{PostID: postID})
		if err != nil {
			http.Error(w, "Failed to get comments", http.StatusInternalServerError)
			return
		}
		s.respond(w, result, http.StatusOK)
	}
}

// HandleCommentVote casts, swings or removes the authenticated user's vote
// on a comment. GET returns the comment's live score.
func (s *Server) HandleCommentVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			commentID, err := parseID(r.URL.Query().Get("commentId"))
			if err != nil {
				http.Error(w, "Invalid comment ID", http.StatusBadRequest)
				return
			}
			result, err := s.request(s.Engine.GetCommentActor(), &actors.GetCommentScoreMsg{CommentID: commentID})
			if err != nil {
				http.Error(w, "Failed to get score", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)
			return
		}

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			CommentID string `json:"commentId"`
			IsUpvote  bool   `json:"isUpvote"`
			Remove    bool   `json:"remove,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		commentID, err := parseID(req.CommentID)
		if err != nil {
			http.Error(w, "Invalid comment ID", http.StatusBadRequest)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		value := models.Upvote
		if !req.IsUpvote {
			value = models.Downvote
		}

		result, err := s.request(s.Engine.GetCommentActor(), &actors.VoteCommentMsg{
			CommentID: commentID,
			UserID:    userID,
			Value:     value,
			Remove:    req.Remove,
		})
		if err != nil {
			http.Error(w, "Failed to process vote", http.StatusInternalServerError)
			return
		}
		s.respond(w, result, http.StatusOK)
	}
}
