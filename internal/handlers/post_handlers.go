package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"marshlink/internal/engine/actors"
	"marshlink/internal/middleware"
	"marshlink/internal/models"
)

// CreatePostRequest represents a request to create a new post
type CreatePostRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	PostType    string `json:"postType"`
	CommunityID string `json:"communityId"`
}

// EditPostRequest represents a request to edit an existing post
type EditPostRequest struct {
	PostID  string `json:"postId"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 25
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// HandlePost handles post creation, lookup, edits and deletion
func (s *Server) HandlePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req CreatePostRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			authorID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			communityID, err := parseID(req.CommunityID)
			if err != nil {
				http.Error(w, "Invalid community ID", http.StatusBadRequest)
				return
			}

			postType := models.PostType(req.PostType)
			if req.PostType == "" {
				postType = models.TextPost
			}

			result, err := s.request(s.Engine.GetPostActor(), &actors.CreatePostMsg{
				Title:       req.Title,
				Content:     req.Content,
				PostType:    postType,
				AuthorID:    authorID,
				CommunityID: communityID,
			})
			if err != nil {
				http.Error(w, "Failed to create post", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusCreated)

		case http.MethodGet:
			postID, err := parseID(r.URL.Query().Get("postId"))
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: postID})
			if err != nil {
				http.Error(w, "Failed to get post", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)

		case http.MethodPut:
			var req EditPostRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			postID, err := parseID(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			authorID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			result, err := s.request(s.Engine.GetPostActor(), &actors.EditPostMsg{
				PostID:   postID,
				AuthorID: authorID,
				Title:    req.Title,
				Content:  req.Content,
			})
			if err != nil {
				http.Error(w, "Failed to edit post", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)

		case http.MethodDelete:
			postID, err := parseID(r.URL.Query().Get("postId"))
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			requesterID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			result, err := s.request(s.Engine.GetPostActor(), &actors.DeletePostMsg{
				PostID:      postID,
				RequesterID: requesterID,
			})
			if err != nil {
				http.Error(w, "Failed to delete post", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleCommunityPosts returns the posts of one community, newest first
func (s *Server) HandleCommunityPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		communityID, err := parseID(r.URL.Query().Get("communityId"))
		if err != nil {
			http.Error(w, "Invalid community ID", http.StatusBadRequest)
			return
		}

		limit, offset := parsePagination(r)
		result, err := s.request(s.Engine.GetPostActor(), &actors.GetCommunityPostsMsg{
			CommunityID: communityID,
			Limit:       limit,
			Offset:      offset,
		})
		if err != nil {
			http.Error(w, "Failed to get posts", http.StatusInternalServerError)
			return
		}
		s.respond(w, result, http.StatusOK)
	}
}

// HandleRecentPosts returns the newest posts across all communities
func (s *Server) HandleRecentPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit, offset := parsePagination(r)
		result, err := s.request(s.Engine.GetPostActor(), &actors.GetRecentPostsMsg{
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			http.Error(w, "Failed to get posts", http.StatusInternalServerError)
			return
		}
		s.respond(w, result, http.StatusOK)
	}
}

// HandlePostVote casts, swings or removes the authenticated user's vote on
// a post. GET returns the post's live score.
func (s *Server) HandlePostVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			postID, err := parseID(r.URL.Query().Get("postId"))
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}
			result, err := s.request(s.Engine.GetPostActor(), &actors.GetPostScoreMsg{PostID: postID})
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
			PostID   string `json:"postId"`
			IsUpvote bool   `json:"isUpvote"`
			Remove   bool   `json:"remove,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		postID, err := parseID(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
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

		result, err := s.request(s.Engine.GetPostActor(), &actors.VotePostMsg{
			PostID: postID,
			UserID: userID,
			Value:  value,
			Remove: req.Remove,
		})
		if err != nil {
			http.Error(w, "Failed to process vote", http.StatusInternalServerError)
			return
		}
		s.respond(w, result, http.StatusOK)
	}
}
