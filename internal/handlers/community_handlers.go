package handlers

import (
	"encoding/json"
	"net/http"

	"marshlink/internal/engine/actors"
	"marshlink/internal/middleware"
)

// CreateCommunityRequest represents a request to create a new community
type CreateCommunityRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rules       []string `json:"rules,omitempty"`
}

// HandleCommunities handles community creation and lookup
func (s *Server) HandleCommunities() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req CreateCommunityRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			if req.Name == "" {
				http.Error(w, "Name is required", http.StatusBadRequest)
				return
			}

			creatorID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			result, err := s.request(s.Engine.GetCommunityActor(), &actors.CreateCommunityMsg{
				Name:        req.Name,
				Description: req.Description,
				CreatorID:   creatorID,
				Rules:       req.Rules,
			})
			if err != nil {
				http.Error(w, "Failed to create community", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusCreated)

		case http.MethodGet:
			if name := r.URL.Query().Get("name"); name != "" {
				result, err := s.request(s.Engine.GetCommunityActor(), &actors.GetCommunityMsg{Name: name})
				if err != nil {
					http.Error(w, "Failed to get community", http.StatusInternalServerError)
					return
				}
				s.respond(w, result, http.StatusOK)
				return
			}

			if rawID := r.URL.Query().Get("communityId"); rawID != "" {
				communityID, err := parseID(rawID)
				if err != nil {
					http.Error(w, "Invalid community ID", http.StatusBadRequest)
					return
				}
				result, err := s.request(s.Engine.GetCommunityActor(), &actors.GetCommunityDetailsMsg{CommunityID: communityID})
				if err != nil {
					http.Error(w, "Failed to get community", http.StatusInternalServerError)
					return
				}
				s.respond(w, result, http.StatusOK)
				return
			}

			result, err := s.request(s.Engine.GetCommunityActor(), &actors.ListCommunitiesMsg{})
			if err != nil {
				http.Error(w, "Failed to list communities", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)

		case http.MethodPut:
			var req struct {
				CommunityID string   `json:"communityId"`
				Description string   `json:"description,omitempty"`
				Rules       []string `json:"rules,omitempty"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			communityID, err := parseID(req.CommunityID)
			if err != nil {
				http.Error(w, "Invalid community ID", http.StatusBadRequest)
				return
			}
			requesterID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			result, err := s.request(s.Engine.GetCommunityActor(), &actors.UpdateCommunityMsg{
				CommunityID: communityID,
				RequesterID: requesterID,
				Description: req.Description,
				Rules:       req.Rules,
			})
			if err != nil {
				http.Error(w, "Failed to update community", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)

		case http.MethodDelete:
			communityID, err := parseID(r.URL.Query().Get("communityId"))
			if err != nil {
				http.Error(w, "Invalid community ID", http.StatusBadRequest)
				return
			}
			requesterID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			result, err := s.request(s.Engine.GetCommunityActor(), &actors.DeleteCommunityMsg{
				CommunityID: communityID,
				RequesterID: requesterID,
			})
			if err != nil {
				http.Error(w, "Failed to delete community", http.StatusInternalServerError)
				return
			}
			s.respond(w, result, http.StatusOK)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleCommunityMembers returns the member IDs of a community
func (s *Server) HandleCommunityMembers() http.HandlerFunc {
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

		result, err := s.request(s.Engine.GetCommunityActor(), &actors.GetCommunityMembersMsg{CommunityID: communityID})
		if err != nil {
			http.Error(w, "Failed to get members", http.StatusInternalServerError)
			return
		}
		s.respond(w, result, http.StatusOK)
	}
}

// HandleCommunityMembership joins or leaves a community for the
// authenticated user
func (s *Server) HandleCommunityMembership() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CommunityID string `json:"communityId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		communityID, err := parseID(req.CommunityID)
		if err != nil {
			http.Error(w, "Invalid community ID", http.StatusBadRequest)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		var msg interface{}
		switch r.Method {
		case http.MethodPost:
			msg = &actors.JoinCommunityMsg{CommunityID: communityID, UserID: userID}
		case http.MethodDelete:
			msg = &actors.LeaveCommunityMsg{CommunityID: communityID, UserID: userID}
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result, err := s.request(s.Engine.GetCommunityActor(), msg)
		if err != nil {
			http.Error(w, "Failed to update membership", http.StatusInternalServerError)
			return
		}
		s.respond(w, result, http.StatusOK)
	}
}
