package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"marshlink/internal/engine/actors"
	"marshlink/internal/middleware"
)

// RegisterUserRequest represents a request to create a new account
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the HTTP response for a successful login
type LoginResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleRegister creates a new user account
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			http.Error(w, "Failed to register user", http.StatusInternalServerError)
			return
		}

		s.respond(w, result, http.StatusCreated)
	}
}

// HandleLogin authenticates a user and issues a signed token
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			http.Error(w, "Login failed", http.StatusInternalServerError)
			return
		}

		loginState, ok := result.(*actors.LoginResponse)
		if !ok {
			s.respond(w, result, http.StatusOK)
			return
		}

		if !loginState.Success {
			s.respond(w, &LoginResult{Success: false, Error: loginState.Error}, http.StatusUnauthorized)
			return
		}

		userID, err := parseID(loginState.UserID)
		if err != nil {
			http.Error(w, "Login failed", http.StatusInternalServerError)
			return
		}

		token, err := s.Auth.GenerateToken(userID)
		if err != nil {
			log.Printf("Failed to generate token for user %s: %v", loginState.UserID, err)
			http.Error(w, "Login failed", http.StatusInternalServerError)
			return
		}

		s.respond(w, &LoginResult{
			Success: true,
			Token:   token,
			UserID:  loginState.UserID,
		}, http.StatusOK)
	}
}

// HandleUserProfile returns a user's profile
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rawID := r.URL.Query().Get("userId")
		if rawID == "" {
			// Default to the authenticated user.
			if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
				rawID = id.Hex()
			}
		}
		userID, err := parseID(rawID)
		if err != nil {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: userID})
		if err != nil {
			http.Error(w, "Failed to get profile", http.StatusInternalServerError)
			return
		}

		s.respond(w, result, http.StatusOK)
	}
}
