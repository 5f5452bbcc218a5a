package handlers

import (
	"log"
	"net/http"

	"marshlink/internal/engine/actors"
	"marshlink/internal/realtime"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS layer; the upgrade itself
	// authenticates via token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the connection and subscribes the authenticated
// user to the live event feed. The token is passed as a query parameter
// because browsers cannot set headers on websocket dials.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		claims, err := s.Auth.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		userID, err := parseID(claims.UserID)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Websocket upgrade failed for user %s: %v", claims.UserID, err)
			return
		}

		client := &realtime.Client{
			Hub:    s.Hub,
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}
		s.Hub.Register <- client

		go client.WritePump()
		go func() {
			// Presence follows the socket: connected while it is open.
			if _, err := s.request(s.Engine.GetUserActor(), &actors.ConnectUserMsg{UserID: userID}); err != nil {
				log.Printf("Failed to mark user %s connected: %v", userID.Hex(), err)
			}
			client.ReadPump()
			if _, err := s.request(s.Engine.GetUserActor(), &actors.DisconnectUserMsg{UserID: userID}); err != nil {
				log.Printf("Failed to mark user %s disconnected: %v", userID.Hex(), err)
			}
		}()
	}
}
