// Package realtime pushes live content events to connected websocket clients.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event kinds pushed to subscribers.
const (
	EventPostCreated    = "post_created"
	EventCommentCreated = "comment_created"
	EventPostDeleted    = "post_deleted"
	EventCommentDeleted = "comment_deleted"
	EventVoteCast       = "vote_cast"
)

// Event is the wire format for a realtime notification.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// directMessage targets a single user's connections.
type directMessage struct {
	TargetUserID primitive.ObjectID
	Payload      []byte
}

// Hub maintains the set of active clients and fans events out to them. A
// user may hold several connections at once.
type Hub struct {
	Clients map[primitive.ObjectID]map[*Client]bool

	Broadcast  chan []byte
	sendDirect chan *directMessage
	Register   chan *Client
	Unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 64),
		sendDirect: make(chan *directMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[primitive.ObjectID]map[*Client]bool),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("Realtime hub started")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; !ok {
				h.Clients[client.UserID] = make(map[*Client]bool)
			}
			h.Clients[client.UserID][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UserID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.Clients, client.UserID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.RLock()
			for _, userClients := range h.Clients {
				for client := range userClients {
					select {
					case client.Send <- message:
					default:
						log.Printf("Broadcast send buffer full for client of user %s", client.UserID.Hex())
					}
				}
			}
			h.mu.RUnlock()

		case dm := <-h.sendDirect:
			h.mu.RLock()
			for client := range h.Clients[dm.TargetUserID] {
				select {
				case client.Send <- dm.Payload:
				default:
					log.Printf("Send channel full for client of user %s, event dropped", client.UserID.Hex())
				}
			}
			h.mu.RUnlock()
		}
	}
}

// PublishEvent serializes an event and queues it for broadcast to every
// connected client. Events are dropped if the hub's queue is saturated;
// delivery is best effort.
func (h *Hub) PublishEvent(eventType string, payload interface{}) {
	data, err := json.Marshal(&Event{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}
	select {
	case h.Broadcast <- data:
	default:
		log.Printf("Hub broadcast queue full, dropping %s event", eventType)
	}
}

// NotifyUser sends an event to one user's connections only.
func (h *Hub) NotifyUser(userID primitive.ObjectID, eventType string, payload interface{}) {
	data, err := json.Marshal(&Event{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}
	select {
	case h.sendDirect <- &directMessage{TargetUserID: userID, Payload: data}:
	case <-time.After(time.Second):
		log.Printf("Timeout queuing %s event for user %s", eventType, userID.Hex())
	}
}
