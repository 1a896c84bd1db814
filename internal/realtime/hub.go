package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

type Client struct {
	ID     string
	UserID uuid.UUID
	Conn   *WebSocketConn
	Send   chan []byte
}

// Hub tracks connected clients keyed by user so pushes to one user reach all
// of that user's open connections.
type Hub struct {
	byUser     map[uuid.UUID]map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		byUser:     make(map[uuid.UUID]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// SendToUser pushes a JSON payload to every open connection of one user.
// A full send buffer skips that connection instead of blocking the caller.
func (h *Hub) SendToUser(userID uuid.UUID, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("realtime: marshal push payload: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.byUser[userID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// SendToPair pushes the same payload to both parties of a conversation.
func (h *Hub) SendToPair(a, b uuid.UUID, data interface{}) {
	h.SendToUser(a, data)
	h.SendToUser(b, data)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.byUser[client.UserID] == nil {
				h.byUser[client.UserID] = make(map[string]*Client)
			}
			h.byUser[client.UserID][client.ID] = client
			h.mu.Unlock()
			log.Printf("realtime: client registered %s (user %s)", client.ID, client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.byUser[client.UserID]; ok {
				if old, ok := conns[client.ID]; ok {
					delete(conns, client.ID)
					close(old.Send)
				}
				if len(conns) == 0 {
					delete(h.byUser, client.UserID)
				}
			}
			h.mu.Unlock()
			log.Printf("realtime: client unregistered %s", client.ID)
		}
	}
}
