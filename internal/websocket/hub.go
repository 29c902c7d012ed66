// internal/websocket/hub.go
package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"vitalsd/internal/vitals"
)

// Hub maintains the set of active dashboard clients and fans messages
// out to them. Messages are typed envelopes: {"type": ..., "payload": ...}.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		log:        logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("websocket client registered", zap.String("remote", client.Conn.RemoteAddr().String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			h.log.Debug("websocket client unregistered", zap.String("remote", client.Conn.RemoteAddr().String()))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Client blocked or gone, drop it.
					h.log.Debug("websocket client send buffer full, removing",
						zap.String("remote", client.Conn.RemoteAddr().String()))
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// RegisterClient safely registers a new client with the hub.
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) send(kind string, payload interface{}) {
	messageBytes, err := json.Marshal(map[string]interface{}{"type": kind, "payload": payload})
	if err != nil {
		h.log.Error("marshal broadcast message", zap.String("type", kind), zap.Error(err))
		return
	}
	h.broadcast <- messageBytes
}

// BroadcastReading pushes a newly persisted reading to all clients.
func (h *Hub) BroadcastReading(r vitals.Reading) {
	h.send("reading", r)
}

// BroadcastAlert pushes a threshold alert to all clients.
func (h *Hub) BroadcastAlert(a vitals.Alert) {
	h.send("alert", a)
}
