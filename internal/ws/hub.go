package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"opensentry/internal/logger"
	"opensentry/internal/model"
)

// Hub fans alert events out to connected websocket clients.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHub creates an alert event hub.
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     logger,
	}
}

// Run processes register/unregister/broadcast events until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("Alert feed client connected. Total: %d", h.ClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Info("Alert feed client disconnected. Total: %d", h.ClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending alert to client: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds a client connection to the hub.
func (h *Hub) Register(client *websocket.Conn) {
	h.register <- client
}

// Unregister removes a client connection from the hub.
func (h *Hub) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// BroadcastAlert sends the alert as JSON to every connected client.
// Serialization failures are logged and swallowed.
func (h *Hub) BroadcastAlert(alert model.Alert) {
	message, err := json.Marshal(alert)
	if err != nil {
		h.logger.Error("Error encoding alert event: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warning("Alert feed broadcast queue full - dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
