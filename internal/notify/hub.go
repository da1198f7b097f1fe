package notify

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Hub fans lobby events out to every client watching one space.
// All state changes go through the Run loop, so no locks are needed.
type Hub struct {
	spaceID uuid.UUID

	// Registered clients (only accessed by the hub goroutine)
	clients map[*Client]bool

	broadcast  chan ServerMessage
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}

	log *slog.Logger
}

func NewHub(spaceID uuid.UUID, log *slog.Logger) *Hub {
	return &Hub{
		spaceID:    spaceID,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan ServerMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		log:        log,
	}
}

// Run is the hub's event loop. Handles all state changes sequentially.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case message := <-h.broadcast:
			h.handleBroadcast(message)

		case <-h.shutdown:
			h.handleShutdown()
			return
		}
	}
}

// Send queues a message for broadcast without blocking the caller
func (h *Hub) Send(message ServerMessage) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("hub broadcast buffer full, dropping event",
			"space_id", h.spaceID,
			"type", message.Type)
	}
}

// Shutdown stops the hub and disconnects every client
func (h *Hub) Shutdown() {
	close(h.shutdown)
}

func (h *Hub) handleRegister(client *Client) {
	h.clients[client] = true

	h.log.Info("lobby client connected",
		"space_id", h.spaceID,
		"user_id", client.userID,
		"total_clients", len(h.clients))

	client.Send(ServerMessage{
		Type: TypeConnectionAck,
		Data: map[string]any{
			"space_id": h.spaceID,
			"user_id":  client.userID,
		},
		Timestamp: time.Now().Unix(),
	})
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		h.log.Info("lobby client disconnected",
			"space_id", h.spaceID,
			"user_id", client.userID,
			"remaining_clients", len(h.clients))
	}
}

func (h *Hub) handleBroadcast(message ServerMessage) {
	message.Timestamp = time.Now().Unix()

	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal lobby event", "error", err)
		return
	}

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client is too slow, disconnect it
			h.log.Warn("lobby client buffer full, disconnecting",
				"user_id", client.userID,
				"space_id", h.spaceID)
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleShutdown() {
	h.log.Info("shutting down lobby hub", "space_id", h.spaceID)

	for client := range h.clients {
		close(client.send)
	}

	h.clients = nil
}
