package notify

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Manager owns one hub per space
type Manager struct {
	hubs sync.Map // map[uuid.UUID]*Hub
	log  *slog.Logger
}

func NewManager(log *slog.Logger) *Manager {
	return &Manager{log: log}
}

// GetOrCreateHub returns the existing hub or creates and starts a new one
func (m *Manager) GetOrCreateHub(spaceID uuid.UUID) *Hub {
	if hub, ok := m.hubs.Load(spaceID); ok {
		return hub.(*Hub)
	}

	hub := NewHub(spaceID, m.log)
	actual, loaded := m.hubs.LoadOrStore(spaceID, hub)

	if !loaded {
		go hub.Run()
		m.log.Info("created lobby hub", "space_id", spaceID)
	}

	return actual.(*Hub)
}

// Broadcast sends an event to every client watching the space. A space
// with no open connections drops the event silently.
func (m *Manager) Broadcast(spaceID uuid.UUID, message ServerMessage) {
	if hub, ok := m.hubs.Load(spaceID); ok {
		hub.(*Hub).Send(message)
	}
}

// HandleConnection upgrades an HTTP request to a lobby WebSocket
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request, userID, spaceID uuid.UUID) error {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return err
	}

	hub := m.GetOrCreateHub(spaceID)
	client := NewClient(userID, conn, hub)

	hub.register <- client

	// The request context dies with the handler; pump lifetimes are
	// governed by the connection itself.
	ctx := context.Background()
	go client.writePump(ctx)
	go client.readPump(ctx)

	return nil
}

// Shutdown stops every hub
func (m *Manager) Shutdown() {
	m.hubs.Range(func(key, value any) bool {
		value.(*Hub).Shutdown()
		return true
	})
}
