package notify

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second
)

// Client represents a single lobby WebSocket connection
type Client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
}

func NewClient(userID uuid.UUID, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, 64),
	}
}

// Send queues raw bytes for this client; full buffers drop the event
func (c *Client) Send(message ServerMessage) {
	data, err := marshalMessage(message)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump drains the connection to detect disconnects. Lobby clients
// never send application messages; everything arrives via REST.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump pushes hub events and keepalive pings to the connection
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
