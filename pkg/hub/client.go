package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait is how long to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames. Sized for a full PCM
	// capture frame with headroom.
	maxMessageSize = 64 * 1024
)

// BinaryFunc receives inbound binary frames from a client. Used by the
// microphone stream to feed captured PCM into the console source.
type BinaryFunc func(data []byte)

// Client is a single websocket connection attached to a hub.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	onBinary BinaryFunc
}

// ClientOption configures a client at registration time.
type ClientOption func(*Client)

// WithBinaryHandler delivers inbound binary frames to fn. Without it,
// inbound frames are read and discarded to keep the connection alive.
func WithBinaryHandler(fn BinaryFunc) ClientOption {
	return func(c *Client) {
		c.onBinary = fn
	}
}

// NewClient creates a client and registers it with the hub.
func NewClient(h *Hub, conn *websocket.Conn, opts ...ClientOption) *Client {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan Message, 256),
	}
	for _, opt := range opts {
		opt(client)
	}
	// A stopped hub no longer services registration; the client then
	// runs unattached and its pumps exit on their own.
	select {
	case h.register <- client:
	case <-h.done:
	}
	return client
}

func (c *Client) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// Run starts the write pump and blocks in the read pump until the
// connection closes. Call it from the websocket handler.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.detach()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType == websocket.BinaryMessage && c.onBinary != nil {
			c.onBinary(data)
		}
	}
}

// writePump is the only goroutine that writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			wsType := websocket.TextMessage
			if message.Type == BinaryMessage {
				wsType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(wsType, message.Data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
