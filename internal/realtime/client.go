package realtime

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound buffer per connection; a consumer that falls this far behind
	// is treated as dead.
	sendBufferSize = 256
)

// Literal heartbeat frames, independent of the JSON protocol.
var (
	pingFrame = []byte("ping")
	pongFrame = []byte("pong")
)

// wsConn is the slice of *websocket.Conn the client needs, kept as an
// interface so tests can swap in an in-memory connection.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Client is one live socket, owned by this instance from accept to close and
// bound to exactly one user.
type Client struct {
	id     string
	userID uint
	hub    *Hub
	conn   wsConn
	send   chan []byte

	// sendMu orders every enqueue against closeSend. Without it a delivery
	// racing a disconnect could send on the already-closed channel.
	sendMu     sync.Mutex
	sendClosed bool
}

func newClient(hub *Hub, conn wsConn, userID uint) *Client {
	return &Client{
		id:     uuid.New().String(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() uint {
	return c.userID
}

// enqueue hands a payload to the write pump without blocking. It reports
// failure when the client is closed or its buffer is full, which the hub
// treats as a dead connection.
func (c *Client) enqueue(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend shuts the outbound channel exactly once; the write pump then
// sends a close frame and tears the socket down. The channel is only ever
// closed under sendMu, so an in-flight enqueue either lands before the close
// or observes sendClosed.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// readPump consumes inbound frames until the connection dies, then funnels
// the client through the hub's disconnect path.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read failed", "clientID", c.id, "userID", c.userID, "error", err)
			}
			return
		}

		// Literal text heartbeat, outside the JSON protocol.
		if bytes.Equal(bytes.TrimSpace(data), pingFrame) {
			c.enqueue(pongFrame)
			continue
		}

		msg, err := Decode(data)
		if err != nil {
			// A malformed frame never closes the connection.
			slog.Warn("ignoring malformed client frame", "clientID", c.id, "userID", c.userID, "error", err)
			continue
		}

		// The notification stream is server-to-client; inbound frames other
		// than heartbeats carry nothing actionable.
		slog.Debug("ignoring client frame", "clientID", c.id, "userID", c.userID, "type", msg.Type)
	}
}

// writePump serializes all socket writes and keeps the heartbeat going. One
// slow peer only ever blocks its own pump.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("websocket write failed", "clientID", c.id, "userID", c.userID, "error", err)
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
