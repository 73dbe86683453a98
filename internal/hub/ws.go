package hub

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Upgrader is shared across WebSocket event-stream connections. Origin
// checking is deliberately permissive here: this endpoint is LAN-local and
// gated by the same bearer check as the rest of the API surface, grounded
// on the teacher's extension-facing WebSocket endpoint accepting any origin.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSClient wraps one WebSocket event-stream connection, added as a
// DOMAIN STACK consumer kind alongside the spec's named webhook and SSE
// kinds. Writes are synchronous with a 2s deadline; a failed or timed-out
// write detaches the client.
type WSClient struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// NewWSClient upgrades an HTTP request to a WebSocket connection.
func NewWSClient(w http.ResponseWriter, r *http.Request) (*WSClient, error) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &WSClient{conn: conn}, nil
}

func (c *WSClient) send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.closed = true
		c.conn.Close()
		return false
	}
	return true
}

// Close detaches and closes the underlying connection.
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}
