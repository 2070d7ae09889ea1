package ws

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Connection wraps a gorilla websocket connection. Writes are serialized;
// reads must come from a single goroutine.
type Connection struct {
	id         string
	socket     *websocket.Conn
	mu         sync.Mutex
	closed     atomic.Bool
	lastActive atomic.Int64
}

// NewConnection creates a tracked websocket connection.
func NewConnection(id string, socket *websocket.Conn) *Connection {
	conn := &Connection{
		id:     id,
		socket: socket,
	}
	conn.touch()
	return conn
}

// WriteMessage sends a message, failing if it cannot be written within
// timeout. A zero timeout means no deadline.
func (c *Connection) WriteMessage(messageType int, data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("connection %s already closed", c.id)
	}

	if err := c.socket.SetWriteDeadline(deadline(timeout)); err != nil {
		return err
	}
	if err := c.socket.WriteMessage(messageType, data); err != nil {
		return err
	}

	c.touch()
	return nil
}

// Ping sends a ping control frame.
func (c *Connection) Ping(timeout time.Duration) error {
	if c.closed.Load() {
		return fmt.Errorf("connection %s already closed", c.id)
	}
	return c.socket.WriteControl(websocket.PingMessage, nil, deadline(timeout))
}

// ReadMessage receives a message from the client.
func (c *Connection) ReadMessage() (int, []byte, error) {
	messageType, payload, err := c.socket.ReadMessage()
	if err == nil {
		c.touch()
	}
	return messageType, payload, err
}

// ExtendReadDeadline pushes the read deadline timeout into the future.
func (c *Connection) ExtendReadDeadline(timeout time.Duration) error {
	return c.socket.SetReadDeadline(deadline(timeout))
}

// OnPong registers fn to run for every pong received.
func (c *Connection) OnPong(fn func()) {
	c.socket.SetPongHandler(func(string) error {
		c.touch()
		fn()
		return nil
	})
}

// CloseWithCode sends a close frame carrying code and text, then closes the
// socket. Only the first call has any effect.
func (c *Connection) CloseWithCode(code int, text string, timeout time.Duration) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = c.socket.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline(timeout))
	return c.socket.Close()
}

// Close terminates the underlying websocket connection.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.socket.Close()
}

// ID returns the session identifier.
func (c *Connection) ID() string {
	return c.id
}

// IsStale reports whether nothing was read, written or ponged within timeout.
func (c *Connection) IsStale(timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return time.Since(time.Unix(0, c.lastActive.Load())) > timeout
}

func (c *Connection) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}

func deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}
