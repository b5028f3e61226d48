package live

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WriteTimeout bounds a single websocket write.
const WriteTimeout = 5 * time.Second

// Client is a websocket Subscriber.
type Client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
	once sync.Once
}

// NewClient wraps conn with a fresh connection ID.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{id: uuid.NewString(), conn: conn}
}

// ID returns the connection ID.
func (c *Client) ID() string { return c.id }

// Send writes a text frame. It blocks for at most WriteTimeout.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Ping writes a ping control frame. WriteControl may run concurrently with
// Send.
func (c *Client) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteTimeout))
}

// Close sends a close frame and closes the connection once.
func (c *Client) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}
