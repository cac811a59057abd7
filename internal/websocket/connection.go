package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Sender is the delivery-side view of a connection. Broadcast components
// depend on this interface so tests can substitute in-memory recipients.
type Sender interface {
	ID() string
	SendRaw(data []byte) error
}

// Connection wraps a gorilla WebSocket connection with a single-writer
// goroutine. All outbound traffic goes through the buffered send channel;
// concurrent writers never touch the underlying socket directly.
//
// The connection ID is assigned at upgrade time. The user ID is bound later
// by the join event and may be cleared again by leave.
type Connection struct {
	id           string
	conn         *websocket.Conn
	writeCh      chan []byte
	writeTimeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu     sync.RWMutex
	userID string
}

// NewConnection wraps conn and starts its writer goroutine. sendBuffer is
// the outbound queue length; a full queue fails the send for that recipient
// without blocking the broadcaster.
func NewConnection(conn *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *Connection {
	if sendBuffer <= 0 {
		sendBuffer = 100
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.New().String(),
		conn:         conn,
		writeCh:      make(chan []byte, sendBuffer),
		writeTimeout: writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	go c.writeLoop()
	return c
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// ID returns the opaque connection identifier.
func (c *Connection) ID() string {
	return c.id
}

// BindUser associates the connection with a user after a join event.
func (c *Connection) BindUser(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// ClearUser drops the user association on a leave event.
func (c *Connection) ClearUser() {
	c.mu.Lock()
	c.userID = ""
	c.mu.Unlock()
}

// UserID returns the bound user, or "" before join.
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// SendRaw enqueues pre-encoded frame bytes. It never blocks: a closed
// connection or a full buffer fails immediately so one stalled recipient
// cannot hold up a broadcast.
func (c *Connection) SendRaw(data []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// SendEvent encodes and enqueues a single event for this connection.
func (c *Connection) SendEvent(event string, payload interface{}) error {
	data, err := Encode(event, payload)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

// ReadMessage returns the next text frame. Non-text frames are skipped.
func (c *Connection) ReadMessage() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}

// RefreshReadDeadline extends the read deadline, called on connect and from
// the pong handler.
func (c *Connection) RefreshReadDeadline(d time.Duration) error {
	return c.conn.SetReadDeadline(time.Now().Add(d))
}

// OnPong installs the heartbeat pong handler.
func (c *Connection) OnPong(fn func()) {
	c.conn.SetPongHandler(func(string) error {
		fn()
		return nil
	})
}

// Ping sends a control ping with the given write deadline.
func (c *Connection) Ping(deadline time.Duration) error {
	return c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(deadline))
}

// Done exposes the connection's lifetime for goroutines tied to it.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close tears down the writer goroutine and the underlying socket. Safe to
// call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}
