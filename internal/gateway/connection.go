package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	heartbeatInterval = 41250 * time.Millisecond
	heartbeatTimeout  = 10 * time.Second
	identifyTimeout   = 30 * time.Second
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	maxMessageSize    = 4096
	sendBufferSize    = 256
)

// Connection is one WebSocket client. UserID and SessionID are set once the
// client identifies or resumes.
type Connection struct {
	UserID    string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	manager   *Manager
	sequence  atomic.Int64

	closeOnce sync.Once
	done      chan struct{}

	openedAt      time.Time
	identified    atomic.Bool
	lastHeartbeat atomic.Int64 // unix millis
}

func newConnection(conn *websocket.Conn, manager *Manager) *Connection {
	c := &Connection{
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		manager:  manager,
		done:     make(chan struct{}),
		openedAt: time.Now(),
	}
	c.lastHeartbeat.Store(time.Now().UnixMilli())
	return c
}

// NextSequence increments and returns the next sequence number.
func (c *Connection) NextSequence() int64 {
	return c.sequence.Add(1)
}

// SendPayload queues a payload, dropping it when the client is not keeping up.
func (c *Connection) SendPayload(p GatewayPayload) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Error("marshalling gateway payload", "userID", c.UserID, "error", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		slog.Warn("send buffer full, dropping payload", "userID", c.UserID)
	}
}

// SendEvent sends a dispatch event with the next sequence number.
func (c *Connection) SendEvent(name string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Error("marshalling gateway event", "event", name, "error", err)
		return
	}
	seq := c.NextSequence()
	c.SendPayload(GatewayPayload{
		Op:       OpDispatch,
		Data:     raw,
		Sequence: &seq,
		Event:    &name,
	})
}

// Close terminates the connection. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.Conn.Close()
	})
}

func (c *Connection) readPump() {
	defer func() {
		c.manager.unregister(c)
		c.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("gateway read failed", "userID", c.UserID, "error", err)
			}
			return
		}
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleMessage(message)
	}
}

// writePump drains Send to the socket and enforces the heartbeat and
// identify deadlines.
func (c *Connection) writePump() {
	ticker := time.NewTicker(heartbeatInterval)
	identifyTimer := time.NewTimer(identifyTimeout)
	defer func() {
		ticker.Stop()
		identifyTimer.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-identifyTimer.C:
			if !c.identified.Load() {
				slog.Info("closing connection that never identified", "age", time.Since(c.openedAt))
				return
			}

		case <-ticker.C:
			lastAck := time.UnixMilli(c.lastHeartbeat.Load())
			if time.Since(lastAck) > heartbeatInterval+heartbeatTimeout {
				slog.Warn("heartbeat timeout", "userID", c.UserID)
				return
			}
			c.SendPayload(GatewayPayload{Op: OpHeartbeat})

		case <-c.done:
			return
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	var payload GatewayPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		slog.Warn("invalid gateway payload", "userID", c.UserID, "error", err)
		return
	}

	switch payload.Op {
	case OpHeartbeat:
		c.lastHeartbeat.Store(time.Now().UnixMilli())
		c.SendPayload(GatewayPayload{Op: OpHeartbeatAck})
	case OpIdentify:
		c.manager.handleIdentify(c, payload.Data)
	case OpResume:
		c.manager.handleResume(c, payload.Data)
	}
}
