package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

const (
	closeNormal    = websocket.CloseNormalClosure
	closeGoingAway = websocket.CloseGoingAway
	closeSlow      = websocket.ClosePolicyViolation
)

// Client is one WebSocket connection. readPump is the only reader and
// writePump the only writer of conn.
type Client struct {
	id     string
	userID string
	role   entity.Role
	hub    *Hub
	conn   *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closeCode int

	// guarded by hub.mu
	rooms map[string]struct{}
}

func newClient(h *Hub, conn *websocket.Conn, userID string, role entity.Role) *Client {
	return &Client{
		id:        uuid.NewString(),
		userID:    userID,
		role:      role,
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, h.opts.SendBuffer),
		done:      make(chan struct{}),
		closeCode: closeNormal,
		rooms:     map[string]struct{}{},
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// enqueue never blocks. A client whose buffer is full is disconnected.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		c.hub.delivered.Add(1)
		return true
	default:
		c.hub.evicted.Add(1)
		c.hub.logger.WithField("user_id", c.userID).WithField("conn_id", c.id).Warn("realtime send buffer full, evicting client")
		c.closeWith(closeSlow)
		return false
	}
}

func (c *Client) emit(event string, data any) {
	frame, err := encode(event, data)
	if err != nil {
		c.hub.logger.WithError(err).WithField("event", event).Error("encode frame failed")
		return
	}
	c.enqueue(frame)
}

func (c *Client) close() { c.closeWith(closeNormal) }

func (c *Client) closeWith(code int) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		close(c.done)
	})
}

func (c *Client) readPump() {
	defer c.hub.Unregister(c)

	opts := c.hub.opts
	c.conn.SetReadLimit(opts.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.hub.logger.WithError(err).WithField("conn_id", c.id).Debug("realtime read failed")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))

		var in inbound
		if err := json.Unmarshal(raw, &in); err != nil || in.Event == "" {
			c.emit(EventError, errorOut{Message: "malformed frame"})
			continue
		}
		c.hub.handle(c, in)
	}
}

func (c *Client) writePump() {
	opts := c.hub.opts
	ticker := time.NewTicker(opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(c.closeCode, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(opts.WriteWait))
			return
		}
	}
}
