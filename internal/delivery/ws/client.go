package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/andikafarhan/coretan/internal/config"
	"github.com/andikafarhan/coretan/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a single websocket connection
type Client struct {
	ID      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// NewClient creates a new Client with a generated connection ID
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:      uuid.New().String(),
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		limiter: rate.NewLimiter(domain.DefaultEventsPerSecond, domain.DefaultEventBurst),
	}
}

// ReadPump pumps events from the websocket connection into the router.
// Cursor and in-progress draw events are best-effort: when they are
// rejected the sender is not told, since the next update supersedes
// them anyway. Join, draw-end and clear rejections go back as error
// events.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(config.AppConfig.MaxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		if !c.limiter.Allow() {
			continue
		}

		var env domain.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			continue
		}

		c.route(env)
	}
}

// route decodes one inbound envelope and hands it to the router
func (c *Client) route(env domain.Envelope) {
	router := c.hub.router
	ctx := context.Background()

	switch env.Type {
	case domain.EventJoinRoom:
		var p domain.JoinRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.sendError(ErrInvalidPayload)
			return
		}
		if err := router.Join(ctx, c.ID, p); err != nil {
			c.sendError(err)
		}

	case domain.EventCursorMove:
		var p domain.CursorMovePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		router.CursorMove(c.ID, p)

	case domain.EventDrawStart:
		var p domain.DrawStartPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		router.DrawStart(c.ID, p)

	case domain.EventDrawMove:
		var p domain.DrawMovePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		router.DrawMove(c.ID, p)

	case domain.EventDrawEnd:
		var p domain.DrawEndPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.sendError(ErrInvalidPayload)
			return
		}
		if err := router.DrawEnd(ctx, c.ID, p); err != nil {
			c.sendError(err)
		}

	case domain.EventClearCanvas:
		if err := router.ClearCanvas(ctx, c.ID); err != nil {
			c.sendError(err)
		}
	}
}

// sendError reports a rejected event back to this connection only
func (c *Client) sendError(err error) {
	c.Send(encodeEvent(domain.EventError, domain.ErrorPayload{Message: err.Error()}))
}

// WritePump pumps events from the hub to the websocket connection
func (c *Client) WritePump() {
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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// Send adds a message to the client's send queue
func (c *Client) Send(msg []byte) {
	select {
	case c.send <- msg:
	default:
		// Buffer full
	}
}
