package websocket

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Sized for base64 audio
	// chunk payloads.
	maxMessageSize = 1024 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the JWT guard on the route.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub     *Hub
	handler EventHandler

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Connection identity. One user may hold several connections.
	id     string
	userID string

	validator *EventValidator
	logger    *zap.Logger
}

// Serve upgrades an authenticated request and starts the client pumps.
func Serve(hub *Hub, handler EventHandler, c echo.Context, userID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       hub,
		handler:   handler,
		conn:      conn,
		send:      make(chan []byte, 256),
		id:        uuid.NewString(),
		userID:    userID,
		validator: NewEventValidator(),
		logger:    logger,
	}

	if hub.metrics != nil {
		hub.metrics.ActiveConnections.Inc()
	}

	// All work happens in the pump goroutines so the caller's memory
	// can be collected.
	go client.writePump()
	go client.readPump()

	return nil
}

// UserID returns the authenticated user behind this connection.
func (c *Client) UserID() string {
	return c.userID
}

// SendEvent marshals an event and queues it for delivery. A slow
// consumer whose buffer is full loses the event; store reads on page
// load are the recovery path for missed history.
func (c *Client) SendEvent(event interface{}) {
	payload, ok := c.hub.marshal(event)
	if !ok {
		return
	}

	select {
	case c.send <- payload:
	default:
		c.logger.Warn("Dropping event for slow consumer",
			zap.String("connID", c.id),
			zap.String("userID", c.userID))
	}
}

// readPump pumps messages from the websocket connection to the event
// handler. Malformed payloads produce an error event to this sender
// only and cause no state change.
func (c *Client) readPump() {
	defer func() {
		c.hub.LeaveAll(c)
		c.conn.Close()
		if c.hub.metrics != nil {
			c.hub.metrics.ActiveConnections.Dec()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn("Ignoring non-text message", zap.Int("type", messageType))
			continue
		}

		event, err := c.validator.ValidateEvent(message)
		if err != nil {
			if c.hub.metrics != nil {
				c.hub.metrics.EventsRejected.Inc()
			}
			c.logger.Warn("Rejected inbound event",
				zap.String("userID", c.userID),
				zap.Error(err))
			c.SendEvent(NewErrorEvent(err.Error()))
			continue
		}

		c.handler.HandleEvent(c, event)
	}
}

// writePump pumps messages from the send channel to the websocket
// connection and keeps the connection alive with pings.
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
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
