package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Large enough for a max-length text plus a full attachment list.
	maxMessageSize = 64 * 1024
)

// Client is a middleman between one websocket connection and the gateway.
type Client struct {
	gateway *Gateway

	// The websocket connection.
	Conn *websocket.Conn

	// Id is the registry connection id, assigned on registration.
	Id uuid.UUID

	// UserId associated with this connection.
	UserId uuid.UUID

	// Buffered channel of outbound messages. Never closed: broadcasters
	// holding a stale member snapshot may still send after disconnect, and
	// those frames must be a harmless drop, not a panic.
	Send chan []byte

	// done is closed on disconnect to stop writePump.
	done chan struct{}
}

// readPump pumps inbound frames from the websocket connection to the
// gateway. One goroutine per connection; exiting triggers cleanup.
func (c *Client) readPump() {
	defer func() {
		c.gateway.disconnect(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.gateway.logger.Warn("WebSocket", "Unexpected close", map[string]interface{}{
					"user_id": c.UserId,
					"error":   err,
				})
			}
			break
		}
		c.gateway.handleFrame(c, raw)
	}
}

// writePump pumps outbound frames from the Send channel to the websocket
// connection and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any queued frames into the same write.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
