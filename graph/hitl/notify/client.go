package notify

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Client pumps one Hub Subscription's Events onto a WebSocket connection.
type Client struct {
	conn *websocket.Conn
	sub  *Subscription
}

// NewClient subscribes to hub for runID and wraps conn to deliver that
// run's Events to it. Callers must invoke writePump/readPump in goroutines
// (Handler does this for incoming HTTP upgrades).
func NewClient(hub *Hub, conn *websocket.Conn, runID string) *Client {
	return &Client{conn: conn, sub: hub.Subscribe(runID)}
}

// writePump delivers queued events to the connection and pings on idle so
// intermediaries keep the connection open.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.sub.Events:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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

// readPump discards client frames but keeps the read deadline alive via
// pong handling, so idle dashboard connections aren't reaped.
func (c *Client) readPump() {
	defer func() {
		c.sub.Unsubscribe()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
