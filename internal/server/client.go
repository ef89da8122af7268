package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 8
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	log       logrus.FieldLogger
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, log logrus.FieldLogger) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  log.WithField("remoteAddr", conn.RemoteAddr().String()),
	}
}

func (c *Client) remoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// close unregisters the client and closes the connection exactly once.
func (c *Client) close(ctx context.Context) {
	c.closeOnce.Do(func() {
		c.log.Debug("closing client connection")
		select {
		case c.hub.unregister <- c:
		case <-ctx.Done():
		}
		if err := c.conn.Close(); err != nil {
			// This error is expected if the other end has already hung up.
			c.log.WithError(err).Debug("error while closing client connection")
		}
	})
}

// readPump is responsible for detecting a dead connection via read deadlines.
// Clients are not expected to send anything but control frames.
func (c *Client) readPump(ctx context.Context) {
	defer c.close(ctx)

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set initial read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.log.WithError(err).Debug("client read error, triggering disconnect")
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close(ctx)
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
				return
			}
			if !ok {
				c.log.Debug("hub closed channel, closing connection")
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Warn("client write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("client ping failed")
				return
			}
		}
	}
}
