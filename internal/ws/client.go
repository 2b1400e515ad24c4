package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// Client wraps one websocket connection. The push channels are
// server-to-client only; inbound frames beyond pings are discarded.
type Client struct {
	hub     *Hub
	channel string
	conn    *websocket.Conn
	send    chan []byte
}

func NewClient(hub *Hub, channel string, conn *websocket.Conn) *Client {
	return &Client{
		hub:     hub,
		channel: channel,
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
	}
}

// Start registers the client and runs its pumps. It returns immediately;
// the pumps own the connection from here.
func (c *Client) Start() {
	c.hub.Register(c.channel, c)
	go c.writePump()
	go c.readPump()
}

// readPump exists to notice the peer going away and to answer pings.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c.channel, c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
