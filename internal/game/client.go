package game

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	// drawings arrive as data URLs, so the read limit is generous
	maxMessageSize = 1 << 20
)

// Client is one websocket connection. It implements Channel for the
// player currently bound to it; delivery is best effort and a full send
// buffer drops the message.
type Client struct {
	id         string
	conn       *websocket.Conn
	gameServer *GameServer
	log        *log.Logger
	send       chan *ServerMessage
	stop       chan struct{}
}

func NewClient(id string, conn *websocket.Conn, gs *GameServer, l *log.Logger) *Client {
	return &Client{
		id:         id,
		conn:       conn,
		gameServer: gs,
		log:        l,
		send:       make(chan *ServerMessage, 256),
		stop:       make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Queue enqueues a message for the write pump, reporting whether it was
// accepted.
func (c *Client) Queue(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("send buffer full on connection %q", c.id)
		return false
	}

	return true
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("write exiting for connection %q", c.id)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Printf("read exiting for connection %q", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			continue
		}

		if msg.Answer != nil {
			c.gameServer.SubmitAnswer(msg.Answer.PlayerId, msg.Answer.Value)
		}
	}
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) cleanup() {
	c.gameServer.Disconnect(c.id)
	close(c.stop)
}
