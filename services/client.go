package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-hall/utils/logger"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	claimWait  = 5 * time.Second
)

// Client is one screen or cashier console connected to a table.
type Client struct {
	conn   *websocket.Conn
	table  *Table
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, table *Table) *Client {
	return &Client{conn: conn, table: table, send: make(chan []byte, 32)}
}

// trySend queues a message without blocking. It reports false when the
// client is closed or its buffer is full.
func (c *Client) trySend(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

type clientMessage struct {
	Action string `json:"action"`
	CardID string `json:"card_id"`
	Auto   bool   `json:"auto"`
}

// --------------------
// Client read/write pumps
// --------------------
func (c *Client) readPump() {
	defer func() {
		c.table.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("[Table %s] screen disconnected normally", c.table.ID)
			} else {
				logger.Debugf("[Table %s] read error: %v", c.table.ID, err)
			}
			return
		}
		c.handle(message)
	}
}

func (c *Client) handle(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Table %s] recovered from panic: %v", c.table.ID, r)
		}
	}()

	var data clientMessage
	if err := json.Unmarshal(msg, &data); err != nil {
		c.notify("invalid message")
		return
	}

	var err error
	switch data.Action {
	case "state":
		state := c.table.State()
		b, _ := json.Marshal(event{Type: "state", Table: c.table.ID, State: &state})
		c.trySend(b)
	case "draw":
		_, err = c.table.Draw()
	case "pause", "stop":
		err = c.table.Pause()
	case "resume":
		err = c.table.Resume(data.Auto)
	case "claim":
		ctx, cancel := context.WithTimeout(context.Background(), claimWait)
		_, err = c.table.Claim(ctx, data.CardID)
		cancel()
	default:
		c.notify("unknown action: " + data.Action)
	}
	if err != nil {
		c.notify(err.Error())
	}
}

func (c *Client) notify(message string) {
	b, _ := json.Marshal(event{Type: "notification", Table: c.table.ID, Message: message})
	c.trySend(b)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debugf("[Table %s] write error: %v", c.table.ID, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
