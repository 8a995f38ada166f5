package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 256 * 1024 // object.create may carry a full surface
	sendBuffer = 256
)

// outbound is an encoded message waiting for the write pump.
type outbound struct {
	typ  string
	data []byte
}

// Client is one websocket connection joined to a scene room.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	UserID      string
	DisplayName string
	SceneID     string
	ClientID    string

	mu     sync.Mutex
	send   chan outbound
	closed bool

	// frames counts queued frame messages. Only the newest one is written.
	frames atomic.Int32
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, sceneID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan outbound, sendBuffer),
		UserID:      userID,
		DisplayName: displayName,
		SceneID:     sceneID,
		ClientID:    clientID,
	}
}

// ReadPump decodes incoming messages until the connection fails, then
// leaves the room.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		var msg Message
		err := wsjson.Read(ctx, c.conn, &msg)
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case err == nil:
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			slog.Warn("invalid message", "error", err, "client", c.ClientID)
			continue
		case closedNormally(err):
			return
		default:
			slog.Debug("read failed", "error", err, "client", c.ClientID)
			return
		}

		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.SceneID = c.SceneID
		c.hub.handleMessage(c, &msg)
	}
}

func closedNormally(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

// WritePump writes queued messages and keeps the connection alive with
// pings. A frame is skipped when a newer frame is already queued.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case out, ok := <-c.send:
			if !ok {
				return
			}
			if out.typ == TypeFrame && c.frames.Add(-1) > 0 {
				continue
			}
			if err := c.write(ctx, out.data); err != nil {
				slog.Debug("write failed", "error", err, "client", c.ClientID, "type", out.typ)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Send queues msg. Messages to a full or closed client are dropped.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err, "type", msg.Type)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- outbound{typ: msg.Type, data: data}:
		if msg.Type == TypeFrame {
			c.frames.Add(1)
		}
	default:
		slog.Warn("send buffer full, dropping message", "client", c.ClientID, "type", msg.Type)
	}
}

// close ends the write pump once queued messages are flushed.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
