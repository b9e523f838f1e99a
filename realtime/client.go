package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hamrotask/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 90 * time.Second
	pingPeriod = 30 * time.Second
)

// Client is one websocket connection owned by an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan ServerMessage
	userID string

	mu        sync.Mutex
	subs      map[Scope]string
	closeOnce sync.Once
}

// NewClient registers a fresh connection with the hub and starts its
// pumps. The caller hands over the upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	c := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan ServerMessage, 32),
		userID: userID,
		subs:   make(map[Scope]string),
	}
	hub.register(c)
	go c.writePump()
	go c.readPump()
	return c
}

// wants reports whether the event matches one of the client's
// subscriptions. The user's own scope is always implied; presence
// changes go to everyone.
func (c *Client) wants(event Event) bool {
	if event.Scope == ScopeUser {
		return event.ScopeID == c.userID
	}
	if event.Scope == ScopePresence {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[event.Scope] == event.ScopeID
}

// subscribe replaces the client's subscription for that scope. One
// live view per scope keeps fan-out cheap.
func (c *Client) subscribe(sub Subscription) {
	c.mu.Lock()
	c.subs[sub.Scope] = sub.ID
	c.mu.Unlock()
}

func (c *Client) unsubscribe(sub Subscription) {
	c.mu.Lock()
	if c.subs[sub.Scope] == sub.ID {
		delete(c.subs, sub.Scope)
	}
	c.mu.Unlock()
}

// readPump consumes client frames until the connection drops. Control
// messages adjust subscriptions; pong frames refresh the read deadline.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Logger.Debug("websocket read error", "user_id", c.userID, "error", err)
			}
			return
		}
		switch msg.Type {
		case "subscribe":
			if msg.Subscribe != nil {
				c.subscribe(*msg.Subscribe)
			}
		case "unsubscribe":
			if msg.Subscribe != nil {
				c.unsubscribe(*msg.Subscribe)
			}
		case "typing":
			// Relayed, never persisted.
			if msg.Typing != nil {
				c.hub.Publish(Event{
					Type:    "typing",
					Scope:   msg.Typing.Scope,
					ScopeID: msg.Typing.ID,
					ActorID: c.userID,
				})
			}
		case "pong":
			c.conn.SetReadDeadline(time.Now().Add(pongWait))
		}
	}
}

// writePump drains the send queue and keeps the connection alive with
// periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
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
