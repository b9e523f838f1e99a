package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"hamrotask/logging"
)

// Hub fans events out to connected websocket clients. Each client
// carries its own subscription set; events are delivered only to
// clients subscribed to the event's scope, plus the user's own user
// scope which every connection gets implicitly.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	online    map[string]int // userID -> open connection count
	broadcast chan Event
	sequence  atomic.Int64

	shutdownOnce sync.Once
	done         chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		online:    make(map[string]int),
		broadcast: make(chan Event, 256),
		done:      make(chan struct{}),
	}
}

// Run drains the broadcast channel until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-h.done:
			return
		case event := <-h.broadcast:
			event.SequenceID = h.sequence.Add(1)
			h.deliver(event)
		}
	}
}

func (h *Hub) deliver(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(event) {
			continue
		}
		msg := ServerMessage{Type: "event", Event: &event}
		select {
		case c.send <- msg:
		default:
			// Slow consumer, drop rather than block the hub.
			logging.Logger.Warn("client send queue full, event dropped", "user_id", c.userID)
		}
	}
}

// Publish queues an event for delivery. Safe on a nil hub and never
// blocks; when the queue is full the event is dropped.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		logging.Logger.Warn("broadcast queue full, event dropped", "type", event.Type)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.online[c.userID]++
	first := h.online[c.userID] == 1
	total := len(h.clients)
	h.mu.Unlock()

	logging.Logger.Debug("realtime client connected", "user_id", c.userID, "clients", total)
	if first {
		h.Publish(Event{Type: "presence.online", Scope: ScopePresence, ScopeID: c.userID, ActorID: c.userID})
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.online[c.userID]--
	last := h.online[c.userID] == 0
	if last {
		delete(h.online, c.userID)
	}
	total := len(h.clients)
	h.mu.Unlock()

	c.closeOnce.Do(func() { close(c.send) })
	logging.Logger.Debug("realtime client disconnected", "user_id", c.userID, "clients", total)
	if last {
		h.Publish(Event{Type: "presence.offline", Scope: ScopePresence, ScopeID: c.userID, ActorID: c.userID})
	}
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID string) bool {
	if h == nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.online[userID] > 0
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client connection and stops the run loop.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		for c := range h.clients {
			c.conn.Close()
			c.closeOnce.Do(func() { close(c.send) })
		}
		h.clients = make(map[*Client]bool)
		h.online = make(map[string]int)
		h.mu.Unlock()
	})
}
