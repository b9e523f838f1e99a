package realtime

import "time"

// Scope names the resource family an event belongs to. Clients
// subscribe to (scope, id) pairs and receive only matching events.
type Scope string

const (
	ScopeWorkspace Scope = "workspace"
	ScopeProject   Scope = "project"
	ScopeChannel   Scope = "channel"
	ScopeDM        Scope = "dm"
	ScopeUser      Scope = "user"

	// ScopePresence events go to every connected client; the ScopeID is
	// the user whose presence changed.
	ScopePresence Scope = "presence"
)

// Event is a change notification pushed to subscribed clients.
type Event struct {
	Type       string    `json:"type"`
	Scope      Scope     `json:"scope"`
	ScopeID    string    `json:"scope_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	Payload    any       `json:"payload,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	SequenceID int64     `json:"sequence_id"`
}

// Subscription identifies one (scope, id) pair a client listens on.
type Subscription struct {
	Scope Scope  `json:"scope"`
	ID    string `json:"id"`
}

// ClientMessage is what a connected client may send upstream.
type ClientMessage struct {
	Type      string        `json:"type"` // "subscribe", "unsubscribe", "typing", "pong"
	Subscribe *Subscription `json:"subscribe,omitempty"`
	Typing    *Subscription `json:"typing,omitempty"`
}

// ServerMessage wraps events and control frames on the wire.
type ServerMessage struct {
	Type  string `json:"type"` // "event", "ping"
	Event *Event `json:"event,omitempty"`
}

// Publisher is the send side of the hub. Controllers publish through
// this so tests can run without a live hub.
type Publisher interface {
	Publish(event Event)
}
