package session

import (
	"fmt"
	"sync"
)

// Event is one outbound message addressed to a connection.
type Event struct {
	Name    string
	Payload any
}

// BridgeEntity routes events for one connection to a Go channel, bridging
// the game core to whichever transport owns the connection.
type BridgeEntity struct {
	uid    string
	events chan Event
	mu     sync.Mutex
	closed bool
}

// NewBridgeEntity creates a BridgeEntity for the given connection identity.
//
// Precondition: uid must be non-empty.
// Postcondition: Returns a BridgeEntity with an open events channel.
func NewBridgeEntity(uid string, bufferSize int) *BridgeEntity {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &BridgeEntity{
		uid:    uid,
		events: make(chan Event, bufferSize),
	}
}

// UID returns the connection identity.
func (e *BridgeEntity) UID() string {
	return e.uid
}

// Push enqueues evt without blocking.
//
// Postcondition: evt is enqueued, or an error is returned if the entity is
// closed or its buffer is full.
func (e *BridgeEntity) Push(evt Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("entity %s is closed", e.uid)
	}
	select {
	case e.events <- evt:
		return nil
	default:
		return fmt.Errorf("entity %s event buffer full", e.uid)
	}
}

// Events returns the read-only events channel drained by the transport writer.
func (e *BridgeEntity) Events() <-chan Event {
	return e.events
}

// Close marks the entity as closed and closes the events channel.
// Close is idempotent.
func (e *BridgeEntity) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

// IsClosed reports whether the entity has been closed.
func (e *BridgeEntity) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
