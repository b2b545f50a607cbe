// Package gateway connects transports to the game core. The Hub addresses
// outbound events to connections and session groups; the Dispatcher turns
// inbound intents into room operations.
package gateway

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/treasurehunt/internal/game/session"
)

// DefaultQueueSize is the per-connection outbound buffer.
const DefaultQueueSize = 128

// Hub implements hunt.Gateway over per-connection BridgeEntity queues.
// Delivery never blocks: an event addressed to a full or closed queue is
// dropped and logged.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]*session.BridgeEntity
	groups    map[string]map[string]struct{}
	queueSize int
	logger    *zap.Logger
}

// NewHub creates an empty Hub. A non-positive queueSize selects
// DefaultQueueSize.
//
// Precondition: logger must be non-nil.
func NewHub(queueSize int, logger *zap.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		conns:     make(map[string]*session.BridgeEntity),
		groups:    make(map[string]map[string]struct{}),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Register issues a fresh connection identity and its outbound queue.
//
// Postcondition: the returned entity is open and addressable by id.
func (h *Hub) Register() (string, *session.BridgeEntity) {
	id := uuid.NewString()
	ent := session.NewBridgeEntity(id, h.queueSize)

	h.mu.Lock()
	h.conns[id] = ent
	h.mu.Unlock()
	return id, ent
}

// Unregister closes id's queue and removes it from every session group.
// Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	ent, ok := h.conns[id]
	delete(h.conns, id)
	for name, members := range h.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
	h.mu.Unlock()

	if ok {
		_ = ent.Close()
	}
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Members returns the connections grouped under sessionName, sorted.
func (h *Hub) Members(sessionName string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.groups[sessionName]))
	for id := range h.groups[sessionName] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SendTo delivers an event to one connection.
func (h *Hub) SendTo(connID, event string, payload any) {
	h.mu.RLock()
	ent := h.conns[connID]
	h.mu.RUnlock()
	h.push(connID, ent, event, payload)
}

// SendToOthers delivers an event to every member of sessionName except connID.
func (h *Hub) SendToOthers(connID, sessionName, event string, payload any) {
	for id, ent := range h.recipients(sessionName) {
		if id != connID {
			h.push(id, ent, event, payload)
		}
	}
}

// SendToSession delivers an event to every member of sessionName.
func (h *Hub) SendToSession(sessionName, event string, payload any) {
	for id, ent := range h.recipients(sessionName) {
		h.push(id, ent, event, payload)
	}
}

// JoinSession adds connID to the sessionName group.
func (h *Hub) JoinSession(connID, sessionName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[sessionName]
	if !ok {
		members = make(map[string]struct{})
		h.groups[sessionName] = members
	}
	members[connID] = struct{}{}
}

// LeaveSession removes connID from the sessionName group.
func (h *Hub) LeaveSession(connID, sessionName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[sessionName]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, sessionName)
	}
}

func (h *Hub) recipients(sessionName string) map[string]*session.BridgeEntity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]*session.BridgeEntity, len(h.groups[sessionName]))
	for id := range h.groups[sessionName] {
		if ent, ok := h.conns[id]; ok {
			out[id] = ent
		}
	}
	return out
}

func (h *Hub) push(connID string, ent *session.BridgeEntity, event string, payload any) {
	if ent == nil {
		h.logger.Debug("event for unknown connection dropped",
			zap.String("conn", connID),
			zap.String("event", event),
		)
		return
	}
	if err := ent.Push(session.Event{Name: event, Payload: payload}); err != nil {
		h.logger.Warn("event dropped",
			zap.String("conn", connID),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
