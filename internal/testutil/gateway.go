// Package testutil provides test helpers: a recording gateway, scripted dice,
// and a Telnet test client.
package testutil

import (
	"sync"
)

// Delivery is one event received by a connection.
type Delivery struct {
	Event   string
	Payload any
}

// RecordingGateway is an in-memory gateway that tracks session membership
// and records every delivery per recipient.
type RecordingGateway struct {
	mu      sync.Mutex
	members map[string][]string
	inbox   map[string][]Delivery
}

// NewRecordingGateway returns an empty RecordingGateway.
func NewRecordingGateway() *RecordingGateway {
	return &RecordingGateway{
		members: make(map[string][]string),
		inbox:   make(map[string][]Delivery),
	}
}

// SendTo records a delivery to connID.
func (g *RecordingGateway) SendTo(connID, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inbox[connID] = append(g.inbox[connID], Delivery{Event: event, Payload: payload})
}

// SendToOthers records a delivery to every member of sessionName but connID.
func (g *RecordingGateway) SendToOthers(connID, sessionName, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members[sessionName] {
		if m != connID {
			g.inbox[m] = append(g.inbox[m], Delivery{Event: event, Payload: payload})
		}
	}
}

// SendToSession records a delivery to every member of sessionName.
func (g *RecordingGateway) SendToSession(sessionName, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members[sessionName] {
		g.inbox[m] = append(g.inbox[m], Delivery{Event: event, Payload: payload})
	}
}

// JoinSession adds connID to sessionName.
func (g *RecordingGateway) JoinSession(connID, sessionName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[sessionName] = append(g.members[sessionName], connID)
}

// LeaveSession removes connID from sessionName.
func (g *RecordingGateway) LeaveSession(connID, sessionName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.members[sessionName]
	for i, m := range ms {
		if m == connID {
			g.members[sessionName] = append(ms[:i], ms[i+1:]...)
			break
		}
	}
}

// Members returns the connections joined to sessionName.
func (g *RecordingGateway) Members(sessionName string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.members[sessionName]...)
}

// Inbox returns every delivery to connID in order.
func (g *RecordingGateway) Inbox(connID string) []Delivery {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Delivery(nil), g.inbox[connID]...)
}

// Events returns the deliveries to connID with the given event name.
func (g *RecordingGateway) Events(connID, event string) []Delivery {
	var out []Delivery
	for _, d := range g.Inbox(connID) {
		if d.Event == event {
			out = append(out, d)
		}
	}
	return out
}

// Last returns the most recent delivery of event to connID.
func (g *RecordingGateway) Last(connID, event string) (Delivery, bool) {
	evts := g.Events(connID, event)
	if len(evts) == 0 {
		return Delivery{}, false
	}
	return evts[len(evts)-1], true
}

// Messages returns the text of every "msg" event delivered to connID.
func (g *RecordingGateway) Messages(connID string) []string {
	var out []string
	for _, d := range g.Events(connID, "msg") {
		if s, ok := d.Payload.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Clear forgets all recorded deliveries but keeps membership.
func (g *RecordingGateway) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inbox = make(map[string][]Delivery)
}
