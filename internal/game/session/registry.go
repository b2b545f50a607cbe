// Package session tracks which game session each connection belongs to and
// carries the per-connection outbound event queue.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrAlreadyRegistered is returned when a connection is already mapped to a session.
	ErrAlreadyRegistered = errors.New("connection already registered")
	// ErrNotRegistered is returned when a connection has no session.
	ErrNotRegistered = errors.New("connection not registered")
)

// Registry maps connection identities to session names.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]string          // connID → session name
	members  map[string]map[string]bool // session name → set of connIDs
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]string),
		members:  make(map[string]map[string]bool),
	}
}

// Register maps connID to sessionName.
//
// Precondition: connID and sessionName must be non-empty.
// Postcondition: Lookup(connID) returns sessionName, or ErrAlreadyRegistered
// is returned and the registry is unchanged.
func (r *Registry) Register(connID, sessionName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[connID]; ok {
		return fmt.Errorf("%w: %s in %s", ErrAlreadyRegistered, connID, existing)
	}
	r.sessions[connID] = sessionName
	if r.members[sessionName] == nil {
		r.members[sessionName] = make(map[string]bool)
	}
	r.members[sessionName][connID] = true
	return nil
}

// Unregister removes connID and returns the session it belonged to.
func (r *Registry) Unregister(connID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.sessions[connID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, connID)
	}
	delete(r.sessions, connID)
	if ms, ok := r.members[name]; ok {
		delete(ms, connID)
		if len(ms) == 0 {
			delete(r.members, name)
		}
	}
	return name, nil
}

// Lookup returns the session name for connID.
//
// Postcondition: Returns (name, true) if registered, or ("", false) otherwise.
func (r *Registry) Lookup(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.sessions[connID]
	return name, ok
}

// Members returns the sorted connection identities registered to sessionName.
func (r *Registry) Members(sessionName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ms, ok := r.members[sessionName]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(ms))
	for id := range ms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
