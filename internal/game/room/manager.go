// Package room matchmakes connections into two-player sessions and routes
// each connection's intents to the session it belongs to.
package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/treasurehunt/internal/game/board"
	"github.com/cory-johannsen/treasurehunt/internal/game/hunt"
	"github.com/cory-johannsen/treasurehunt/internal/game/session"
)

// ErrUnknownConnection is returned when a connection has not been admitted.
var ErrUnknownConnection = errors.New("unknown connection")

// Manager owns every session and the connection registry.
// Matchmaking is serialized by mu; per-session state is serialized by each
// session's own lock. Lock order is always mu before a session lock.
type Manager struct {
	mu       sync.Mutex
	sessions []*hunt.Session // creation order
	byName   map[string]*hunt.Session
	nextID   int

	registry *session.Registry
	gw       hunt.Gateway
	dice     hunt.Dice
	opts     hunt.Options
	logger   *zap.Logger
}

// NewManager creates a Manager with no sessions.
//
// Precondition: gw, d, registry, and logger must be non-nil.
func NewManager(gw hunt.Gateway, d hunt.Dice, opts hunt.Options, registry *session.Registry, logger *zap.Logger) *Manager {
	return &Manager{
		byName:   make(map[string]*hunt.Session),
		registry: registry,
		gw:       gw,
		dice:     d,
		opts:     opts,
		logger:   logger,
	}
}

// Admit places connID in the first session that is still forming, or in a
// new session when none is open, and returns the session name.
//
// Postcondition: on success the registry maps connID to the returned name
// and no session holds more than hunt.MaxPlayers players.
func (m *Manager) Admit(connID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.registry.Lookup(connID); ok {
		return "", fmt.Errorf("admitting %s: %w", connID, session.ErrAlreadyRegistered)
	}

	// A forming session can be emptied by a concurrent Leave between the
	// scan and the join; fall back to a fresh session in that case.
	target := m.findOpenLocked()
	if target == nil || target.Join(connID) != nil {
		target = m.createLocked()
		if err := target.Join(connID); err != nil {
			return "", fmt.Errorf("joining %s: %w", target.Name(), err)
		}
	}

	if err := m.registry.Register(connID, target.Name()); err != nil {
		return "", fmt.Errorf("admitting %s: %w", connID, err)
	}
	return target.Name(), nil
}

func (m *Manager) findOpenLocked() *hunt.Session {
	for _, s := range m.sessions {
		if s.Open() {
			return s
		}
	}
	return nil
}

func (m *Manager) createLocked() *hunt.Session {
	m.nextID++
	name := fmt.Sprintf("room%d", m.nextID)
	s := hunt.NewSession(name, m.gw, m.dice, m.opts, m.logger)
	m.sessions = append(m.sessions, s)
	m.byName[name] = s
	m.logger.Info("session created", zap.String("session", name))
	return s
}

// Depart removes connID from its session and notifies the remaining player.
func (m *Manager) Depart(connID string) error {
	name, err := m.registry.Unregister(connID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	s, ok := m.Session(name)
	if !ok {
		return nil
	}
	if err := s.Leave(connID); err != nil {
		return fmt.Errorf("leaving %s: %w", name, err)
	}
	return nil
}

// StartPosition forwards a start-position intent to connID's session.
func (m *Manager) StartPosition(connID string, c board.Coordinate) error {
	s, err := m.resolve(connID)
	if err != nil {
		return err
	}
	return s.SetStartPosition(connID, c)
}

// Dig forwards a dig intent to connID's session.
func (m *Manager) Dig(connID string, c board.Coordinate) error {
	s, err := m.resolve(connID)
	if err != nil {
		return err
	}
	return s.AttemptMove(connID, c)
}

// Session returns the session with the given name.
func (m *Manager) Session(name string) (*hunt.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byName[name]
	return s, ok
}

// SessionCount returns the number of sessions held.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Snapshot returns a view of every session in creation order.
func (m *Manager) Snapshot() []hunt.Snapshot {
	m.mu.Lock()
	sessions := append([]*hunt.Session(nil), m.sessions...)
	m.mu.Unlock()

	out := make([]hunt.Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// Reap drops finished or emptied sessions that no connection still refers
// to and returns how many were dropped. Session names are never reused.
func (m *Manager) Reap() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.sessions[:0]
	reaped := 0
	for _, s := range m.sessions {
		if s.Reclaimable() && len(m.registry.Members(s.Name())) == 0 {
			delete(m.byName, s.Name())
			reaped++
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(m.sessions); i++ {
		m.sessions[i] = nil
	}
	m.sessions = kept

	if reaped > 0 {
		m.logger.Info("sessions reaped",
			zap.Int("reaped", reaped),
			zap.Int("remaining", len(m.sessions)),
		)
	}
	return reaped
}

// RunReaper calls Reap every interval until ctx is cancelled.
//
// Precondition: interval > 0.
func (m *Manager) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.Reap() == 0 {
				m.logger.Debug("reaper idle", zap.Int("sessions", m.SessionCount()))
			}
		}
	}
}

func (m *Manager) resolve(connID string) (*hunt.Session, error) {
	name, ok := m.registry.Lookup(connID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	s, ok := m.Session(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (session %s reaped)", ErrUnknownConnection, connID, name)
	}
	return s, nil
}
