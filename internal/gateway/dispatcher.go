package gateway

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cory-johannsen/treasurehunt/internal/game/board"
	"github.com/cory-johannsen/treasurehunt/internal/game/hunt"
	"github.com/cory-johannsen/treasurehunt/internal/game/session"
)

// Rooms is the subset of room.Manager the Dispatcher drives.
type Rooms interface {
	Admit(connID string) (string, error)
	Depart(connID string) error
	StartPosition(connID string, c board.Coordinate) error
	Dig(connID string, c board.Coordinate) error
}

// RateLimit bounds how often one connection may submit intents.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

// Replies sent for rejected input.
const (
	ReplySlowDown       = "Slow down!"
	ReplyInvalidRequest = "Invalid request."
)

// Dispatcher is the single entry point transports use to drive the game.
// It is safe for concurrent use.
type Dispatcher struct {
	hub    *Hub
	rooms  Rooms
	limit  RateLimit
	logger *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewDispatcher creates a Dispatcher. A zero PerSecond disables rate limiting.
//
// Precondition: hub, rooms, and logger must be non-nil.
func NewDispatcher(hub *Hub, rooms Rooms, limit RateLimit, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		hub:      hub,
		rooms:    rooms,
		limit:    limit,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Hub returns the Hub events are delivered through.
func (d *Dispatcher) Hub() *Hub {
	return d.hub
}

// Connect registers a new connection and admits it into a session.
//
// Postcondition: on success the returned entity already holds the join
// notifications; the caller must eventually call Disconnect.
func (d *Dispatcher) Connect(ctx context.Context) (string, *session.BridgeEntity, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	id, ent := d.hub.Register()
	if d.limit.PerSecond > 0 {
		d.mu.Lock()
		d.limiters[id] = rate.NewLimiter(rate.Limit(d.limit.PerSecond), max(d.limit.Burst, 1))
		d.mu.Unlock()
	}

	name, err := d.rooms.Admit(id)
	if err != nil {
		d.forget(id)
		d.hub.Unregister(id)
		return "", nil, fmt.Errorf("admitting connection: %w", err)
	}
	d.logger.Info("connection admitted", zap.String("conn", id), zap.String("session", name))
	return id, ent, nil
}

// Handle applies a decoded intent from connID.
func (d *Dispatcher) Handle(connID string, in Intent) error {
	if !d.allow(connID) {
		d.hub.SendTo(connID, hunt.EventMsg, ReplySlowDown)
		return nil
	}
	switch in.Name {
	case IntentStartPos:
		return d.rooms.StartPosition(connID, in.Target)
	case IntentClientDig:
		return d.rooms.Dig(connID, in.Target)
	default:
		return d.Reject(connID, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Name))
	}
}

// Reject answers undecodable input from connID without touching game state.
func (d *Dispatcher) Reject(connID string, err error) error {
	d.logger.Debug("request rejected", zap.String("conn", connID), zap.Error(err))
	d.hub.SendTo(connID, hunt.EventMsg, ReplyInvalidRequest)
	return nil
}

// Disconnect removes connID from its session and releases its queue.
func (d *Dispatcher) Disconnect(connID string) {
	if err := d.rooms.Depart(connID); err != nil {
		d.logger.Warn("depart failed", zap.String("conn", connID), zap.Error(err))
	}
	d.forget(connID)
	d.hub.Unregister(connID)
	d.logger.Info("connection closed", zap.String("conn", connID))
}

func (d *Dispatcher) allow(connID string) bool {
	d.mu.Lock()
	lim := d.limiters[connID]
	d.mu.Unlock()
	return lim == nil || lim.Allow()
}

func (d *Dispatcher) forget(connID string) {
	d.mu.Lock()
	delete(d.limiters, connID)
	d.mu.Unlock()
}
