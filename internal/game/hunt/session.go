// Package hunt implements the turn-based state machine for a single
// two-player treasure hunt.
package hunt

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/treasurehunt/internal/game/board"
	"github.com/cory-johannsen/treasurehunt/internal/game/dice"
)

// MaxPlayers is the number of players in a session.
const MaxPlayers = 2

var (
	// ErrSessionFull is returned by Join when the session cannot accept a player.
	ErrSessionFull = errors.New("session full")
	// ErrNotInSession is returned when a connection is not a player of the session.
	ErrNotInSession = errors.New("connection not in session")
)

// Phase is the position of a session in its lifecycle.
type Phase int

const (
	// Forming: fewer than two players have joined.
	Forming Phase = iota
	// Placing: both players are present and choosing start positions.
	Placing
	// InProgress: turns alternate between the players.
	InProgress
	// Finished: the session is over. Terminal.
	Finished
)

// String returns the upper-case phase name.
func (p Phase) String() string {
	switch p {
	case Forming:
		return "FORMING"
	case Placing:
		return "PLACING"
	case InProgress:
		return "IN_PROGRESS"
	case Finished:
		return "FINISHED"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Dice rolls movement budgets and draws uniform integers.
// *dice.Roller satisfies Dice.
type Dice interface {
	dice.Source
	Roll() int
}

// Options tunes a session's rules.
type Options struct {
	// Rules validates start positions and moves.
	Rules board.Rules
	// WarmDistance is the per-axis width of the warm band.
	WarmDistance int
	// ForfeitOnDeparture finishes a started session when a player leaves,
	// awarding the win to the remaining player.
	ForfeitOnDeparture bool
}

// DefaultOptions returns the standard options.
func DefaultOptions() Options {
	return Options{
		Rules:              board.DefaultRules(),
		WarmDistance:       board.DefaultWarmDistance,
		ForfeitOnDeparture: true,
	}
}

// Player is one occupant of a session.
type Player struct {
	// ID is the connection identity of the player.
	ID string
	// Position is nil until the player chooses a start position.
	Position *board.Coordinate
	// Roll is the current movement budget; zero until rolled.
	Roll int
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	Name    string   `json:"name"`
	Phase   string   `json:"phase"`
	Players []string `json:"players"`
	Active  string   `json:"active,omitempty"`
}

// Session is the authoritative state of one match.
// All methods are safe for concurrent use; every mutation happens under mu.
type Session struct {
	mu       sync.Mutex
	name     string
	players  []*Player
	treasure board.Coordinate
	placed   bool
	active   string
	phase    Phase
	// emptied is set once the last player leaves; an emptied session is
	// never refilled.
	emptied bool

	gw     Gateway
	dice   Dice
	opts   Options
	logger *zap.Logger
}

// NewSession creates an empty session in the Forming phase.
//
// Precondition: name must be non-empty; gw, d, and logger must be non-nil.
func NewSession(name string, gw Gateway, d Dice, opts Options, logger *zap.Logger) *Session {
	return &Session{
		name:   name,
		gw:     gw,
		dice:   d,
		opts:   opts,
		logger: logger.With(zap.String("session", name)),
	}
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.name
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// PlayerCount returns the number of players currently in the session.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Open reports whether the session can accept a new player.
func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked()
}

func (s *Session) openLocked() bool {
	return s.phase == Forming && !s.emptied && len(s.players) < MaxPlayers
}

// Reclaimable reports whether the session is finished or has been emptied
// and may be dropped from the registry.
func (s *Session) Reclaimable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == Finished || s.emptied
}

// ActivePlayer returns the identity of the player whose turn it is, or "".
func (s *Session) ActivePlayer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Treasure returns the hidden treasure location and whether it is placed.
func (s *Session) Treasure() (board.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.treasure, s.placed
}

// Player returns a copy of the player with the given identity.
func (s *Session) Player(connID string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(connID)
	if p == nil {
		return Player{}, false
	}
	cp := *p
	if p.Position != nil {
		pos := *p.Position
		cp.Position = &pos
	}
	return cp, true
}

// Snapshot returns a read-only view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.players))
	for _, p := range s.players {
		ids = append(ids, p.ID)
	}
	return Snapshot{Name: s.name, Phase: s.phase.String(), Players: ids, Active: s.active}
}

// Join adds connID to the session.
//
// Precondition: connID is not already a player of any session.
// Postcondition: on success the player count grew by one; when it reaches
// MaxPlayers the treasure is placed and the phase becomes Placing.
func (s *Session) Join(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.openLocked() {
		return ErrSessionFull
	}

	s.players = append(s.players, &Player{ID: connID})
	s.gw.JoinSession(connID, s.name)

	s.gw.SendTo(connID, EventLogMsg, fmt.Sprintf("You have joined '%s'", s.name))
	s.gw.SendTo(connID, EventLogMsg, fmt.Sprintf("Your ID is %s", connID))
	s.gw.SendToSession(s.name, EventLogMsg, fmt.Sprintf("Player %s has joined the room.", connID))

	s.logger.Info("player joined",
		zap.String("conn", connID),
		zap.Int("players", len(s.players)),
	)

	if len(s.players) < MaxPlayers {
		s.gw.SendTo(connID, EventMsg, "Waiting for an opponent...")
		return nil
	}

	s.placeTreasureLocked()
	s.phase = Placing
	s.gw.SendToSession(s.name, EventMsg, "Select a starting position.")
	return nil
}

// Leave removes connID from the session and notifies the remaining player.
//
// Postcondition: connID is no longer a player. When ForfeitOnDeparture is set
// and the game had started, the session is Finished and the remaining player
// is declared the winner.
func (s *Session) Leave(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(connID)
	if idx < 0 {
		return ErrNotInSession
	}
	s.players = append(s.players[:idx], s.players[idx+1:]...)
	if len(s.players) == 0 {
		s.emptied = true
	}

	s.gw.SendToOthers(connID, s.name, EventMsg, fmt.Sprintf("Player %s has left the room.", connID))
	s.gw.LeaveSession(connID, s.name)

	s.logger.Info("player left",
		zap.String("conn", connID),
		zap.String("phase", s.phase.String()),
		zap.Int("players", len(s.players)),
	)

	started := s.phase == Placing || s.phase == InProgress
	if !started || !s.opts.ForfeitOnDeparture || len(s.players) == 0 {
		return nil
	}

	winner := s.players[0].ID
	s.finishLocked()
	s.gw.SendToSession(s.name, EventPlayerForfeit, ForfeitNotice{Winner: winner})
	s.gw.SendTo(winner, EventMsg, "Your opponent left. You win by forfeit!")
	s.logger.Info("session forfeited", zap.String("winner", winner))
	return nil
}

// SetStartPosition records connID's starting cell. Once both players have
// chosen, the first mover is drawn at random and the game starts.
func (s *Session) SetStartPosition(connID string, c board.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(connID)
	if p == nil {
		return ErrNotInSession
	}
	if s.phase == InProgress || s.phase == Finished {
		s.gw.SendTo(connID, EventMsg, "The game has already started.")
		return nil
	}
	if !s.opts.Rules.ValidStart(c) {
		s.gw.SendTo(connID, EventMsg, "Pick a starting position on the board.")
		return nil
	}

	pos := c
	p.Position = &pos
	s.emitPositionLocked(p.ID, c)

	s.logger.Debug("start position chosen",
		zap.String("conn", connID),
		zap.Int("row", c.Row),
		zap.Int("col", c.Col),
	)

	if len(s.players) < MaxPlayers {
		return nil
	}
	if !s.allPlacedLocked() {
		s.gw.SendTo(connID, EventMsg, "Waiting for your opponent to pick a starting position.")
		return nil
	}
	s.startLocked()
	return nil
}

// AttemptMove processes a dig at c by connID. Out-of-turn and illegal moves
// are answered privately and leave the state unchanged.
func (s *Session) AttemptMove(connID string, c board.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(connID)
	if p == nil {
		return ErrNotInSession
	}

	if s.phase != InProgress || s.active != connID {
		switch {
		case s.phase == Finished:
			s.gw.SendTo(connID, EventMsg, "The game is over.")
		case len(s.players) == MaxPlayers:
			s.gw.SendTo(connID, EventMsg, "Wait for your turn!")
		}
		return nil
	}

	if !s.opts.Rules.Validate(*p.Position, c, p.Roll) {
		s.gw.SendTo(connID, EventMsg, fmt.Sprintf("Invalid move! You only rolled a %d.", p.Roll))
		return nil
	}

	pos := c
	p.Position = &pos
	closeness := board.Classify(s.treasure, c, s.opts.WarmDistance)

	s.logger.Debug("dig",
		zap.String("conn", connID),
		zap.Int("row", c.Row),
		zap.Int("col", c.Col),
		zap.Int("roll", p.Roll),
		zap.Stringer("closeness", closeness),
	)

	if closeness == board.Exact {
		s.gw.SendToSession(s.name, EventPlayerWin, WinNotice{
			Winner:      connID,
			Coordinates: c,
			Closeness:   closeness.String(),
		})
		s.emitPositionLocked(connID, c)
		s.finishLocked()
		s.logger.Info("treasure found", zap.String("winner", connID))
		return nil
	}

	s.gw.SendToSession(s.name, EventServerDig, DigResult{Coordinates: c, Closeness: closeness.String()})
	s.gw.SendTo(connID, EventClosenessMsg, ClosenessNotice{Closeness: closeness.String()})
	s.emitPositionLocked(connID, c)

	s.switchTurnLocked()
	s.rollLocked()
	return nil
}

func (s *Session) startLocked() {
	first := s.players[s.dice.Intn(len(s.players))]
	s.active = first.ID
	s.phase = InProgress

	s.gw.SendToSession(s.name, EventGameStart, nil)
	s.gw.SendToSession(s.name, EventLogMsg, "The game is now live!")

	s.rollLocked()

	s.gw.SendTo(first.ID, EventMsg, "You have been chosen to go first!")
	s.gw.SendToOthers(first.ID, s.name, EventMsg, "Your opponent has been chosen to go first.")
	s.gw.SendTo(first.ID, EventActivePlayer, nil)
	s.gw.SendToOthers(first.ID, s.name, EventActiveOpponent, nil)

	s.logger.Info("game started", zap.String("first", first.ID))
}

func (s *Session) switchTurnLocked() {
	idx := s.indexLocked(s.active)
	next := s.players[(idx+1)%len(s.players)]
	s.active = next.ID

	s.gw.SendTo(next.ID, EventActivePlayer, nil)
	s.gw.SendToOthers(next.ID, s.name, EventActiveOpponent, nil)
	s.gw.SendTo(next.ID, EventMsg, "It's your turn!")
	s.gw.SendToOthers(next.ID, s.name, EventMsg, "It's your opponent's turn.")
}

// rollLocked draws a new movement budget for the active player.
func (s *Session) rollLocked() {
	p := s.findLocked(s.active)
	p.Roll = s.dice.Roll()

	s.gw.SendTo(p.ID, EventLogMsg, fmt.Sprintf("You rolled a %d", p.Roll))
	s.gw.SendToOthers(p.ID, s.name, EventLogMsg, fmt.Sprintf("Your opponent rolled a %d", p.Roll))
	s.gw.SendTo(p.ID, EventRoll, RollUpdate{Roll: p.Roll, IsOpponentRoll: false})
	s.gw.SendToOthers(p.ID, s.name, EventRoll, RollUpdate{Roll: p.Roll, IsOpponentRoll: true})
}

func (s *Session) placeTreasureLocked() {
	b := s.opts.Rules.Board
	s.treasure = board.Coordinate{Row: s.dice.Intn(b.Rows), Col: s.dice.Intn(b.Cols)}
	s.placed = true
	s.logger.Debug("treasure placed",
		zap.Int("row", s.treasure.Row),
		zap.Int("col", s.treasure.Col),
	)
}

func (s *Session) finishLocked() {
	s.phase = Finished
	s.active = ""
}

func (s *Session) emitPositionLocked(connID string, c board.Coordinate) {
	s.gw.SendTo(connID, EventUpdatePlayerPosition, PositionUpdate{Coordinates: c, IsOpponentMove: false})
	s.gw.SendToOthers(connID, s.name, EventUpdatePlayerPosition, PositionUpdate{Coordinates: c, IsOpponentMove: true})
}

func (s *Session) allPlacedLocked() bool {
	for _, p := range s.players {
		if p.Position == nil {
			return false
		}
	}
	return true
}

func (s *Session) indexLocked(connID string) int {
	for i, p := range s.players {
		if p.ID == connID {
			return i
		}
	}
	return -1
}

func (s *Session) findLocked(connID string) *Player {
	if i := s.indexLocked(connID); i >= 0 {
		return s.players[i]
	}
	return nil
}
