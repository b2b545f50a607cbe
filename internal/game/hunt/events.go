package hunt

import "github.com/cory-johannsen/treasurehunt/internal/game/board"

// Outbound event names as seen by clients.
const (
	EventLogMsg               = "logMsg"
	EventMsg                  = "msg"
	EventGameStart            = "gameStart"
	EventActivePlayer         = "activePlayer"
	EventActiveOpponent       = "activeOpponent"
	EventUpdatePlayerPosition = "updatePlayerPosition"
	EventRoll                 = "roll"
	EventServerDig            = "serverDig"
	EventClosenessMsg         = "closenessMsg"
	EventPlayerWin            = "playerWin"
	EventPlayerForfeit        = "playerForfeit"
)

// PositionUpdate is the payload of updatePlayerPosition.
type PositionUpdate struct {
	Coordinates    board.Coordinate `json:"coordinates"`
	IsOpponentMove bool             `json:"isOpponentMove"`
}

// RollUpdate is the payload of roll.
type RollUpdate struct {
	Roll           int  `json:"roll"`
	IsOpponentRoll bool `json:"isOpponentRoll"`
}

// DigResult is the payload of serverDig.
type DigResult struct {
	Coordinates board.Coordinate `json:"coordinates"`
	Closeness   string           `json:"closeness"`
}

// ClosenessNotice is the payload of closenessMsg, sent only to the mover.
type ClosenessNotice struct {
	Closeness string `json:"closeness"`
}

// WinNotice is the payload of playerWin.
type WinNotice struct {
	Winner      string           `json:"winner"`
	Coordinates board.Coordinate `json:"coordinates"`
	Closeness   string           `json:"closeness"`
}

// ForfeitNotice is the payload of playerForfeit.
type ForfeitNotice struct {
	Winner string `json:"winner"`
}

// Gateway delivers events to connections. Implementations must not block:
// Session holds its lock while emitting.
type Gateway interface {
	// SendTo delivers an event to a single connection.
	SendTo(connID, event string, payload any)
	// SendToOthers delivers an event to every member of sessionName except connID.
	SendToOthers(connID, sessionName, event string, payload any)
	// SendToSession delivers an event to every member of sessionName.
	SendToSession(sessionName, event string, payload any)
	// JoinSession associates connID with sessionName for group delivery.
	JoinSession(connID, sessionName string)
	// LeaveSession removes connID from sessionName's delivery group.
	LeaveSession(connID, sessionName string)
}
