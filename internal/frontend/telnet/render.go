package telnet

import (
	"fmt"

	"github.com/cory-johannsen/treasurehunt/internal/game/hunt"
	"github.com/cory-johannsen/treasurehunt/internal/game/session"
)

// RenderEvent formats evt for the connection self. It reports false for
// events that have no Telnet rendering.
func RenderEvent(self string, evt session.Event) (string, bool) {
	switch p := evt.Payload.(type) {
	case string:
		switch evt.Name {
		case hunt.EventLogMsg:
			return Colorize(BrightBlack, p), true
		case hunt.EventMsg:
			return Colorize(Yellow, p), true
		}
	case hunt.PositionUpdate:
		if p.IsOpponentMove {
			return Colorize(Magenta, fmt.Sprintf("Your opponent is at %s.", p.Coordinates)), true
		}
		return Colorize(Green, fmt.Sprintf("You are at %s.", p.Coordinates)), true
	case hunt.DigResult:
		return fmt.Sprintf("Dig at %s came up %s.", p.Coordinates, closeness(p.Closeness)), true
	case hunt.ClosenessNotice:
		return fmt.Sprintf("You are %s.", closeness(p.Closeness)), true
	case hunt.WinNotice:
		if p.Winner == self {
			return Colorize(Bold+BrightYellow, fmt.Sprintf("You found the treasure at %s!", p.Coordinates)), true
		}
		return Colorize(BrightRed, fmt.Sprintf("Your opponent found the treasure at %s.", p.Coordinates)), true
	case hunt.ForfeitNotice:
		if p.Winner == self {
			return Colorize(Bold+BrightYellow, "Victory by forfeit."), true
		}
		return "", false
	case nil:
		switch evt.Name {
		case hunt.EventGameStart:
			return Colorize(Bold+Green, "*** The hunt is on! ***"), true
		case hunt.EventActivePlayer:
			return Colorize(BrightGreen, "Your move: dig <row> <col>"), true
		}
	}
	return "", false
}

func closeness(label string) string {
	switch label {
	case "exact":
		return Colorize(Bold+BrightYellow, label)
	case "warm":
		return Colorize(Red, label)
	default:
		return Colorize(Cyan, label)
	}
}
