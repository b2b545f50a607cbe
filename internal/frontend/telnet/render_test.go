package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/treasurehunt/internal/game/board"
	"github.com/cory-johannsen/treasurehunt/internal/game/hunt"
	"github.com/cory-johannsen/treasurehunt/internal/game/session"
)

func TestRenderEvent(t *testing.T) {
	at := board.Coordinate{Row: 2, Col: 3}
	tests := []struct {
		name string
		evt  session.Event
		want string
	}{
		{"log", session.Event{Name: hunt.EventLogMsg, Payload: "You rolled a 4"}, "You rolled a 4"},
		{"msg", session.Event{Name: hunt.EventMsg, Payload: "Wait for your turn!"}, "Wait for your turn!"},
		{"own position", session.Event{Name: hunt.EventUpdatePlayerPosition, Payload: hunt.PositionUpdate{Coordinates: at}}, "You are at (2,3)."},
		{"opponent position", session.Event{Name: hunt.EventUpdatePlayerPosition, Payload: hunt.PositionUpdate{Coordinates: at, IsOpponentMove: true}}, "Your opponent is at (2,3)."},
		{"dig", session.Event{Name: hunt.EventServerDig, Payload: hunt.DigResult{Coordinates: at, Closeness: "warm"}}, "Dig at (2,3) came up warm."},
		{"closeness", session.Event{Name: hunt.EventClosenessMsg, Payload: hunt.ClosenessNotice{Closeness: "cold"}}, "You are cold."},
		{"win", session.Event{Name: hunt.EventPlayerWin, Payload: hunt.WinNotice{Winner: "me", Coordinates: at, Closeness: "exact"}}, "You found the treasure at (2,3)!"},
		{"loss", session.Event{Name: hunt.EventPlayerWin, Payload: hunt.WinNotice{Winner: "them", Coordinates: at, Closeness: "exact"}}, "Your opponent found the treasure at (2,3)."},
		{"forfeit", session.Event{Name: hunt.EventPlayerForfeit, Payload: hunt.ForfeitNotice{Winner: "me"}}, "Victory by forfeit."},
		{"start", session.Event{Name: hunt.EventGameStart}, "*** The hunt is on! ***"},
		{"turn", session.Event{Name: hunt.EventActivePlayer}, "Your move: dig <row> <col>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RenderEvent("me", tt.evt)
			assert.True(t, ok)
			assert.Equal(t, tt.want, StripANSI(got))
		})
	}
}

func TestRenderEvent_Silent(t *testing.T) {
	for _, evt := range []session.Event{
		{Name: hunt.EventRoll, Payload: hunt.RollUpdate{Roll: 3}},
		{Name: hunt.EventActiveOpponent},
		{Name: hunt.EventPlayerForfeit, Payload: hunt.ForfeitNotice{Winner: "them"}},
	} {
		_, ok := RenderEvent("me", evt)
		assert.False(t, ok, evt.Name)
	}
}
