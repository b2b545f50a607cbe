package room_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/treasurehunt/internal/game/board"
	"github.com/cory-johannsen/treasurehunt/internal/game/dice"
	"github.com/cory-johannsen/treasurehunt/internal/game/hunt"
	"github.com/cory-johannsen/treasurehunt/internal/game/room"
	"github.com/cory-johannsen/treasurehunt/internal/game/session"
	"github.com/cory-johannsen/treasurehunt/internal/testutil"
)

func newManager(t *testing.T, d hunt.Dice) (*room.Manager, *testutil.RecordingGateway, *session.Registry) {
	t.Helper()
	gw := testutil.NewRecordingGateway()
	reg := session.NewRegistry()
	return room.NewManager(gw, d, hunt.DefaultOptions(), reg, zaptest.NewLogger(t)), gw, reg
}

func TestAdmit_PairsConnections(t *testing.T) {
	m, _, reg := newManager(t, &testutil.ScriptedDice{})

	for i, want := range []string{"room1", "room1", "room2", "room2", "room3"} {
		name, err := m.Admit(fmt.Sprintf("c%d", i))
		require.NoError(t, err)
		assert.Equal(t, want, name)
	}
	assert.Equal(t, 3, m.SessionCount())

	name, ok := reg.Lookup("c2")
	require.True(t, ok)
	assert.Equal(t, "room2", name)

	s, ok := m.Session("room1")
	require.True(t, ok)
	assert.Equal(t, hunt.Placing, s.Phase())
}

func TestAdmit_Duplicate(t *testing.T) {
	m, _, _ := newManager(t, &testutil.ScriptedDice{})
	_, err := m.Admit("c1")
	require.NoError(t, err)
	_, err = m.Admit("c1")
	assert.ErrorIs(t, err, session.ErrAlreadyRegistered)

	s, _ := m.Session("room1")
	assert.Equal(t, 1, s.PlayerCount())
}

func TestAdmit_NeverRefillsEmptiedSession(t *testing.T) {
	m, _, _ := newManager(t, &testutil.ScriptedDice{})
	_, err := m.Admit("c1")
	require.NoError(t, err)
	require.NoError(t, m.Depart("c1"))

	name, err := m.Admit("c2")
	require.NoError(t, err)
	assert.Equal(t, "room2", name)
}

func TestAdmit_NeverJoinsStartedSession(t *testing.T) {
	m, _, _ := newManager(t, &testutil.ScriptedDice{})
	_, _ = m.Admit("a")
	_, _ = m.Admit("b")
	require.NoError(t, m.Depart("a"))

	name, err := m.Admit("c")
	require.NoError(t, err)
	assert.Equal(t, "room2", name)
}

func TestDepart_NotifiesOpponent(t *testing.T) {
	m, gw, reg := newManager(t, &testutil.ScriptedDice{})
	_, _ = m.Admit("a")
	_, _ = m.Admit("b")
	gw.Clear()

	require.NoError(t, m.Depart("a"))
	_, ok := reg.Lookup("a")
	assert.False(t, ok)
	assert.Contains(t, gw.Messages("b"), "Player a has left the room.")

	s, _ := m.Session("room1")
	assert.Equal(t, hunt.Finished, s.Phase())
}

func TestDepart_Unknown(t *testing.T) {
	m, _, _ := newManager(t, &testutil.ScriptedDice{})
	assert.ErrorIs(t, m.Depart("ghost"), room.ErrUnknownConnection)
}

func TestIntents_UnknownConnection(t *testing.T) {
	m, _, _ := newManager(t, &testutil.ScriptedDice{})
	assert.ErrorIs(t, m.StartPosition("ghost", board.Coordinate{}), room.ErrUnknownConnection)
	assert.ErrorIs(t, m.Dig("ghost", board.Coordinate{}), room.ErrUnknownConnection)
}

// Two connections are admitted, both choose start positions, the first
// mover digs a legal cold cell and the turn passes with a fresh roll.
func TestEndToEnd(t *testing.T) {
	d := &testutil.ScriptedDice{Draws: []int{8, 8, 0}, Rolls: []int{2, 6}}
	m, gw, _ := newManager(t, d)

	_, err := m.Admit("a")
	require.NoError(t, err)
	s, _ := m.Session("room1")
	assert.Equal(t, hunt.Forming, s.Phase())

	_, err = m.Admit("b")
	require.NoError(t, err)
	assert.Equal(t, hunt.Placing, s.Phase())

	require.NoError(t, m.StartPosition("a", board.Coordinate{Row: 1, Col: 1}))
	require.NoError(t, m.StartPosition("b", board.Coordinate{Row: 2, Col: 2}))
	require.Equal(t, hunt.InProgress, s.Phase())
	require.Equal(t, "a", s.ActivePlayer())

	r1, ok := gw.Last("a", hunt.EventRoll)
	require.True(t, ok)
	roll := r1.Payload.(hunt.RollUpdate).Roll
	assert.Equal(t, 2, roll)

	gw.Clear()
	require.NoError(t, m.Dig("a", board.Coordinate{Row: 1, Col: 1 + roll}))

	_, ok = gw.Last("a", hunt.EventServerDig)
	assert.True(t, ok)
	_, ok = gw.Last("b", hunt.EventServerDig)
	assert.True(t, ok)
	c, ok := gw.Last("a", hunt.EventClosenessMsg)
	require.True(t, ok)
	assert.Equal(t, hunt.ClosenessNotice{Closeness: "cold"}, c.Payload)

	assert.Equal(t, "b", s.ActivePlayer())
	r2, ok := gw.Last("b", hunt.EventRoll)
	require.True(t, ok)
	assert.Equal(t, hunt.RollUpdate{Roll: 6}, r2.Payload)
}

func TestConcurrentAdmitRespectsCapacity(t *testing.T) {
	m, _, reg := newManager(t, dice.NewLoggedRoller(dice.NewCryptoSource(), dice.D6, zap.NewNop()))
	const n = 101
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := m.Admit(fmt.Sprintf("c%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, reg.Count())
	assert.Equal(t, (n+1)/2, m.SessionCount())
	for _, snap := range m.Snapshot() {
		assert.LessOrEqual(t, len(snap.Players), hunt.MaxPlayers)
	}
}

func TestReap(t *testing.T) {
	d := &testutil.ScriptedDice{Draws: []int{0, 1, 0}, Rolls: []int{1}}
	m, _, _ := newManager(t, d)

	_, _ = m.Admit("a")
	_, _ = m.Admit("b")
	_, _ = m.Admit("c")
	require.NoError(t, m.Depart("c"))

	assert.Equal(t, 1, m.Reap(), "emptied room2 should be reaped")
	_, ok := m.Session("room2")
	assert.False(t, ok)

	require.NoError(t, m.StartPosition("a", board.Coordinate{Row: 0, Col: 0}))
	require.NoError(t, m.StartPosition("b", board.Coordinate{Row: 5, Col: 5}))
	require.NoError(t, m.Dig("a", board.Coordinate{Row: 0, Col: 1}))

	s, _ := m.Session("room1")
	require.Equal(t, hunt.Finished, s.Phase())
	assert.Equal(t, 0, m.Reap(), "finished room1 still has connections")

	require.NoError(t, m.Depart("a"))
	require.NoError(t, m.Depart("b"))
	assert.Equal(t, 1, m.Reap())
	assert.Equal(t, 0, m.SessionCount())

	name, err := m.Admit("d")
	require.NoError(t, err)
	assert.Equal(t, "room3", name, "names are never reused")
}

func TestRunReaper_StopsOnCancel(t *testing.T) {
	m, _, _ := newManager(t, &testutil.ScriptedDice{})
	_, _ = m.Admit("a")
	require.NoError(t, m.Depart("a"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunReaper(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.SessionCount() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop")
	}
}

// Property: under any interleaving of admissions and departures no session
// exceeds two players and an open session's count never decreases except
// through departure.
func TestPropertyMatchmakingCapacity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		gw := testutil.NewRecordingGateway()
		reg := session.NewRegistry()
		m := room.NewManager(gw, dice.NewLoggedRoller(dice.NewSeededSource(1), dice.D6, zap.NewNop()), hunt.DefaultOptions(), reg, zap.NewNop())

		var live []string
		next := 0
		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if len(live) == 0 || rapid.IntRange(0, 2).Draw(rt, "op") > 0 {
				id := fmt.Sprintf("c%d", next)
				next++
				if _, err := m.Admit(id); err != nil {
					rt.Fatalf("admit %s: %v", id, err)
				}
				live = append(live, id)
			} else {
				idx := rapid.IntRange(0, len(live)-1).Draw(rt, "depart")
				if err := m.Depart(live[idx]); err != nil {
					rt.Fatalf("depart %s: %v", live[idx], err)
				}
				live = append(live[:idx], live[idx+1:]...)
			}

			open := 0
			for _, snap := range m.Snapshot() {
				if len(snap.Players) > hunt.MaxPlayers {
					rt.Fatalf("session %s holds %d players", snap.Name, len(snap.Players))
				}
				if snap.Phase == hunt.Forming.String() && len(snap.Players) == 1 {
					open++
				}
			}
			if open > 1 {
				rt.Fatalf("%d half-full forming sessions; matchmaking should fill before creating", open)
			}
		}
		if reg.Count() != len(live) {
			rt.Fatalf("registry holds %d connections, want %d", reg.Count(), len(live))
		}
	})
}
