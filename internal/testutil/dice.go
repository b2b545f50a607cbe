package testutil

import "sync"

// ScriptedDice replays fixed values. Draws feeds Intn, Rolls feeds Roll.
// Exhausted scripts fall back to 0 for Intn and 1 for Roll.
type ScriptedDice struct {
	mu    sync.Mutex
	Draws []int
	Rolls []int
}

// Intn returns the next scripted draw reduced modulo n.
func (d *ScriptedDice) Intn(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Draws) == 0 {
		return 0
	}
	v := d.Draws[0]
	d.Draws = d.Draws[1:]
	return v % n
}

// Roll returns the next scripted roll.
func (d *ScriptedDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Rolls) == 0 {
		return 1
	}
	v := d.Rolls[0]
	d.Rolls = d.Rolls[1:]
	return v
}
