package board

// IsValidMove reports whether a mover at current may move to requested with
// the given roll.
//
// A move is legal iff it is purely horizontal or purely vertical and its
// magnitude along that axis is at most roll. A zero-magnitude move (staying
// put) is legal. No board-boundary check is performed here; see Rules.
func IsValidMove(current, requested Coordinate, roll int) bool {
	if requested.Col == current.Col {
		return within(requested.Row, current.Row, roll)
	}
	if requested.Row == current.Row {
		return within(requested.Col, current.Col, roll)
	}
	return false
}

// Rules layers the optional policies on top of IsValidMove.
type Rules struct {
	// Board is the grid moves must stay on when EnforceBounds is set.
	Board Board
	// EnforceBounds rejects moves whose destination is off the board.
	EnforceBounds bool
	// AllowPass accepts zero-magnitude moves.
	AllowPass bool
}

// DefaultRules returns the standard rule set: 10×10 board, bounds enforced,
// passing allowed.
func DefaultRules() Rules {
	return Rules{Board: Default(), EnforceBounds: true, AllowPass: true}
}

// Validate reports whether moving from current to requested with roll is
// legal under r.
//
// Postcondition: Validate implies IsValidMove(current, requested, roll).
func (r Rules) Validate(current, requested Coordinate, roll int) bool {
	if r.EnforceBounds && !r.Board.Contains(requested) {
		return false
	}
	if !r.AllowPass && current == requested {
		return false
	}
	return IsValidMove(current, requested, roll)
}

// ValidStart reports whether c is an acceptable starting cell under r.
func (r Rules) ValidStart(c Coordinate) bool {
	return !r.EnforceBounds || r.Board.Contains(c)
}

// within reports whether |a-b| <= d for any ints a and b. The difference is
// taken in uint64 so extreme coordinates cannot wrap.
func within(a, b, d int) bool {
	if d < 0 {
		return false
	}
	if a < b {
		a, b = b, a
	}
	return uint64(a)-uint64(b) <= uint64(d)
}
