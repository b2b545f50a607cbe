package board

// Closeness classifies a probed cell relative to the hidden treasure.
type Closeness int

const (
	// Cold means the probe is outside the warm band.
	Cold Closeness = iota
	// Warm means the probe is within the warm band on both axes.
	Warm
	// Exact means the probe is the treasure cell.
	Exact
)

// DefaultWarmDistance is the per-axis width of the warm band.
const DefaultWarmDistance = 1

// String returns the wire label for c.
func (c Closeness) String() string {
	switch c {
	case Exact:
		return "exact"
	case Warm:
		return "warm"
	default:
		return "cold"
	}
}

// Classify compares probe with target.
//
// Returns Exact when probe == target, Warm when both |row delta| and
// |col delta| are at most warmDistance, Cold otherwise.
//
// Precondition: warmDistance >= 0.
func Classify(target, probe Coordinate, warmDistance int) Closeness {
	if probe == target {
		return Exact
	}
	if within(probe.Row, target.Row, warmDistance) && within(probe.Col, target.Col, warmDistance) {
		return Warm
	}
	return Cold
}
