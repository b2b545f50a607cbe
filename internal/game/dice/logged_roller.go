package dice

import "go.uber.org/zap"

// Roller wraps a Source with a fixed expression and logs every roll at debug
// level. A Roller is itself a Source, so a caller that needs both uniform
// draws and dice totals holds a single dependency.
type Roller struct {
	src    Source
	expr   Expression
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls expr with src and logs to logger.
//
// Precondition: src and logger must be non-nil; expr must come from Parse.
func NewLoggedRoller(src Source, expr Expression, logger *zap.Logger) *Roller {
	return &Roller{src: src, expr: expr, logger: logger}
}

// Roll rolls the configured expression and returns the total.
//
// Postcondition: r.Expression().Min() <= total <= r.Expression().Max().
func (r *Roller) Roll() int {
	result := Roll(r.expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result.Total()
}

// Intn draws uniformly from [0, n) using the underlying source.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

// Expression returns the expression this roller rolls.
func (r *Roller) Expression() Expression {
	return r.expr
}
