// Package board provides the grid geometry for the treasure hunt: coordinates,
// board dimensions, move legality and proximity feedback.
package board

import "fmt"

// Default board dimensions.
const (
	DefaultRows = 10
	DefaultCols = 10
)

// Coordinate is an immutable (row, column) cell address.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// String returns the coordinate in "(row,col)" form.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Board describes the dimensions of a zero-indexed rectangular grid.
type Board struct {
	Rows int
	Cols int
}

// Default returns the standard 10×10 board.
func Default() Board {
	return Board{Rows: DefaultRows, Cols: DefaultCols}
}

// Contains reports whether c lies on the board.
//
// Postcondition: returns true iff 0 <= c.Row < b.Rows and 0 <= c.Col < b.Cols.
func (b Board) Contains(c Coordinate) bool {
	return c.Row >= 0 && c.Row < b.Rows && c.Col >= 0 && c.Col < b.Cols
}
