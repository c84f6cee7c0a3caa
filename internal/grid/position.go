package grid

import "fmt"

// Position is one (row, column) cell on the megaverse grid.
type Position struct {
	Row    int
	Column int
}

// Valid reports whether both coordinates lie in [0, gridSize).
func (p Position) Valid(gridSize int) bool {
	return p.Row >= 0 && p.Row < gridSize &&
		p.Column >= 0 && p.Column < gridSize
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Column)
}
