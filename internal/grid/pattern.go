package grid

// crossMargin is the number of cells left clear on each edge of the cross.
const crossMargin = 2

// CrossPattern returns the positions of an X spanning indices
// [2, gridSize-3]: for each index the main-diagonal cell then the
// counter-diagonal cell. On odd grids the centre cell appears twice.
// Positions are not bounds-checked here.
func CrossPattern(gridSize int) []Position {
	last := gridSize - 1 - crossMargin
	if last < crossMargin {
		return nil
	}
	out := make([]Position, 0, 2*(last-crossMargin+1))
	for i := crossMargin; i <= last; i++ {
		out = append(out,
			Position{Row: i, Column: i},
			Position{Row: i, Column: gridSize - 1 - i},
		)
	}
	return out
}
