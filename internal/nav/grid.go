// Package nav provides grid-based path search over a walkability bitmap.
package nav

// Cell addresses one square of the walkability grid.
type Cell struct {
	Row int
	Col int
}

// Grid is a boolean walkability bitmap; true means walkable.
type Grid struct {
	rows, cols int
	walkable   []bool
}

// NewGrid allocates a fully-blocked grid of the given dimensions.
func NewGrid(rows, cols int) *Grid {
	if rows <= 0 {
		rows = 1
	}
	if cols <= 0 {
		cols = 1
	}
	return &Grid{rows: rows, cols: cols, walkable: make([]bool, rows*cols)}
}

// NewGridFrom builds a grid from row-major walkability data.
func NewGridFrom(cells [][]bool) *Grid {
	rows := len(cells)
	cols := 0
	if rows > 0 {
		cols = len(cells[0])
	}
	g := NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < len(cells[r]) && c < cols; c++ {
			g.walkable[r*cols+c] = cells[r][c]
		}
	}
	return g
}

// Rows returns the grid height.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the grid width.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether the cell lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return g != nil && c.Row >= 0 && c.Col >= 0 && c.Row < g.rows && c.Col < g.cols
}

func (g *Grid) index(c Cell) int {
	return c.Row*g.cols + c.Col
}

// Walkable reports whether the cell can be entered.
func (g *Grid) Walkable(c Cell) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.walkable[g.index(c)]
}

// SetWalkable marks a single cell.
func (g *Grid) SetWalkable(c Cell, ok bool) {
	if !g.InBounds(c) {
		return
	}
	g.walkable[g.index(c)] = ok
}

// FillWalkable marks every cell walkable.
func (g *Grid) FillWalkable() {
	for i := range g.walkable {
		g.walkable[i] = true
	}
}
