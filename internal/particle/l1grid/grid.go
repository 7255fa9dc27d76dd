package l1grid

// Coord identifies one grid cell by row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is an immutable Rows x Cols array of non-negative cell energies,
// stored row-major.
//
// Rectangular input and non-negative values are preconditions that the grid
// itself does not check; Parse enforces both.
type Grid struct {
	rows, cols int
	cells      []float64
}

// FromRows copies rows into a new Grid. The column count is taken from the
// first row; rows of a different length are an unchecked precondition
// violation.
func FromRows(rows [][]float64) *Grid {
	g := &Grid{rows: len(rows)}
	if g.rows == 0 {
		return g
	}
	g.cols = len(rows[0])
	g.cells = make([]float64, g.rows*g.cols)
	for r, row := range rows {
		copy(g.cells[r*g.cols:(r+1)*g.cols], row)
	}
	return g
}

// Zero returns an all-zero grid of the given size.
func Zero(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{rows: rows, cols: cols, cells: make([]float64, rows*cols)}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether (row, col) lies inside the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < g.rows && col < g.cols
}

// At returns the energy at (row, col). Out-of-bounds lookups return 0.
func (g *Grid) At(row, col int) float64 {
	if !g.InBounds(row, col) {
		return 0
	}
	return g.cells[row*g.cols+col]
}

// AtCoord returns the energy at c.
func (g *Grid) AtCoord(c Coord) float64 {
	return g.At(c.Row, c.Col)
}

// Values returns the energies at coords, in the same order.
func (g *Grid) Values(coords []Coord) []float64 {
	out := make([]float64, len(coords))
	for i, c := range coords {
		out[i] = g.AtCoord(c)
	}
	return out
}

// NonZero lists every non-zero cell in row-major order.
func (g *Grid) NonZero() []Coord {
	var out []Coord
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.cells[r*g.cols+c] != 0 {
				out = append(out, Coord{Row: r, Col: c})
			}
		}
	}
	return out
}
