package l2tracks

import (
	"slices"

	"github.com/banshee-data/particle.report/internal/particle/l1grid"
)

// TrackID is the opaque identifier of an extracted track. IDs are union-find
// root labels: positive, unique within one extraction run, and not
// contiguous.
type TrackID int

// MinReach is the smallest neighbour reach the extractor accepts; smaller
// values are clamped up to it.
const MinReach = 1

// LabelMap is the per-cell scratch label array used during extraction.
// Zero means unlabelled. Callers that reuse a LabelMap across runs must
// Reset it first.
type LabelMap struct {
	rows, cols int
	ids        []int
}

// NewLabelMap allocates a zeroed label map sized for rows x cols.
func NewLabelMap(rows, cols int) *LabelMap {
	return &LabelMap{rows: rows, cols: cols, ids: make([]int, rows*cols)}
}

// Reset zeroes every label.
func (m *LabelMap) Reset() {
	clear(m.ids)
}

// At returns the label stored for (row, col), or 0 outside the map.
func (m *LabelMap) At(row, col int) int {
	if row < 0 || col < 0 || row >= m.rows || col >= m.cols {
		return 0
	}
	return m.ids[row*m.cols+col]
}

func (m *LabelMap) set(row, col, id int) {
	m.ids[row*m.cols+col] = id
}

func (m *LabelMap) fits(g *l1grid.Grid) bool {
	return m != nil && m.rows == g.Rows() && m.cols == g.Cols()
}

// Extract partitions the non-zero cells of g into tracks.
//
// Cells are scanned in row-major order. Each non-zero cell looks back over its
// causal window: the reach rows above it between col-reach and col+reach, and
// the reach cells to its left on the same row. With no labelled neighbour it
// starts a new label; otherwise it takes the root of the first neighbour found
// and merges every other neighbour's root into that one. A second row-major
// pass resolves each cell to its final root.
//
// Each returned coordinate list is in row-major scan order. labels is scratch
// space; it must be zeroed and sized to g, and a fresh one is allocated when
// it is nil or the wrong size.
func Extract(g *l1grid.Grid, labels *LabelMap, reach int) map[TrackID][]l1grid.Coord {
	if reach < MinReach {
		reach = MinReach
	}
	if !labels.fits(g) {
		labels = NewLabelMap(g.Rows(), g.Cols())
	}

	f := newForest()
	neighbours := make([]int, 0, reach*(2*reach+1)+reach)

	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			if g.At(row, col) == 0 {
				continue
			}

			neighbours = causalNeighbours(g, labels, row, col, reach, neighbours[:0])
			if len(neighbours) == 0 {
				labels.set(row, col, f.add())
				continue
			}

			root := f.find(neighbours[0])
			labels.set(row, col, root)
			for _, other := range neighbours[1:] {
				f.union(root, other)
			}
		}
	}

	return buildTracks(g, labels, f)
}

// buildTracks groups every labelled cell under its final root.
func buildTracks(g *l1grid.Grid, labels *LabelMap, f *forest) map[TrackID][]l1grid.Coord {
	tracks := make(map[TrackID][]l1grid.Coord)
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			id := labels.At(row, col)
			if id == 0 {
				continue
			}
			root := TrackID(f.find(id))
			tracks[root] = append(tracks[root], l1grid.Coord{Row: row, Col: col})
		}
	}
	return tracks
}

// causalNeighbours appends the distinct labels found in the already-scanned
// window around (row, col) to dst, in discovery order: the rows above first
// (column-major across the window), then the cells to the left.
func causalNeighbours(g *l1grid.Grid, labels *LabelMap, row, col, reach int, dst []int) []int {
	for dc := -reach; dc <= reach; dc++ {
		for dr := -reach; dr < 0; dr++ {
			dst = appendLabel(g, labels, row+dr, col+dc, dst)
		}
	}
	for dc := -reach; dc < 0; dc++ {
		dst = appendLabel(g, labels, row, col+dc, dst)
	}
	return dst
}

func appendLabel(g *l1grid.Grid, labels *LabelMap, row, col int, dst []int) []int {
	if !g.InBounds(row, col) || g.At(row, col) == 0 {
		return dst
	}
	id := labels.At(row, col)
	if id == 0 {
		return dst
	}
	for _, seen := range dst {
		if seen == id {
			return dst
		}
	}
	return append(dst, id)
}

// SortedIDs returns the keys of tracks in ascending order.
func SortedIDs(tracks map[TrackID][]l1grid.Coord) []TrackID {
	ids := make([]TrackID, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
