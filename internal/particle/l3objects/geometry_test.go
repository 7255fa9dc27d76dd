package l3objects

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/particle.report/internal/particle/l1grid"
)

func squareTrack(n int) []l1grid.Coord {
	var out []l1grid.Coord
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out = append(out, l1grid.Coord{Row: r, Col: c})
		}
	}
	return out
}

func lineTrack(n int) []l1grid.Coord {
	out := make([]l1grid.Coord, n)
	for i := range out {
		out[i] = l1grid.Coord{Row: 0, Col: i}
	}
	return out
}

// spiralTrack walks outward from the centre of a square spiral, turning the
// same way at every corner.
func spiralTrack(n int) []l1grid.Coord {
	dirs := [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	r, c := 20, 20
	out := []l1grid.Coord{{Row: r, Col: c}}
	for leg := 0; len(out) < n; leg++ {
		d := dirs[leg%4]
		for step := 0; step < leg/2+1 && len(out) < n; step++ {
			r, c = r+d[0], c+d[1]
			out = append(out, l1grid.Coord{Row: r, Col: c})
		}
	}
	return out
}

func TestConvexHull(t *testing.T) {
	t.Parallel()

	t.Run("square with interior and edge points", func(t *testing.T) {
		hull := ConvexHull(toPoints(squareTrack(3)))
		// Four corners plus the closing point.
		assert.Len(t, hull, 5)
		assert.Equal(t, hull[0], hull[len(hull)-1])
		assert.ElementsMatch(t, []orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}}, []orb.Point(hull[:4]))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		hull := ConvexHull([]orb.Point{{1, 1}, {1, 1}, {1, 1}})
		assert.Len(t, hull, 1)
	})

	t.Run("collinear points have no area", func(t *testing.T) {
		hull := ConvexHull(toPoints(lineTrack(6)))
		assert.Less(t, len(hull), 4)
	})

	t.Run("input is not reordered", func(t *testing.T) {
		pts := []orb.Point{{2, 2}, {0, 0}, {2, 0}}
		ConvexHull(pts)
		assert.Equal(t, []orb.Point{{2, 2}, {0, 0}, {2, 0}}, pts)
	})
}

func TestRoundness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		track []l1grid.Coord
		want  float64
	}{
		{name: "single cell", track: squareTrack(1), want: 0},
		{name: "two cells", track: lineTrack(2), want: 0},
		{name: "straight line", track: lineTrack(10), want: 0},
		{name: "3x3 square", track: squareTrack(3), want: math.Pi / 4},
		{name: "8x8 square", track: squareTrack(8), want: math.Pi / 4},
		// Right triangle with legs 2: area 2, perimeter 4+2√2.
		{
			name:  "triangle",
			track: []l1grid.Coord{{Row: 0, Col: 0}, {Row: 0, Col: 2}, {Row: 2, Col: 0}},
			want:  4 * math.Pi * 2 / math.Pow(4+2*math.Sqrt2, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Roundness(tt.track)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.False(t, math.IsNaN(got))
		})
	}
}

func TestWinding(t *testing.T) {
	t.Parallel()

	t.Run("fewer than three points", func(t *testing.T) {
		assert.Equal(t, 0.0, Winding(nil))
		assert.Equal(t, 0.0, Winding(lineTrack(1)))
		assert.Equal(t, 0.0, Winding(lineTrack(2)))
	})

	t.Run("straight line", func(t *testing.T) {
		assert.InDelta(t, 0.0, Winding(lineTrack(20)), 1e-12)
	})

	t.Run("single right-angle turn", func(t *testing.T) {
		track := []l1grid.Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}}
		assert.InDelta(t, 0.25, Winding(track), 1e-12)
	})

	t.Run("sign is discarded", func(t *testing.T) {
		track := []l1grid.Coord{{Row: 1, Col: 1}, {Row: 0, Col: 1}, {Row: 0, Col: 0}}
		assert.InDelta(t, 0.25, Winding(track), 1e-12)
	})

	t.Run("raster order of a block cancels out", func(t *testing.T) {
		assert.InDelta(t, 0.0, Winding(squareTrack(3)), 1e-12)
	})

	t.Run("same cells walked around the rim", func(t *testing.T) {
		rim := []l1grid.Coord{
			{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2},
			{Row: 1, Col: 2}, {Row: 2, Col: 2}, {Row: 2, Col: 1},
			{Row: 2, Col: 0}, {Row: 1, Col: 0}, {Row: 1, Col: 1},
		}
		assert.InDelta(t, 1.0, Winding(rim), 1e-12)
		assert.NotEqual(t, Winding(squareTrack(3)), Winding(rim))
	})

	t.Run("spiral winds several times", func(t *testing.T) {
		assert.Greater(t, Winding(spiralTrack(60)), 3.0)
	})
}
