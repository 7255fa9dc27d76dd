package l1grid

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/banshee-data/particle.report/internal/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	t.Parallel()

	g := FromRows([][]float64{
		{0, 1, 2},
		{3, 0, 5},
	})
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 3, g.Cols())
	assert.Equal(t, 5.0, g.At(1, 2))
	assert.Equal(t, 3.0, g.AtCoord(Coord{Row: 1, Col: 0}))

	t.Run("out of bounds reads are zero", func(t *testing.T) {
		assert.Equal(t, 0.0, g.At(-1, 0))
		assert.Equal(t, 0.0, g.At(0, 3))
		assert.Equal(t, 0.0, g.At(2, 0))
		assert.False(t, g.InBounds(2, 0))
		assert.True(t, g.InBounds(1, 2))
	})

	t.Run("source rows are copied", func(t *testing.T) {
		src := [][]float64{{1, 1}}
		g := FromRows(src)
		src[0][0] = 9
		assert.Equal(t, 1.0, g.At(0, 0))
	})

	t.Run("empty", func(t *testing.T) {
		g := FromRows(nil)
		assert.Equal(t, 0, g.Rows())
		assert.Equal(t, 0, g.Cols())
		assert.Empty(t, g.NonZero())
	})
}

func TestNonZeroAndValues(t *testing.T) {
	t.Parallel()

	g := FromRows([][]float64{
		{0, 4, 0},
		{7, 0, 1},
	})
	coords := g.NonZero()
	assert.Equal(t, []Coord{{0, 1}, {1, 0}, {1, 2}}, coords)
	assert.Equal(t, []float64{4, 7, 1}, g.Values(coords))
}

func TestZero(t *testing.T) {
	t.Parallel()

	g := Zero(3, 4)
	assert.Equal(t, 3, g.Rows())
	assert.Equal(t, 4, g.Cols())
	assert.Empty(t, g.NonZero())

	neg := Zero(-1, 2)
	assert.Equal(t, 0, neg.Rows())
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
		rows    int
		cols    int
	}{
		{name: "simple", input: "0 1 2\n3 4 5\n", rows: 2, cols: 3},
		{name: "tabs and blank lines", input: "\n0\t1\n\n  2 3  \n\n", rows: 2, cols: 2},
		{name: "scientific notation", input: "1e2 0.5\n0 0\n", rows: 2, cols: 2},
		{name: "empty", input: "", wantErr: ErrEmptyGrid},
		{name: "only whitespace", input: "\n   \n", wantErr: ErrEmptyGrid},
		{name: "ragged", input: "0 1\n0 1 2\n", wantErr: ErrRaggedGrid},
		{name: "negative", input: "0 -1\n", wantErr: ErrNegativeEnergy},
		{name: "nan", input: "1 NaN\n2 3\n", wantErr: ErrNonFiniteEnergy},
		{name: "positive infinity", input: "1 +Inf\n2 3\n", wantErr: ErrNonFiniteEnergy},
		{name: "negative infinity", input: "1 -Inf\n2 3\n", wantErr: ErrNonFiniteEnergy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "err = %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rows, g.Rows())
			assert.Equal(t, tt.cols, g.Cols())
		})
	}
}

func TestParse_BadNumberReportsPosition(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("0 0\n0 x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2 column 2")
}

func TestParse_Values(t *testing.T) {
	t.Parallel()

	g, err := Parse(strings.NewReader("0 12.5\n3 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 12.5, g.At(0, 1))
	assert.Equal(t, 3.0, g.At(1, 0))
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("data/grid.txt", []byte("0 1\n1 0\n"))

	g, err := LoadFile(fsys, "data/grid.txt")
	require.NoError(t, err)
	assert.Len(t, g.NonZero(), 2)

	_, err = LoadFile(fsys, "data/missing.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	fsys.AddFile("data/bad.txt", []byte("1 2\n3\n"))
	_, err = LoadFile(fsys, "data/bad.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRaggedGrid))
	assert.Contains(t, err.Error(), "data/bad.txt")
}
