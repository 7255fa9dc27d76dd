package l1grid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/particle.report/internal/fsutil"
)

var (
	// ErrEmptyGrid is returned when the input holds no rows.
	ErrEmptyGrid = errors.New("grid has no rows")
	// ErrRaggedGrid is returned when rows differ in length.
	ErrRaggedGrid = errors.New("grid rows have different lengths")
	// ErrNegativeEnergy is returned for cells below zero.
	ErrNegativeEnergy = errors.New("grid contains a negative energy")
	// ErrNonFiniteEnergy is returned for NaN or infinite cells.
	ErrNonFiniteEnergy = errors.New("grid contains a non-finite energy")
)

// maxLineBytes bounds a single text row; 256 columns of "%.6f" fit comfortably.
const maxLineBytes = 1 << 20

// Parse reads a whitespace-separated text grid, one row per line. Blank
// lines are skipped. Every row must have the same number of columns and
// every value must be a finite, non-negative float.
func Parse(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var rows [][]float64
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", lineNo, i+1, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("line %d column %d: %w (%s)", lineNo, i+1, ErrNonFiniteEnergy, f)
			}
			if v < 0 {
				return nil, fmt.Errorf("line %d column %d: %w (%g)", lineNo, i+1, ErrNegativeEnergy, v)
			}
			row[i] = v
		}

		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("line %d: %w: got %d columns, want %d",
				lineNo, ErrRaggedGrid, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grid: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyGrid
	}

	return FromRows(rows), nil
}

// LoadFile opens path on fsys and parses it with Parse.
func LoadFile(fsys fsutil.FileSystem, path string) (*Grid, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grid file: %w", err)
	}
	defer f.Close()

	g, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
