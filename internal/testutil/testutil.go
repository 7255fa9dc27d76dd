// Package testutil provides shared test fixtures for the particle
// packages: small grids with known tracks and tally helpers.
package testutil

import (
	"strings"
	"testing"

	"github.com/banshee-data/particle.report/internal/particle/l1grid"
	"github.com/banshee-data/particle.report/internal/particle/l3objects"
)

// SampleGrid returns a 12x70 grid holding three tracks at the default
// reach: a one-cell gamma at (0,0), a 3x3 low-energy beta block at rows 4-6
// and a 60-cell straight muon line along row 10.
func SampleGrid() *l1grid.Grid {
	rows := make([][]float64, 12)
	for r := range rows {
		rows[r] = make([]float64, 70)
	}
	rows[0][0] = 900
	for r := 4; r < 7; r++ {
		for c := 0; c < 3; c++ {
			rows[r][c] = 1
		}
	}
	for c := 5; c < 65; c++ {
		rows[10][c] = 10
	}
	return l1grid.FromRows(rows)
}

// ParseGrid parses a text grid, failing the test on error.
func ParseGrid(t testing.TB, text string) *l1grid.Grid {
	t.Helper()
	g, err := l1grid.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("failed to parse grid: %v", err)
	}
	return g
}

// Tally returns a tally with every particle type present, taking counts
// from partial and zero elsewhere.
func Tally(partial map[l3objects.PartType]int) map[l3objects.PartType]int {
	out := make(map[l3objects.PartType]int, len(l3objects.AllPartTypes))
	for _, pt := range l3objects.AllPartTypes {
		out[pt] = partial[pt]
	}
	return out
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}
