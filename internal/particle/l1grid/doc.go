// Package l1grid owns Layer 1 (Grid) of the particle data model.
//
// Responsibilities: the immutable energy grid, cell coordinates, and
// parsing whitespace-separated text grids.
// Key types: Grid, Coord.
//
// Dependency rule: L1 depends on nothing else in the particle tree.
// No SQL/database code is allowed in this package.
package l1grid
