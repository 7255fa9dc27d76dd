// Package l3objects owns Layer 3 (Objects) of the particle data model.
//
// Responsibilities: per-track feature derivation (energy, convex-hull
// roundness, path winding), heuristic particle classification, and
// per-type tallies.
// Key types: Particle, PartType, Summary.
//
// Dependency rule: L3 may depend on L1-L2.
// No SQL/database code is allowed in this package.
//
// Track order matters: Winding walks the coordinates in the order the
// extractor emitted them (raster-scan order). Reordering a track changes
// its winding and can change its classification.
package l3objects
