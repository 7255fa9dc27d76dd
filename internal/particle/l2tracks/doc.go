// Package l2tracks owns Layer 2 (Tracks) of the particle data model.
//
// Responsibilities: single-pass connected-component labeling of non-zero
// grid cells into tracks using union-find over a causal neighbour window.
// Key types: TrackID, LabelMap.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
// No SQL/database code is allowed in this package.
package l2tracks
