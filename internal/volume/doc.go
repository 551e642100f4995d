// Package volume owns the in-memory model for sparse hierarchical
// volumetric grids.
//
// Responsibilities: index-space coordinates and boxes, index-to-world
// transforms, typed grid metadata, the sparse 5-4-3 tree, grids,
// containers of named grids, and world-space bounds.
// Key types: Grid, Tree, Metadata, Container, Box3, Transform.
//
// Dependency rule: volume depends on nothing else in this module.
// File formats plug in through RegisterFormat; no SQL lives here.
package volume
