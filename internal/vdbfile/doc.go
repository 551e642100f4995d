// Package vdbfile stores volume containers in single-file SQLite
// databases.
//
// Responsibilities: process-wide format registration (Initialize and
// Uninitialize), schema migrations embedded in the binary, atomic
// container writes, and read access to stored grids either in full or
// metadata only.
//
// Files use the ".vdbc" extension; ".vdb" is accepted as an alias. The
// layout is this package's own and is not compatible with any other
// volumetric format.
package vdbfile
