package volume

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingMetadata is returned when a grid lacks the file bounding
	// box metadata required to compute its bounds.
	ErrMissingMetadata = errors.New("missing bounding metadata")

	// ErrUnsupportedGridType is returned when an operation is specialised
	// for a value type the grid does not hold.
	ErrUnsupportedGridType = errors.New("unsupported grid value type")

	// ErrNotImplemented marks operations an adapter deliberately does not
	// support (writes to read-only scenes, hierarchy mutation).
	ErrNotImplemented = errors.New("not implemented")

	// ErrDuplicateGrid is returned when a container already holds a grid
	// with the same name.
	ErrDuplicateGrid = errors.New("duplicate grid name")

	// ErrSingularTransform is returned for matrices with no inverse.
	ErrSingularTransform = errors.New("transform is not invertible")

	// ErrFormatNotRegistered is returned when no container format handles
	// a path's extension, usually because the file package was never
	// initialised.
	ErrFormatNotRegistered = errors.New("no container format registered")
)

// IOError reports a failed container file operation with its path.
type IOError struct {
	Op   string // "open", "read", "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
