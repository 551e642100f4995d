// Package scene exposes one container file as a flat, read-only scene
// with a single object at the root and no children.
package scene

import (
	"errors"
	"fmt"

	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/volume"
)

// RootName is the name of the only location in a flat scene.
const RootName = "/"

// ErrNoChild is returned when a child location is requested and the
// caller asked for an error on missing children.
var ErrNoChild = errors.New("no such child")

// MissingBehaviour selects what Child does for a name that does not exist.
type MissingBehaviour int

const (
	ErrorIfMissing MissingBehaviour = iota
	NilIfMissing
	CreateIfMissing
)

// Reader is the read side of a scene location.
type Reader interface {
	FileName() string
	Name() string
	Path() []string
	ReadBound(t float64) volume.Box3
	ReadTransform(t float64) volume.Transform
	HasObject() bool
	ReadObject(t float64) (*volume.Container, error)
	ChildNames() []string
	HasChild(name string) bool
	Child(name string, mb MissingBehaviour) (Reader, error)
	AttributeNames() []string
	HasAttribute(name string) bool
	ReadTags() []string
	HasTag(name string) bool
	CanWrite() bool
}

// Writer is the write side of a scene location. Check Reader.CanWrite
// before using it.
type Writer interface {
	WriteBound(b volume.Box3, t float64) error
	WriteTransform(x volume.Transform, t float64) error
	WriteObject(c *volume.Container, t float64) error
	WriteAttribute(name string, value volume.MetaValue, t float64) error
	WriteTags(tags []string) error
	CreateChild(name string) (Reader, error)
}

// FlatScene is a Reader over one container file. Grid metadata is read on
// open; voxel data is loaded by ReadObject.
type FlatScene struct {
	file  *vdbfile.File
	grids []*volume.Grid
	meta  *volume.Metadata
}

var (
	_ Reader = (*FlatScene)(nil)
	_ Writer = (*FlatScene)(nil)
)

// Open reads the grid metadata of the container file at path.
func Open(path string) (*FlatScene, error) {
	f, err := vdbfile.Open(path)
	if err != nil {
		return nil, err
	}
	grids, err := f.ReadAllGridMetadata()
	if err != nil {
		f.Close()
		return nil, err
	}
	meta, err := f.Metadata()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FlatScene{file: f, grids: grids, meta: meta}, nil
}

// Close releases the underlying file.
func (s *FlatScene) Close() error { return s.file.Close() }

func (s *FlatScene) FileName() string { return s.file.Path() }
func (s *FlatScene) Name() string     { return RootName }

// Path is empty: the scene has only its root.
func (s *FlatScene) Path() []string { return []string{} }

// ReadBound always returns the empty box; per-sample bounds are not
// computed for flat scenes. Use volume.AggregateBounds on ReadObject's
// result for real bounds.
func (s *FlatScene) ReadBound(float64) volume.Box3 { return volume.EmptyBox3() }

// ReadTransform is always the identity.
func (s *FlatScene) ReadTransform(float64) volume.Transform { return volume.IdentityTransform() }

func (s *FlatScene) HasObject() bool { return true }

// ReadObject loads every grid of the file into a new container.
func (s *FlatScene) ReadObject(float64) (*volume.Container, error) {
	return s.file.ReadContainer()
}

// GridMetadata returns the grids read on open. Their trees are empty.
func (s *FlatScene) GridMetadata() []*volume.Grid { return s.grids }

// Metadata returns the container-level metadata.
func (s *FlatScene) Metadata() *volume.Metadata { return s.meta }

func (s *FlatScene) ChildNames() []string                          { return []string{} }
func (s *FlatScene) HasChild(string) bool                          { return false }
func (s *FlatScene) AttributeNames() []string                      { return []string{} }
func (s *FlatScene) HasAttribute(string) bool                      { return false }
func (s *FlatScene) ReadTags() []string                            { return []string{} }
func (s *FlatScene) HasTag(string) bool                            { return false }
func (s *FlatScene) CanWrite() bool                                { return false }
func (s *FlatScene) ReadAttribute(string) (volume.MetaValue, bool) { return nil, false }

// Child never finds a location. mb decides between ErrNoChild, a nil
// Reader, and ErrNotImplemented for CreateIfMissing.
func (s *FlatScene) Child(name string, mb MissingBehaviour) (Reader, error) {
	switch mb {
	case NilIfMissing:
		return nil, nil
	case CreateIfMissing:
		return nil, fmt.Errorf("child %q: create: %w", name, volume.ErrNotImplemented)
	}
	return nil, fmt.Errorf("child %q: %w", name, ErrNoChild)
}

// Scene resolves an absolute path. Only the root resolves.
func (s *FlatScene) Scene(path []string) (Reader, error) {
	if len(path) == 0 {
		return s, nil
	}
	return nil, fmt.Errorf("scene %v: %w", path, ErrNoChild)
}

func (s *FlatScene) readOnly(op string) error {
	return fmt.Errorf("%s %s: %w", op, s.file.Path(), volume.ErrNotImplemented)
}

func (s *FlatScene) WriteBound(volume.Box3, float64) error {
	return s.readOnly("write bound")
}

func (s *FlatScene) WriteTransform(volume.Transform, float64) error {
	return s.readOnly("write transform")
}

func (s *FlatScene) WriteObject(*volume.Container, float64) error {
	return s.readOnly("write object")
}

func (s *FlatScene) WriteAttribute(string, volume.MetaValue, float64) error {
	return s.readOnly("write attribute")
}

func (s *FlatScene) WriteTags([]string) error {
	return s.readOnly("write tags")
}

func (s *FlatScene) CreateChild(name string) (Reader, error) {
	return nil, s.readOnly("create child " + name)
}
