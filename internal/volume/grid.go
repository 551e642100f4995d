package volume

import (
	"fmt"
	"strings"
)

// ValueType enumerates the voxel value types a grid can hold.
type ValueType int

const (
	ValueUnknown ValueType = iota
	ValueFloat
	ValueDouble
	ValueInt32
	ValueInt64
	ValueBool
	ValueVec3f
)

var valueTypeNames = map[ValueType]string{
	ValueUnknown: "unknown",
	ValueFloat:   "float",
	ValueDouble:  "double",
	ValueInt32:   "int32",
	ValueInt64:   "int64",
	ValueBool:    "bool",
	ValueVec3f:   "vec3s",
}

func (v ValueType) String() string {
	if s, ok := valueTypeNames[v]; ok {
		return s
	}
	return fmt.Sprintf("ValueType(%d)", int(v))
}

// ParseValueType is the inverse of ValueType.String.
func ParseValueType(s string) (ValueType, error) {
	for vt, name := range valueTypeNames {
		if name == s && vt != ValueUnknown {
			return vt, nil
		}
	}
	return ValueUnknown, fmt.Errorf("%w: %q", ErrUnsupportedGridType, s)
}

func valueTypeOf[T Value]() ValueType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return ValueFloat
	case float64:
		return ValueDouble
	case int32:
		return ValueInt32
	case int64:
		return ValueInt64
	case bool:
		return ValueBool
	case [3]float32:
		return ValueVec3f
	}
	return ValueUnknown
}

// GridClass describes how a grid's values should be interpreted.
type GridClass int

const (
	ClassUnknown GridClass = iota
	ClassLevelSet
	ClassFogVolume
	ClassStaggered
)

var gridClassNames = []string{"unknown", "level set", "fog volume", "staggered"}

func (c GridClass) String() string {
	if int(c) >= 0 && int(c) < len(gridClassNames) {
		return gridClassNames[c]
	}
	return gridClassNames[ClassUnknown]
}

// ParseGridClass maps a class name to its GridClass; unrecognised names
// map to ClassUnknown.
func ParseGridClass(s string) GridClass {
	for i, name := range gridClassNames {
		if strings.EqualFold(name, s) {
			return GridClass(i)
		}
	}
	return ClassUnknown
}

// Reserved metadata keys written with every stored grid.
const (
	MetaFileBBoxMin    = "file bbox min"
	MetaFileBBoxMax    = "file bbox max"
	MetaFileVoxelCount = "file voxel count"
	MetaFileMemBytes   = "file mem bytes"
)

// Grid is one named sparse volumetric field.
type Grid struct {
	name      string
	class     GridClass
	transform Transform
	tree      TreeBase
	meta      *Metadata
}

// NewGrid wraps tree in a grid. A nil tree is replaced by an empty one.
func NewGrid[T Value](name string, tree *Tree[T], xform Transform) *Grid {
	if tree == nil {
		var zero T
		tree = NewTree(zero)
	}
	return &Grid{name: name, transform: xform, tree: tree, meta: NewMetadata()}
}

// NewGridFromTree wraps an already type-erased tree.
func NewGridFromTree(name string, tree TreeBase, xform Transform) (*Grid, error) {
	if tree == nil {
		return nil, fmt.Errorf("grid %q: nil tree", name)
	}
	return &Grid{name: name, transform: xform, tree: tree, meta: NewMetadata()}, nil
}

func (g *Grid) Name() string             { return g.name }
func (g *Grid) Class() GridClass         { return g.class }
func (g *Grid) SetClass(c GridClass)     { g.class = c }
func (g *Grid) Transform() Transform     { return g.transform }
func (g *Grid) SetTransform(t Transform) { g.transform = t }
func (g *Grid) Tree() TreeBase           { return g.tree }
func (g *Grid) ValueType() ValueType     { return g.tree.ValueType() }

// Metadata returns the grid's metadata. Mutations are visible to the grid.
func (g *Grid) Metadata() *Metadata { return g.meta }

// ActiveVoxelCount returns the number of active voxels in the tree.
func (g *Grid) ActiveVoxelCount() int64 { return g.tree.ActiveVoxelCount() }

// MemoryUsage estimates the bytes held by the grid's tree.
func (g *Grid) MemoryUsage() int64 { return g.tree.MemoryUsage() }

// StatsMetadata computes the file statistics entries for the grid's
// current tree without touching the grid's own metadata. An empty tree
// produces no bbox entries.
func (g *Grid) StatsMetadata() *Metadata {
	m := NewMetadata()
	if bb := g.tree.EvalActiveVoxelBoundingBox(); !bb.IsEmpty() {
		m.SetVec3i(MetaFileBBoxMin, bb.Min)
		m.SetVec3i(MetaFileBBoxMax, bb.Max)
	}
	m.SetInt64(MetaFileVoxelCount, g.tree.ActiveVoxelCount())
	m.SetInt64(MetaFileMemBytes, g.tree.MemoryUsage())
	return m
}

// AddStatsMetadata merges StatsMetadata into the grid's metadata.
func (g *Grid) AddStatsMetadata() {
	MergeStats(g.meta, g.StatsMetadata())
}

// MergeStats merges stats into m. When stats has no bbox, any bbox
// already in m is dropped so an emptied tree does not keep stale bounds.
func MergeStats(m, stats *Metadata) {
	if _, ok := stats.Get(MetaFileBBoxMin); !ok {
		m.Remove(MetaFileBBoxMin)
		m.Remove(MetaFileBBoxMax)
	}
	m.Merge(stats)
}

// DeepCopy returns a grid sharing no tree nodes or metadata with g.
func (g *Grid) DeepCopy() *Grid {
	return &Grid{
		name:      g.name,
		class:     g.class,
		transform: g.transform,
		tree:      g.tree.copyTree(),
		meta:      g.meta.Clone(),
	}
}

// WithName returns a deep copy of g under a new name.
func (g *Grid) WithName(name string) *Grid {
	c := g.DeepCopy()
	c.name = name
	return c
}

// TreeOf returns g's tree if it holds values of type T.
func TreeOf[T Value](g *Grid) (*Tree[T], bool) {
	if g == nil {
		return nil, false
	}
	t, ok := g.tree.(*Tree[T])
	return t, ok
}

// FloatTree returns g's tree if g is a float grid.
func FloatTree(g *Grid) (*Tree[float32], bool) {
	return TreeOf[float32](g)
}

func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%q, %s, %s)", g.name, g.ValueType(), g.class)
}
