package volume

import (
	"fmt"
	"math/bits"
	"sort"
	"unsafe"
)

// Value is the set of voxel value types a Tree can hold.
type Value interface {
	float32 | float64 | int32 | int64 | bool | [3]float32
}

// Tree layout: 8³ voxel leaves, 16³-child lower nodes and 32³-child upper
// nodes below a sparse root table.
const (
	LeafLog2  = 3
	LowerLog2 = 4
	UpperLog2 = 5

	LeafDim  = 1 << LeafLog2
	LeafSize = LeafDim * LeafDim * LeafDim

	lowerTotal = LeafLog2 + LowerLog2
	upperTotal = lowerTotal + UpperLog2

	// LowerSpan and UpperSpan are the voxel widths covered by one lower
	// and one upper internal node.
	LowerSpan = 1 << lowerTotal
	UpperSpan = 1 << upperTotal
)

// Node depths, counted from the root.
const (
	DepthRoot  = 0
	DepthUpper = 1
	DepthLower = 2
	DepthLeaf  = 3
)

// NodeInfo describes one tree node during Walk.
type NodeInfo struct {
	Depth  int
	Origin Coord
	// BBox is the full index region the node spans. For the root it is
	// the union of its children's regions.
	BBox   CoordBBox
	IsLeaf bool
	// Children is the number of allocated child nodes (0 for leaves).
	Children int
}

// Level returns the node's height above the leaf level.
func (n NodeInfo) Level() int {
	return DepthLeaf - n.Depth
}

// TreeBase is the value-type independent view of a Tree.
type TreeBase interface {
	ValueType() ValueType
	Walk(fn func(NodeInfo) bool)
	ActiveVoxelCount() int64
	LeafCount() int
	NodeCounts() [4]int
	EvalActiveVoxelBoundingBox() CoordBBox
	MemoryUsage() int64
	Empty() bool
	RootLevel() int
	copyTree() TreeBase
}

func originOf(c Coord, log2 uint) Coord {
	mask := int32(1)<<log2 - 1
	return Coord{c.X &^ mask, c.Y &^ mask, c.Z &^ mask}
}

func spanBBox(origin Coord, span int32) CoordBBox {
	return CoordBBox{Min: origin, Max: origin.Add(Coord{span - 1, span - 1, span - 1})}
}

func sortedKeys[V any](m map[Coord]V) []Coord {
	keys := make([]Coord, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// LeafNode stores 8³ voxel values and their active state.
type LeafNode[T Value] struct {
	origin Coord
	values [LeafSize]T
	mask   [LeafSize / 64]uint64
}

// NewLeafNode returns a leaf covering the 8³ block that contains c, with
// every voxel inactive and set to background.
func NewLeafNode[T Value](c Coord, background T) *LeafNode[T] {
	l := &LeafNode[T]{origin: originOf(c, LeafLog2)}
	for i := range l.values {
		l.values[i] = background
	}
	return l
}

// NewLeafNodeFrom rebuilds a leaf from raw values and an active mask.
func NewLeafNodeFrom[T Value](origin Coord, values []T, mask [LeafSize / 64]uint64) (*LeafNode[T], error) {
	if len(values) != LeafSize {
		return nil, fmt.Errorf("leaf at %v: got %d values, want %d", origin, len(values), LeafSize)
	}
	if originOf(origin, LeafLog2) != origin {
		return nil, fmt.Errorf("leaf origin %v is not aligned to %d", origin, LeafDim)
	}
	l := &LeafNode[T]{origin: origin, mask: mask}
	copy(l.values[:], values)
	return l, nil
}

func leafOffset(c Coord) int {
	return int(c.X&(LeafDim-1))<<(2*LeafLog2) | int(c.Y&(LeafDim-1))<<LeafLog2 | int(c.Z&(LeafDim-1))
}

func (l *LeafNode[T]) Origin() Coord     { return l.origin }
func (l *LeafNode[T]) BBox() CoordBBox   { return spanBBox(l.origin, LeafDim) }
func (l *LeafNode[T]) Value(c Coord) T   { return l.values[leafOffset(c)] }
func (l *LeafNode[T]) IsOn(c Coord) bool { return l.isOnOffset(leafOffset(c)) }

// Values returns the leaf's value buffer in offset order. Callers must not
// modify it.
func (l *LeafNode[T]) Values() []T { return l.values[:] }

// Mask returns a copy of the active-state bitmask.
func (l *LeafNode[T]) Mask() [LeafSize / 64]uint64 { return l.mask }

func (l *LeafNode[T]) isOnOffset(i int) bool {
	return l.mask[i>>6]&(1<<(uint(i)&63)) != 0
}

func (l *LeafNode[T]) setValue(c Coord, v T, on bool) {
	i := leafOffset(c)
	l.values[i] = v
	if on {
		l.mask[i>>6] |= 1 << (uint(i) & 63)
	} else {
		l.mask[i>>6] &^= 1 << (uint(i) & 63)
	}
}

// ActiveCount returns the number of active voxels.
func (l *LeafNode[T]) ActiveCount() int64 {
	var n int
	for _, w := range l.mask {
		n += bits.OnesCount64(w)
	}
	return int64(n)
}

// ActiveBBox returns the bounding box of the leaf's active voxels.
func (l *LeafNode[T]) ActiveBBox() CoordBBox {
	bb := EmptyCoordBBox()
	for i := 0; i < LeafSize; i++ {
		if !l.isOnOffset(i) {
			continue
		}
		bb.Expand(l.origin.Add(Coord{
			X: int32(i >> (2 * LeafLog2)),
			Y: int32(i>>LeafLog2) & (LeafDim - 1),
			Z: int32(i) & (LeafDim - 1),
		}))
	}
	return bb
}

type lowerNode[T Value] struct {
	origin   Coord
	children map[Coord]*LeafNode[T]
}

type upperNode[T Value] struct {
	origin   Coord
	children map[Coord]*lowerNode[T]
}

// Tree is a sparse hierarchical voxel tree. The zero value is not usable;
// construct trees with NewTree.
type Tree[T Value] struct {
	background T
	root       map[Coord]*upperNode[T]
}

// NewTree returns an empty tree whose unset voxels read as background.
func NewTree[T Value](background T) *Tree[T] {
	return &Tree[T]{background: background, root: make(map[Coord]*upperNode[T])}
}

func (t *Tree[T]) Background() T { return t.background }

// RootLevel is the height of the root above the leaf level.
func (t *Tree[T]) RootLevel() int { return DepthLeaf }

// Empty reports whether the tree has no child nodes at all.
func (t *Tree[T]) Empty() bool { return len(t.root) == 0 }

// ValueType reports the tree's value type.
func (t *Tree[T]) ValueType() ValueType {
	return valueTypeOf[T]()
}

func (t *Tree[T]) probeLeaf(c Coord, create bool) *LeafNode[T] {
	uo := originOf(c, upperTotal)
	u, ok := t.root[uo]
	if !ok {
		if !create {
			return nil
		}
		u = &upperNode[T]{origin: uo, children: make(map[Coord]*lowerNode[T])}
		t.root[uo] = u
	}
	lo := originOf(c, lowerTotal)
	n, ok := u.children[lo]
	if !ok {
		if !create {
			return nil
		}
		n = &lowerNode[T]{origin: lo, children: make(map[Coord]*LeafNode[T])}
		u.children[lo] = n
	}
	leafOrigin := originOf(c, LeafLog2)
	l, ok := n.children[leafOrigin]
	if !ok {
		if !create {
			return nil
		}
		l = NewLeafNode(c, t.background)
		n.children[leafOrigin] = l
	}
	return l
}

// SetValue sets the voxel at c to v and marks it active.
func (t *Tree[T]) SetValue(c Coord, v T) {
	t.probeLeaf(c, true).setValue(c, v, true)
}

// SetValueOff sets the voxel at c to v and marks it inactive.
func (t *Tree[T]) SetValueOff(c Coord, v T) {
	t.probeLeaf(c, true).setValue(c, v, false)
}

// Value returns the voxel at c, or the background if no leaf holds it.
func (t *Tree[T]) Value(c Coord) T {
	if l := t.probeLeaf(c, false); l != nil {
		return l.Value(c)
	}
	return t.background
}

// IsActive reports whether the voxel at c is active.
func (t *Tree[T]) IsActive(c Coord) bool {
	l := t.probeLeaf(c, false)
	return l != nil && l.IsOn(c)
}

// InsertLeaf adds l to the tree, replacing any leaf with the same origin.
func (t *Tree[T]) InsertLeaf(l *LeafNode[T]) {
	lo := originOf(l.origin, lowerTotal)
	t.probeLeaf(l.origin, true)
	t.root[originOf(l.origin, upperTotal)].children[lo].children[l.origin] = l
}

// Leaves returns every leaf ordered by origin.
func (t *Tree[T]) Leaves() []*LeafNode[T] {
	var out []*LeafNode[T]
	for _, uo := range sortedKeys(t.root) {
		u := t.root[uo]
		for _, lo := range sortedKeys(u.children) {
			n := u.children[lo]
			for _, o := range sortedKeys(n.children) {
				out = append(out, n.children[o])
			}
		}
	}
	return out
}

func (t *Tree[T]) LeafCount() int {
	var n int
	for _, u := range t.root {
		for _, l := range u.children {
			n += len(l.children)
		}
	}
	return n
}

// NodeCounts returns the number of nodes at each depth, root first.
func (t *Tree[T]) NodeCounts() [4]int {
	counts := [4]int{1, len(t.root), 0, 0}
	for _, u := range t.root {
		counts[DepthLower] += len(u.children)
		for _, l := range u.children {
			counts[DepthLeaf] += len(l.children)
		}
	}
	return counts
}

func (t *Tree[T]) ActiveVoxelCount() int64 {
	var n int64
	for _, l := range t.Leaves() {
		n += l.ActiveCount()
	}
	return n
}

// EvalActiveVoxelBoundingBox returns the tight index box of every active
// voxel, or an empty box when none are active.
func (t *Tree[T]) EvalActiveVoxelBoundingBox() CoordBBox {
	bb := EmptyCoordBBox()
	for _, l := range t.Leaves() {
		bb.ExpandBBox(l.ActiveBBox())
	}
	return bb
}

// Walk visits every node pre-order: the root, then each upper node
// followed by its subtree, with siblings ordered by origin. Returning
// false from fn stops the walk.
func (t *Tree[T]) Walk(fn func(NodeInfo) bool) {
	rootBox := EmptyCoordBBox()
	for uo := range t.root {
		rootBox.ExpandBBox(spanBBox(uo, UpperSpan))
	}
	if !fn(NodeInfo{Depth: DepthRoot, BBox: rootBox, Origin: rootBox.Min, Children: len(t.root)}) {
		return
	}
	for _, uo := range sortedKeys(t.root) {
		u := t.root[uo]
		if !fn(NodeInfo{Depth: DepthUpper, Origin: uo, BBox: spanBBox(uo, UpperSpan), Children: len(u.children)}) {
			return
		}
		for _, lo := range sortedKeys(u.children) {
			n := u.children[lo]
			if !fn(NodeInfo{Depth: DepthLower, Origin: lo, BBox: spanBBox(lo, LowerSpan), Children: len(n.children)}) {
				return
			}
			for _, o := range sortedKeys(n.children) {
				if !fn(NodeInfo{Depth: DepthLeaf, Origin: o, BBox: spanBBox(o, LeafDim), IsLeaf: true}) {
					return
				}
			}
		}
	}
}

// DeepCopy returns a tree sharing no nodes with t.
func (t *Tree[T]) DeepCopy() *Tree[T] {
	c := NewTree(t.background)
	for _, l := range t.Leaves() {
		cp := *l
		c.InsertLeaf(&cp)
	}
	return c
}

func (t *Tree[T]) copyTree() TreeBase { return t.DeepCopy() }

// MemoryUsage estimates the bytes held by the tree's nodes.
func (t *Tree[T]) MemoryUsage() int64 {
	var zero LeafNode[T]
	leafBytes := int64(unsafe.Sizeof(zero))
	const internalBytes = 64
	const childEntryBytes = int64(unsafe.Sizeof(Coord{})) + 8
	counts := t.NodeCounts()
	total := int64(unsafe.Sizeof(*t))
	total += int64(counts[DepthUpper]+counts[DepthLower]) * internalBytes
	total += int64(counts[DepthUpper]+counts[DepthLower]+counts[DepthLeaf]) * childEntryBytes
	total += int64(counts[DepthLeaf]) * leafBytes
	return total
}
