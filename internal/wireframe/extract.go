package wireframe

import (
	"errors"
	"fmt"

	"github.com/banshee-data/voxelview/internal/volume"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNilGrid is returned when extraction is asked for an absent grid.
	ErrNilGrid = errors.New("nil grid")
	// ErrNilGroup is returned by consumers handed an absent renderable.
	ErrNilGroup = errors.New("nil group")
)

// Segment is one world-space line from A to B.
type Segment struct {
	A, B r3.Vec
}

// boxEdges lists the 12 edges of a box as pairs of Box3.Corners indices:
// bottom face, top face, then the verticals.
var boxEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Extract returns the edges of every tree node whose depth equals depth
// exactly, 12 segments per node. Node boxes are widened by half a voxel
// so edges sit on cell boundaries. A depth with no nodes yields an empty
// slice. Only float grids are supported.
func Extract(g *volume.Grid, depth int) ([]Segment, error) {
	if g == nil {
		return nil, ErrNilGrid
	}
	tree, ok := volume.FloatTree(g)
	if !ok {
		return nil, fmt.Errorf("extract %q (%s): %w", g.Name(), g.ValueType(), volume.ErrUnsupportedGridType)
	}
	xf := g.Transform()
	segs := []Segment{}
	tree.Walk(func(n volume.NodeInfo) bool {
		if n.Depth != depth || n.BBox.IsEmpty() {
			return true
		}
		segs = appendBoxEdges(segs, n.BBox.ToBox3().Expand(0.5), xf)
		return true
	})
	tracef("grid %q depth %d: %d segments", g.Name(), depth, len(segs))
	return segs, nil
}

func appendBoxEdges(segs []Segment, box volume.Box3, xf volume.Transform) []Segment {
	corners := box.Corners()
	var world [8]r3.Vec
	for i, c := range corners {
		world[i] = xf.IndexToWorld(c)
	}
	for _, e := range boxEdges {
		segs = append(segs, Segment{A: world[e[0]], B: world[e[1]]})
	}
	return segs
}

// BoxSegments returns the 12 edges of an index-space box mapped through
// xf, in the same order Extract uses.
func BoxSegments(box volume.Box3, xf volume.Transform) []Segment {
	return appendBoxEdges(make([]Segment, 0, len(boxEdges)), box, xf)
}

// ExtractPositions is Extract flattened for curve renderers: two
// positions per segment and a verts-per-curve entry of 2 for each.
func ExtractPositions(g *volume.Grid, depth int) ([][3]float32, []int, error) {
	segs, err := Extract(g, depth)
	if err != nil {
		return nil, nil, err
	}
	c := Curves{Segments: segs}
	return c.Positions(), c.VertsPerCurve(), nil
}
