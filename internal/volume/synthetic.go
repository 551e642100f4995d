package volume

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// NewBoxGrid returns a float fog volume with every voxel in bbox active
// and set to value. Stats metadata is attached so the grid can be bounded
// without being written first.
func NewBoxGrid(name string, bbox CoordBBox, value float32, xform Transform) *Grid {
	tree := NewTree[float32](0)
	for x := bbox.Min.X; x <= bbox.Max.X; x++ {
		for y := bbox.Min.Y; y <= bbox.Max.Y; y++ {
			for z := bbox.Min.Z; z <= bbox.Max.Z; z++ {
				tree.SetValue(Coord{x, y, z}, value)
			}
		}
	}
	g := NewGrid(name, tree, xform)
	g.SetClass(ClassFogVolume)
	g.AddStatsMetadata()
	return g
}

// NewSphereGrid returns a float fog volume whose density falls linearly
// from 1 at center to 0 at radius voxels.
func NewSphereGrid(name string, center Coord, radius int32, xform Transform) *Grid {
	tree := NewTree[float32](0)
	r := float64(radius)
	c := center.Vec()
	for x := center.X - radius; x <= center.X+radius; x++ {
		for y := center.Y - radius; y <= center.Y+radius; y++ {
			for z := center.Z - radius; z <= center.Z+radius; z++ {
				p := Coord{x, y, z}
				d := r3.Norm(r3.Sub(p.Vec(), c))
				if d > r {
					continue
				}
				tree.SetValue(p, float32(1-d/r))
			}
		}
	}
	g := NewGrid(name, tree, xform)
	g.SetClass(ClassFogVolume)
	g.AddStatsMetadata()
	return g
}

// NewScatterGrid activates count voxels at random inside bbox. The same
// seed always produces the same grid.
func NewScatterGrid(name string, bbox CoordBBox, count int, seed int64, xform Transform) *Grid {
	rng := rand.New(rand.NewSource(seed))
	tree := NewTree[float32](0)
	d := bbox.Dim()
	if !bbox.IsEmpty() {
		for i := 0; i < count; i++ {
			p := bbox.Min.Add(Coord{rng.Int31n(d.X), rng.Int31n(d.Y), rng.Int31n(d.Z)})
			tree.SetValue(p, float32(math.Abs(rng.NormFloat64())))
		}
	}
	g := NewGrid(name, tree, xform)
	g.SetClass(ClassFogVolume)
	g.AddStatsMetadata()
	return g
}
