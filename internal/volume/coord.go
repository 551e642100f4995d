package volume

import (
	"fmt"
	"math"
)

// Coord is an integer index-space voxel coordinate.
type Coord struct {
	X, Y, Z int32
}

// Add returns c + o.
func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// Less orders coordinates by X, then Y, then Z.
func (c Coord) Less(o Coord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

func (c Coord) String() string {
	return fmt.Sprintf("[%d, %d, %d]", c.X, c.Y, c.Z)
}

// CoordBBox is an inclusive integer box in index space.
type CoordBBox struct {
	Min, Max Coord
}

// EmptyCoordBBox returns a box that contains nothing and acts as the
// identity for Expand and ExpandBBox.
func EmptyCoordBBox() CoordBBox {
	return CoordBBox{
		Min: Coord{math.MaxInt32, math.MaxInt32, math.MaxInt32},
		Max: Coord{math.MinInt32, math.MinInt32, math.MinInt32},
	}
}

// IsEmpty reports whether the box contains no coordinates.
func (b CoordBBox) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Expand grows the box to include c.
func (b *CoordBBox) Expand(c Coord) {
	b.Min.X = min(b.Min.X, c.X)
	b.Min.Y = min(b.Min.Y, c.Y)
	b.Min.Z = min(b.Min.Z, c.Z)
	b.Max.X = max(b.Max.X, c.X)
	b.Max.Y = max(b.Max.Y, c.Y)
	b.Max.Z = max(b.Max.Z, c.Z)
}

// ExpandBBox grows the box to include o. Empty boxes are ignored.
func (b *CoordBBox) ExpandBBox(o CoordBBox) {
	if o.IsEmpty() {
		return
	}
	b.Expand(o.Min)
	b.Expand(o.Max)
}

// Contains reports whether c lies inside the box.
func (b CoordBBox) Contains(c Coord) bool {
	return c.X >= b.Min.X && c.X <= b.Max.X &&
		c.Y >= b.Min.Y && c.Y <= b.Max.Y &&
		c.Z >= b.Min.Z && c.Z <= b.Max.Z
}

// Dim returns the number of voxels along each axis.
func (b CoordBBox) Dim() Coord {
	if b.IsEmpty() {
		return Coord{}
	}
	return Coord{b.Max.X - b.Min.X + 1, b.Max.Y - b.Min.Y + 1, b.Max.Z - b.Min.Z + 1}
}

// Volume returns the number of voxels the box covers.
func (b CoordBBox) Volume() int64 {
	d := b.Dim()
	return int64(d.X) * int64(d.Y) * int64(d.Z)
}

// ToBox3 converts the integer box to a float box without any cell
// correction. Empty boxes map to EmptyBox3.
func (b CoordBBox) ToBox3() Box3 {
	if b.IsEmpty() {
		return EmptyBox3()
	}
	return Box3{Min: b.Min.Vec(), Max: b.Max.Vec()}
}
