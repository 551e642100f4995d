package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec returns the coordinate as a float vector.
func (c Coord) Vec() r3.Vec {
	return r3.Vec{X: float64(c.X), Y: float64(c.Y), Z: float64(c.Z)}
}

// Box3 is an axis-aligned float box. A box whose Min exceeds its Max on
// any axis is empty.
type Box3 struct {
	Min, Max r3.Vec
}

// EmptyBox3 returns the explicit empty box (Min=+Inf, Max=-Inf), the
// identity element for Union.
func EmptyBox3() Box3 {
	inf := math.Inf(1)
	return Box3{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box3) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// ExtendBy returns the smallest box containing b and p.
func (b Box3) ExtendBy(p r3.Vec) Box3 {
	return Box3{
		Min: r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing b and o.
func (b Box3) Union(o Box3) Box3 {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return b.ExtendBy(o.Min).ExtendBy(o.Max)
}

// Expand grows the box by d on every side.
func (b Box3) Expand(d float64) Box3 {
	if b.IsEmpty() {
		return b
	}
	off := r3.Vec{X: d, Y: d, Z: d}
	return Box3{Min: r3.Sub(b.Min, off), Max: r3.Add(b.Max, off)}
}

// Size returns the extent along each axis, zero for empty boxes.
func (b Box3) Size() r3.Vec {
	if b.IsEmpty() {
		return r3.Vec{}
	}
	return r3.Sub(b.Max, b.Min)
}

// Center returns the midpoint of the box.
func (b Box3) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Corners returns the eight corners in wireframe order:
//
//	0 (min.x, min.y, min.z)   4 (min.x, max.y, min.z)
//	1 (min.x, min.y, max.z)   5 (min.x, max.y, max.z)
//	2 (max.x, min.y, max.z)   6 (max.x, max.y, max.z)
//	3 (max.x, min.y, min.z)   7 (max.x, max.y, min.z)
//
// Corners 0-3 form the bottom face cycle and 4-7 the top face; corner i
// sits directly below corner i+4.
func (b Box3) Corners() [8]r3.Vec {
	lo, hi := b.Min, b.Max
	return [8]r3.Vec{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
	}
}

// ApproxEqual reports whether both boxes are empty or all six bounds agree
// within tol.
func (b Box3) ApproxEqual(o Box3, tol float64) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return b.IsEmpty() && o.IsEmpty()
	}
	return floats.EqualApprox(b.slice(), o.slice(), tol)
}

func (b Box3) slice() []float64 {
	return []float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z}
}

func (b Box3) String() string {
	if b.IsEmpty() {
		return "Box3(empty)"
	}
	return fmt.Sprintf("Box3(min=(%g, %g, %g) max=(%g, %g, %g))",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
