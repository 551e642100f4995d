package volume

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestEmptyBox3(t *testing.T) {
	b := EmptyBox3()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox3 should be empty")
	}
	if !math.IsInf(b.Min.X, 1) || !math.IsInf(b.Max.Z, -1) {
		t.Errorf("EmptyBox3 = %v, want +Inf/-Inf bounds", b)
	}

	other := Box3{Min: r3.Vec{X: 1, Y: 2, Z: 3}, Max: r3.Vec{X: 4, Y: 5, Z: 6}}
	if got := b.Union(other); got != other {
		t.Errorf("empty ∪ b = %v, want %v", got, other)
	}
	if got := other.Union(b); got != other {
		t.Errorf("b ∪ empty = %v, want %v", got, other)
	}
}

func TestBox3Union(t *testing.T) {
	a := Box3{Min: r3.Vec{X: 0, Y: 0, Z: 0}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	b := Box3{Min: r3.Vec{X: -1, Y: 0.5, Z: 2}, Max: r3.Vec{X: 0.5, Y: 3, Z: 4}}
	want := Box3{Min: r3.Vec{X: -1, Y: 0, Z: 0}, Max: r3.Vec{X: 1, Y: 3, Z: 4}}
	if got := a.Union(b); got != want {
		t.Errorf("Union = %v, want %v", got, want)
	}
	if a.Union(b) != b.Union(a) {
		t.Error("Union should be commutative")
	}
}

func TestBox3Corners(t *testing.T) {
	b := Box3{Min: r3.Vec{X: 0, Y: 10, Z: 20}, Max: r3.Vec{X: 1, Y: 11, Z: 21}}
	c := b.Corners()
	want := [8]r3.Vec{
		{X: 0, Y: 10, Z: 20},
		{X: 0, Y: 10, Z: 21},
		{X: 1, Y: 10, Z: 21},
		{X: 1, Y: 10, Z: 20},
		{X: 0, Y: 11, Z: 20},
		{X: 0, Y: 11, Z: 21},
		{X: 1, Y: 11, Z: 21},
		{X: 1, Y: 11, Z: 20},
	}
	if c != want {
		t.Errorf("Corners() = %v, want %v", c, want)
	}
	for i := 0; i < 4; i++ {
		if c[i].X != c[i+4].X || c[i].Z != c[i+4].Z {
			t.Errorf("corner %d is not below corner %d", i, i+4)
		}
	}
}

func TestBox3ApproxEqual(t *testing.T) {
	a := Box3{Min: r3.Vec{X: 0, Y: 0, Z: 0}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	b := Box3{Min: r3.Vec{X: 1e-12, Y: 0, Z: 0}, Max: r3.Vec{X: 1, Y: 1, Z: 1 - 1e-12}}
	if !a.ApproxEqual(b, 1e-9) {
		t.Error("boxes within tolerance should compare equal")
	}
	if a.ApproxEqual(a.Expand(0.1), 1e-9) {
		t.Error("expanded box should differ")
	}
	if !EmptyBox3().ApproxEqual(EmptyBox3(), 0) {
		t.Error("empty boxes should compare equal")
	}
	if a.ApproxEqual(EmptyBox3(), 1) {
		t.Error("empty and non-empty boxes should differ")
	}
}

func TestCoordBBox(t *testing.T) {
	bb := EmptyCoordBBox()
	if !bb.IsEmpty() || bb.Volume() != 0 {
		t.Fatalf("EmptyCoordBBox not empty: %+v", bb)
	}
	bb.Expand(Coord{1, 2, 3})
	bb.Expand(Coord{-1, 5, 3})
	if bb.Min != (Coord{-1, 2, 3}) || bb.Max != (Coord{1, 5, 3}) {
		t.Errorf("bbox = %+v", bb)
	}
	if d := bb.Dim(); d != (Coord{3, 4, 1}) {
		t.Errorf("Dim() = %v, want [3, 4, 1]", d)
	}
	if !bb.Contains(Coord{0, 3, 3}) || bb.Contains(Coord{0, 3, 4}) {
		t.Error("Contains gave wrong answer")
	}
	before := bb
	bb.ExpandBBox(EmptyCoordBBox())
	if bb != before {
		t.Error("expanding by an empty box should be a no-op")
	}
	if !EmptyCoordBBox().ToBox3().IsEmpty() {
		t.Error("empty CoordBBox should map to an empty Box3")
	}
}
