package volume

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestComputeBoundsScenario(t *testing.T) {
	g := NewBoxGrid("density", CoordBBox{Min: Coord{0, 0, 0}, Max: Coord{10, 10, 10}}, 1, IdentityTransform())
	got, err := ComputeBounds(g, 0)
	if err != nil {
		t.Fatalf("ComputeBounds: %v", err)
	}
	want := Box3{Min: r3.Vec{X: -0.5, Y: -0.5, Z: -0.5}, Max: r3.Vec{X: 10.5, Y: 10.5, Z: 10.5}}
	if !got.ApproxEqual(want, 1e-12) {
		t.Errorf("ComputeBounds = %v, want %v", got, want)
	}
}

func TestComputeBoundsPaddingAndTransform(t *testing.T) {
	xf, err := NewScaleTranslateTransform(r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{X: 100})
	if err != nil {
		t.Fatal(err)
	}
	g := NewGrid("g", NewTree[float32](0), xf)
	g.Metadata().SetVec3i(MetaFileBBoxMin, Coord{0, 0, 0})
	g.Metadata().SetVec3i(MetaFileBBoxMax, Coord{3, 3, 3})

	got, err := ComputeBounds(g, 1)
	if err != nil {
		t.Fatalf("ComputeBounds: %v", err)
	}
	// Index box [-1.5, 4.5] scaled by 2 and shifted 100 in X.
	want := Box3{Min: r3.Vec{X: 97, Y: -3, Z: -3}, Max: r3.Vec{X: 109, Y: 9, Z: 9}}
	if !got.ApproxEqual(want, 1e-12) {
		t.Errorf("ComputeBounds = %v, want %v", got, want)
	}
}

func TestComputeBoundsNegativeScale(t *testing.T) {
	xf, err := NewScaleTranslateTransform(r3.Vec{X: -1, Y: 1, Z: 1}, r3.Vec{})
	if err != nil {
		t.Fatal(err)
	}
	g := NewGrid("flip", NewTree[float32](0), xf)
	g.Metadata().SetVec3i(MetaFileBBoxMin, Coord{0, 0, 0})
	g.Metadata().SetVec3i(MetaFileBBoxMax, Coord{1, 1, 1})
	got, err := ComputeBounds(g, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsEmpty() || got.Min.X != -1.5 || got.Max.X != 0.5 {
		t.Errorf("mirrored bounds = %v", got)
	}
}

func TestComputeBoundsMissingMetadata(t *testing.T) {
	g := NewGrid("bare", NewTree[float32](0), IdentityTransform())
	if _, err := ComputeBounds(g, 0); !errors.Is(err, ErrMissingMetadata) {
		t.Errorf("err = %v, want ErrMissingMetadata", err)
	}

	g.Metadata().SetVec3i(MetaFileBBoxMin, Coord{})
	g.Metadata().SetString(MetaFileBBoxMax, "not a vector")
	if _, err := ComputeBounds(g, 0); !errors.Is(err, ErrMissingMetadata) {
		t.Errorf("wrong-typed key err = %v, want ErrMissingMetadata", err)
	}
}

func TestAggregateBounds(t *testing.T) {
	empty, _ := NewContainer()
	b, err := AggregateBounds(empty)
	if err != nil || b != EmptyBox3() {
		t.Errorf("empty container bounds = %v, %v; want EmptyBox3", b, err)
	}

	a := NewBoxGrid("a", CoordBBox{Min: Coord{0, 0, 0}, Max: Coord{1, 1, 1}}, 1, IdentityTransform())
	c := NewBoxGrid("c", CoordBBox{Min: Coord{5, -3, 0}, Max: Coord{6, 0, 2}}, 1, IdentityTransform())
	cont, err := NewContainer(a, c)
	if err != nil {
		t.Fatal(err)
	}
	got, err := cont.Bound()
	if err != nil {
		t.Fatal(err)
	}
	want := Box3{Min: r3.Vec{X: -0.5, Y: -3.5, Z: -0.5}, Max: r3.Vec{X: 6.5, Y: 1.5, Z: 2.5}}
	if !got.ApproxEqual(want, 1e-12) {
		t.Errorf("Bound() = %v, want %v", got, want)
	}

	bare := NewGrid("bare", NewTree[float32](0), IdentityTransform())
	if err := cont.Insert(bare); err != nil {
		t.Fatal(err)
	}
	if _, err := cont.Bound(); !errors.Is(err, ErrMissingMetadata) {
		t.Errorf("Bound() with unbounded grid err = %v", err)
	}
}
