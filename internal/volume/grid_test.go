package volume

import (
	"testing"
)

func TestTreeOfCapability(t *testing.T) {
	fg := NewGrid("density", NewTree[float32](0), IdentityTransform())
	vg := NewGrid("vel", NewTree[[3]float32]([3]float32{}), IdentityTransform())

	if _, ok := FloatTree(fg); !ok {
		t.Error("FloatTree on float grid should succeed")
	}
	if _, ok := FloatTree(vg); ok {
		t.Error("FloatTree on vec3 grid should fail")
	}
	if _, ok := TreeOf[[3]float32](vg); !ok {
		t.Error("TreeOf[[3]float32] on vec3 grid should succeed")
	}
	if _, ok := FloatTree(nil); ok {
		t.Error("FloatTree(nil) should fail")
	}
	if fg.ValueType() != ValueFloat || vg.ValueType() != ValueVec3f {
		t.Errorf("value types = %v, %v", fg.ValueType(), vg.ValueType())
	}
}

func TestValueTypeRoundTrip(t *testing.T) {
	for _, vt := range []ValueType{ValueFloat, ValueDouble, ValueInt32, ValueInt64, ValueBool, ValueVec3f} {
		got, err := ParseValueType(vt.String())
		if err != nil || got != vt {
			t.Errorf("ParseValueType(%q) = %v, %v", vt.String(), got, err)
		}
	}
	if _, err := ParseValueType("half"); err == nil {
		t.Error("unknown value type should fail")
	}
	if ParseGridClass("Fog Volume") != ClassFogVolume {
		t.Error("ParseGridClass should be case insensitive")
	}
	if ParseGridClass("nonsense") != ClassUnknown {
		t.Error("unknown class should map to ClassUnknown")
	}
}

func TestStatsMetadata(t *testing.T) {
	g := NewBoxGrid("box", CoordBBox{Min: Coord{0, 0, 0}, Max: Coord{2, 3, 4}}, 1, IdentityTransform())

	lo, ok := g.Metadata().Vec3i(MetaFileBBoxMin)
	if !ok || lo != (Coord{0, 0, 0}) {
		t.Errorf("file bbox min = %v, %v", lo, ok)
	}
	hi, ok := g.Metadata().Vec3i(MetaFileBBoxMax)
	if !ok || hi != (Coord{2, 3, 4}) {
		t.Errorf("file bbox max = %v, %v", hi, ok)
	}
	if n, _ := g.Metadata().Int64(MetaFileVoxelCount); n != 3*4*5 {
		t.Errorf("file voxel count = %d, want 60", n)
	}

	empty := NewGrid("empty", NewTree[float32](0), IdentityTransform())
	stats := empty.StatsMetadata()
	if _, ok := stats.Get(MetaFileBBoxMin); ok {
		t.Error("empty tree should not produce bbox metadata")
	}
	if empty.Metadata().Len() != 0 {
		t.Error("StatsMetadata must not mutate the grid")
	}
}

func TestAddStatsMetadataDropsStaleBBox(t *testing.T) {
	g := NewBoxGrid("box", CoordBBox{Max: Coord{2, 2, 2}}, 1, IdentityTransform())
	empty := NewGrid("empty", NewTree[float32](0), IdentityTransform())
	empty.Metadata().SetVec3i(MetaFileBBoxMin, Coord{1, 1, 1})
	empty.Metadata().SetVec3i(MetaFileBBoxMax, Coord{4, 4, 4})
	empty.Metadata().SetString("creator", "test")

	empty.AddStatsMetadata()
	if _, ok := empty.Metadata().Get(MetaFileBBoxMin); ok {
		t.Error("stale bbox min kept for an empty tree")
	}
	if _, ok := empty.Metadata().Get(MetaFileBBoxMax); ok {
		t.Error("stale bbox max kept for an empty tree")
	}
	if n, ok := empty.Metadata().Int64(MetaFileVoxelCount); !ok || n != 0 {
		t.Errorf("file voxel count = %d, %v", n, ok)
	}
	if s, _ := empty.Metadata().String("creator"); s != "test" {
		t.Error("unrelated keys must survive")
	}

	g.AddStatsMetadata()
	if _, ok := g.Metadata().Vec3i(MetaFileBBoxMin); !ok {
		t.Error("non-empty tree must keep bbox metadata")
	}
}

func TestGridDeepCopy(t *testing.T) {
	g := NewBoxGrid("box", CoordBBox{Max: Coord{1, 1, 1}}, 1, IdentityTransform())
	c := g.DeepCopy()

	ct, _ := FloatTree(c)
	ct.SetValue(Coord{100, 100, 100}, 5)
	c.Metadata().SetString("note", "copy")

	gt, _ := FloatTree(g)
	if gt.IsActive(Coord{100, 100, 100}) {
		t.Error("copy shares tree with original")
	}
	if _, ok := g.Metadata().Get("note"); ok {
		t.Error("copy shares metadata with original")
	}
	if r := g.WithName("other"); r.Name() != "other" || g.Name() != "box" {
		t.Error("WithName should rename only the copy")
	}
}

func TestSyntheticGrids(t *testing.T) {
	s := NewSphereGrid("sphere", Coord{0, 0, 0}, 4, IdentityTransform())
	tree, _ := FloatTree(s)
	if v := tree.Value(Coord{0, 0, 0}); v != 1 {
		t.Errorf("sphere centre = %v, want 1", v)
	}
	if tree.IsActive(Coord{4, 4, 4}) {
		t.Error("corner outside radius should be inactive")
	}

	a := NewScatterGrid("a", CoordBBox{Max: Coord{100, 100, 100}}, 50, 7, IdentityTransform())
	b := NewScatterGrid("b", CoordBBox{Max: Coord{100, 100, 100}}, 50, 7, IdentityTransform())
	if a.ActiveVoxelCount() != b.ActiveVoxelCount() {
		t.Error("same seed should give the same grid")
	}
}
