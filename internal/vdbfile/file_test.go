package vdbfile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

func testContainer(t *testing.T) *volume.Container {
	t.Helper()
	xf, err := volume.NewScaleTranslateTransform(r3.Vec{X: 0.25, Y: 0.25, Z: 0.25}, r3.Vec{X: 1, Y: 2, Z: 3})
	if err != nil {
		t.Fatal(err)
	}
	density := volume.NewBoxGrid("density", volume.CoordBBox{Max: volume.Coord{X: 10, Y: 10, Z: 10}}, 0.5, volume.IdentityTransform())
	density.Metadata().SetString("creator", "test")
	density.Metadata().SetBool("is_saved", true)
	density.Metadata().SetOpaque("voxel size", "vec3d", []byte{1, 2, 3, 4})

	sphere := volume.NewSphereGrid("temperature", volume.Coord{X: -20, Y: 5, Z: 100}, 6, xf)

	vel := volume.NewTree[[3]float32]([3]float32{0, 0, 0})
	vel.SetValue(volume.Coord{X: 1, Y: 1, Z: 1}, [3]float32{1, 2, 3})
	velGrid := volume.NewGrid("vel", vel, volume.IdentityTransform())

	c, err := volume.NewContainer(density, sphere, velGrid)
	if err != nil {
		t.Fatal(err)
	}
	c.Metadata().SetString("scene", "unit")
	c.Metadata().SetInt64("frame", 1001)
	return c
}

func TestRoundTrip(t *testing.T) {
	c := testContainer(t)
	path := filepath.Join(t.TempDir(), "scene.vdbc")

	if err := c.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := volume.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if diff := cmp.Diff(c.GridNames(), back.GridNames()); diff != "" {
		t.Errorf("GridNames mismatch (-want +got):\n%s", diff)
	}

	// vel has no stats in memory; bound only the grids that do.
	c.Remove("vel")
	back.Remove("vel")
	want, err := c.Bound()
	if err != nil {
		t.Fatal(err)
	}
	got, err := back.Bound()
	if err != nil {
		t.Fatal(err)
	}
	if !got.ApproxEqual(want, 1e-9) {
		t.Errorf("Bound() = %v, want %v", got, want)
	}
}

func TestRoundTripPreservesGridContents(t *testing.T) {
	c := testContainer(t)
	path := filepath.Join(t.TempDir(), "scene.vdbc")
	if err := WriteContainer(c, path); err != nil {
		t.Fatalf("WriteContainer: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if f.UUID() == "" || f.FormatVersion() != FormatVersion || f.Generator() != Generator {
		t.Errorf("container info = %q %d %q", f.UUID(), f.FormatVersion(), f.Generator())
	}

	meta, err := f.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := meta.Int64("frame"); n != 1001 {
		t.Errorf("container frame = %d", n)
	}

	orig, _ := c.Grid("temperature")
	g, err := f.ReadGrid("temperature")
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if !g.Transform().Equal(orig.Transform()) {
		t.Errorf("transform = %v, want %v", g.Transform().Matrix(), orig.Transform().Matrix())
	}
	if g.Class() != volume.ClassFogVolume {
		t.Errorf("class = %v", g.Class())
	}
	ot, _ := volume.FloatTree(orig)
	gt, ok := volume.FloatTree(g)
	if !ok {
		t.Fatalf("temperature read back as %v", g.ValueType())
	}
	if gt.ActiveVoxelCount() != ot.ActiveVoxelCount() || gt.LeafCount() != ot.LeafCount() {
		t.Errorf("counts = %d/%d, want %d/%d", gt.ActiveVoxelCount(), gt.LeafCount(), ot.ActiveVoxelCount(), ot.LeafCount())
	}
	probe := volume.Coord{X: -18, Y: 5, Z: 101}
	if gt.Value(probe) != ot.Value(probe) || !gt.IsActive(probe) {
		t.Errorf("voxel %v = %v, want %v", probe, gt.Value(probe), ot.Value(probe))
	}

	vel, err := f.ReadGrid("vel")
	if err != nil {
		t.Fatal(err)
	}
	vt, ok := volume.TreeOf[[3]float32](vel)
	if !ok || vt.Value(volume.Coord{X: 1, Y: 1, Z: 1}) != [3]float32{1, 2, 3} {
		t.Error("vec3 voxel lost in round trip")
	}
	if _, ok := vel.Metadata().Vec3i(volume.MetaFileBBoxMin); !ok {
		t.Error("stored grid should carry file bbox metadata")
	}
	origVel, _ := c.Grid("vel")
	if _, has := origVel.Metadata().Get(volume.MetaFileBBoxMin); has {
		t.Error("writing must not add stats to the caller's grid")
	}
}

func TestRoundTripMetadataFallback(t *testing.T) {
	c := testContainer(t)
	path := filepath.Join(t.TempDir(), "meta.vdbc")
	if err := WriteContainer(c, path); err != nil {
		t.Fatal(err)
	}
	back, err := OpenContainer(path)
	if err != nil {
		t.Fatal(err)
	}
	g, _ := back.Grid("density")
	vals := g.Metadata().Values()
	if vals["voxel size"] != "unsupported type: vec3d" {
		t.Errorf("opaque metadata = %v", vals["voxel size"])
	}
	if vals["creator"] != "test" || vals["is_saved"] != true {
		t.Errorf("typed metadata = %v", vals)
	}
	raw, _ := g.Metadata().Get("voxel size")
	if diff := cmp.Diff(volume.OpaqueMeta{Type: "vec3d", Data: []byte{1, 2, 3, 4}}, raw); diff != "" {
		t.Errorf("opaque bytes changed:\n%s", diff)
	}
}

func TestRoundTripOpaqueWithBuiltinTypeName(t *testing.T) {
	c := testContainer(t)
	g, _ := c.Grid("density")
	g.Metadata().SetOpaque("weird", volume.TypeVec3i, []byte{1, 2, 3})
	g.Metadata().SetOpaque("flag", volume.TypeBool, []byte{})

	path := filepath.Join(t.TempDir(), "opaque.vdbc")
	if err := WriteContainer(c, path); err != nil {
		t.Fatal(err)
	}
	back, err := OpenContainer(path)
	if err != nil {
		t.Fatalf("written file must reopen: %v", err)
	}
	bg, _ := back.Grid("density")
	raw, _ := bg.Metadata().Get("weird")
	if diff := cmp.Diff(volume.OpaqueMeta{Type: volume.TypeVec3i, Data: []byte{1, 2, 3}}, raw); diff != "" {
		t.Errorf("opaque vec3i changed:\n%s", diff)
	}
	if v := bg.Metadata().Values()["flag"]; v != "unsupported type: bool" {
		t.Errorf("opaque bool exported as %v", v)
	}
}

func TestReadAllGridMetadata(t *testing.T) {
	c := testContainer(t)
	path := filepath.Join(t.TempDir(), "lazy.vdbc")
	if err := WriteContainer(c, path); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	grids, err := f.ReadAllGridMetadata()
	if err != nil {
		t.Fatal(err)
	}
	if len(grids) != 3 {
		t.Fatalf("got %d grids", len(grids))
	}
	for _, g := range grids {
		if !g.Tree().Empty() {
			t.Errorf("grid %q: metadata read loaded leaves", g.Name())
		}
		if n, ok := g.Metadata().Int64(volume.MetaFileVoxelCount); !ok || n == 0 {
			t.Errorf("grid %q: voxel count metadata = %d, %v", g.Name(), n, ok)
		}
	}

	bounds, err := ReadBounds(path)
	if err != nil {
		t.Fatal(err)
	}
	if bounds.IsEmpty() {
		t.Error("ReadBounds returned an empty box")
	}
}

func TestEmptyContainer(t *testing.T) {
	c, _ := volume.NewContainer()
	path := filepath.Join(t.TempDir(), "empty.vdbc")
	if err := c.Write(path); err != nil {
		t.Fatal(err)
	}
	back, err := OpenContainer(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Len() != 0 {
		t.Errorf("Len = %d", back.Len())
	}
	b, err := back.Bound()
	if err != nil || !b.IsEmpty() {
		t.Errorf("Bound = %v, %v", b, err)
	}
}

func TestReadGridNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.vdbc")
	c, _ := volume.NewContainer(volume.NewBoxGrid("a", volume.CoordBBox{}, 1, volume.IdentityTransform()))
	if err := WriteContainer(c, path); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.ReadGrid("b"); !errors.Is(err, ErrGridNotFound) {
		t.Errorf("err = %v, want ErrGridNotFound", err)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.vdbc")
	_, err := Open(missing)
	var ioe *volume.IOError
	if !errors.As(err, &ioe) || ioe.Path != missing || ioe.Op != "open" {
		t.Errorf("missing file err = %v", err)
	}
	if _, statErr := os.Stat(missing); !os.IsNotExist(statErr) {
		t.Error("Open must not create missing files")
	}

	junk := filepath.Join(dir, "junk.vdbc")
	if err := os.WriteFile(junk, []byte("not sqlite at all, not even close"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(junk); err == nil {
		t.Error("opening a non-container file should fail")
	}
}

func TestWriteFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "missing", "out.vdbc")
	err := WriteContainer(testContainer(t), path)
	var ioe *volume.IOError
	if !errors.As(err, &ioe) || ioe.Path != path {
		t.Fatalf("err = %v, want IOError for %s", err, path)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("write failure left %d entries behind", len(entries))
	}
}

func TestWrittenFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "mode.vdbc")
	if err := WriteContainer(testContainer(t), path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != FileMode {
		t.Errorf("file mode = %o, want %o", got, FileMode)
	}
}

func TestEmptiedGridDropsStaleBounds(t *testing.T) {
	g := volume.NewGrid("emptied", volume.NewTree[float32](0), volume.IdentityTransform())
	g.Metadata().SetVec3i(volume.MetaFileBBoxMin, volume.Coord{})
	g.Metadata().SetVec3i(volume.MetaFileBBoxMax, volume.Coord{X: 10, Y: 10, Z: 10})
	c, _ := volume.NewContainer(g)

	path := filepath.Join(t.TempDir(), "emptied.vdbc")
	if err := WriteContainer(c, path); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.Metadata().Get(volume.MetaFileBBoxMin); !ok {
		t.Error("writer must not mutate the caller's grid")
	}

	back, err := OpenContainer(path)
	if err != nil {
		t.Fatal(err)
	}
	bg, _ := back.Grid("emptied")
	for _, k := range []string{volume.MetaFileBBoxMin, volume.MetaFileBBoxMax} {
		if _, ok := bg.Metadata().Get(k); ok {
			t.Errorf("stored grid kept stale %q", k)
		}
	}
	if _, err := volume.ComputeBounds(bg, 0); !errors.Is(err, volume.ErrMissingMetadata) {
		t.Errorf("ComputeBounds err = %v, want ErrMissingMetadata", err)
	}
}

func TestOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.vdbc")
	first, _ := volume.NewContainer(volume.NewBoxGrid("a", volume.CoordBBox{}, 1, volume.IdentityTransform()))
	second, _ := volume.NewContainer(volume.NewBoxGrid("b", volume.CoordBBox{}, 1, volume.IdentityTransform()))
	if err := WriteContainer(first, path); err != nil {
		t.Fatal(err)
	}
	if err := WriteContainer(second, path); err != nil {
		t.Fatal(err)
	}
	back, err := OpenContainer(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b"}, back.GridNames()); diff != "" {
		t.Errorf("overwrite kept old grids:\n%s", diff)
	}
}
