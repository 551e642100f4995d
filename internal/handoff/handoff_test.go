package handoff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/volume"
)

func TestMain(m *testing.M) {
	if err := vdbfile.Initialize(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestConvertWithBound(t *testing.T) {
	dir := t.TempDir()
	c, err := volume.NewContainer(volume.NewBoxGrid("density", volume.CoordBBox{Max: volume.Coord{X: 10, Y: 10, Z: 10}}, 1, volume.IdentityTransform()))
	if err != nil {
		t.Fatal(err)
	}

	pv, err := Convert(c, dir)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if filepath.Dir(pv.Filename) != dir || filepath.Ext(pv.Filename) != vdbfile.Extension {
		t.Errorf("Filename = %q", pv.Filename)
	}
	if _, err := os.Stat(pv.Filename); err != nil {
		t.Errorf("container not written: %v", err)
	}
	if !pv.HasBound || pv.LoadAtInit {
		t.Fatalf("HasBound=%v LoadAtInit=%v", pv.HasBound, pv.LoadAtInit)
	}
	if pv.Min != (Point{-0.5, -0.5, -0.5}) || pv.Max != (Point{10.5, 10.5, 10.5}) {
		t.Errorf("bound = %v..%v", pv.Min, pv.Max)
	}
	params := pv.Params()
	if params["filename"] != pv.Filename || params["dso"] != DefaultDSO {
		t.Errorf("params = %v", params)
	}
	if _, ok := params["load_at_init"]; ok {
		t.Error("bounded node should not set load_at_init")
	}
}

func TestConvertEmptyContainerLoadsAtInit(t *testing.T) {
	c, _ := volume.NewContainer()
	pv, err := Convert(c, t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if pv.HasBound || !pv.LoadAtInit {
		t.Errorf("HasBound=%v LoadAtInit=%v, want false/true", pv.HasBound, pv.LoadAtInit)
	}
	if pv.Params()["load_at_init"] != true {
		t.Errorf("params = %v", pv.Params())
	}
}

func TestConvertEmptyGridLoadsAtInit(t *testing.T) {
	c, _ := volume.NewContainer(volume.NewGrid("empty", volume.NewTree[float32](0), volume.IdentityTransform()))
	pv, err := Convert(c, t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !pv.LoadAtInit {
		t.Error("grid without active voxels should defer to load time")
	}
}

func TestConvertUniqueNames(t *testing.T) {
	dir := t.TempDir()
	c, _ := volume.NewContainer()
	a, err := Convert(c, dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Convert(c, dir)
	if err != nil {
		t.Fatal(err)
	}
	if a.Filename == b.Filename {
		t.Error("each conversion should get its own file")
	}
}
