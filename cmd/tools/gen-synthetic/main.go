// Command gen-synthetic writes sample volume container files for testing
// the viewer.
package main

import (
	"flag"
	"log"

	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/volume"
)

func main() {
	output := flag.String("o", "sample"+vdbfile.Extension, "output path")
	seed := flag.Int64("seed", 1, "seed for the scatter grid")
	points := flag.Int("n", 256, "number of scattered voxels")
	voxel := flag.Float64("voxel", 0.1, "voxel size in world units")
	flag.Parse()

	if err := vdbfile.Initialize(); err != nil {
		log.Fatalf("initialise: %v", err)
	}
	defer vdbfile.Uninitialize()

	c, err := generate(*seed, *points, *voxel)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	if err := vdbfile.WriteContainer(c, *output); err != nil {
		log.Fatalf("write: %v", err)
	}
	log.Printf("✓ Created: %s (%d grids)", *output, c.Len())
}

func generate(seed int64, points int, voxel float64) (*volume.Container, error) {
	xf, err := volume.NewLinearTransform(voxel)
	if err != nil {
		return nil, err
	}
	c, err := volume.NewContainer(
		volume.NewBoxGrid("box", volume.CoordBBox{Max: volume.Coord{X: 31, Y: 15, Z: 7}}, 1, xf),
		volume.NewSphereGrid("sphere", volume.Coord{X: 80, Y: 16, Z: 16}, 12, xf),
		volume.NewScatterGrid("scatter", volume.CoordBBox{
			Min: volume.Coord{X: -256, Y: -256, Z: -64},
			Max: volume.Coord{X: 256, Y: 256, Z: 64},
		}, points, seed, xf),
	)
	if err != nil {
		return nil, err
	}
	c.Metadata().SetString("creator", "gen-synthetic")
	c.Metadata().SetInt64("seed", seed)
	return c, nil
}
