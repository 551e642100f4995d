// Package handoff prepares containers for renderers that load volumes
// out of core: the container is written to a known path and described by
// a procedural volume node carrying its bounds.
package handoff

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/banshee-data/voxelview/internal/security"
	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/volume"
)

// DefaultDSO is the volume loader plugin named in converted nodes.
const DefaultDSO = "voxelview_volume.so"

// Point is a JSON-friendly 3D point.
type Point [3]float64

// ProceduralVolume describes a renderer volume node backed by a container
// file. When HasBound is false the renderer must expand the node at load
// time (LoadAtInit).
type ProceduralVolume struct {
	NodeType   string   `json:"node_type"`
	DSO        string   `json:"dso"`
	Filename   string   `json:"filename"`
	Grids      []string `json:"grids"`
	HasBound   bool     `json:"has_bound"`
	Min        Point    `json:"min"`
	Max        Point    `json:"max"`
	LoadAtInit bool     `json:"load_at_init"`
}

// Params returns the node parameters as a renderer would set them.
func (p *ProceduralVolume) Params() map[string]interface{} {
	params := map[string]interface{}{
		"dso":      p.DSO,
		"filename": p.Filename,
	}
	if p.HasBound {
		params["min"] = p.Min
		params["max"] = p.Max
	} else {
		params["load_at_init"] = true
	}
	return params
}

// Converter writes containers into Dir.
type Converter struct {
	Dir string
	DSO string
}

// NewConverter returns a converter writing into dir, creating it if
// needed.
func NewConverter(dir string) (*Converter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create hand-off dir: %w", err)
	}
	return &Converter{Dir: dir, DSO: DefaultDSO}, nil
}

// Convert writes c to <Dir>/<uuid>.vdbc and describes it. Bounds are read
// back from the written file; a container with no boundable grids gets
// LoadAtInit instead.
func (cv *Converter) Convert(c *volume.Container) (*ProceduralVolume, error) {
	if c == nil {
		return nil, fmt.Errorf("convert: nil container")
	}
	path, err := security.SafeJoin(cv.Dir, uuid.New().String()+vdbfile.Extension)
	if err != nil {
		return nil, err
	}
	if err := c.Write(path); err != nil {
		return nil, err
	}
	pv := &ProceduralVolume{
		NodeType: "volume",
		DSO:      cv.DSO,
		Filename: path,
		Grids:    c.GridNames(),
	}
	if pv.DSO == "" {
		pv.DSO = DefaultDSO
	}

	bound, err := vdbfile.ReadBounds(path)
	switch {
	case errors.Is(err, volume.ErrMissingMetadata):
		diagf("%s: grid without stored bounds, deferring to load time: %v", path, err)
		pv.LoadAtInit = true
	case err != nil:
		return nil, err
	case bound.IsEmpty():
		pv.LoadAtInit = true
	default:
		pv.HasBound = true
		pv.Min = Point{bound.Min.X, bound.Min.Y, bound.Min.Z}
		pv.Max = Point{bound.Max.X, bound.Max.Y, bound.Max.Z}
	}
	opsf("converted %d grids to %s (load_at_init=%t)", c.Len(), path, pv.LoadAtInit)
	return pv, nil
}

// Convert is Converter.Convert with a default converter for dir.
func Convert(c *volume.Container, dir string) (*ProceduralVolume, error) {
	cv, err := NewConverter(dir)
	if err != nil {
		return nil, err
	}
	return cv.Convert(c)
}
