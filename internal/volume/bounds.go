package volume

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ComputeBounds returns the world-space box of g's stored index bounds
// ("file bbox min" and "file bbox max").
//
// Voxel coordinates address cell centres, so the index box is widened by
// half a voxel before padding is applied. Only the min and max corners are
// transformed and the result is re-sorted per axis; under a rotating
// transform the box is not tight and may not contain the volume.
func ComputeBounds(g *Grid, padding float64) (Box3, error) {
	if g == nil {
		return EmptyBox3(), fmt.Errorf("compute bounds: nil grid")
	}
	lo, ok := g.meta.Vec3i(MetaFileBBoxMin)
	if !ok {
		return EmptyBox3(), fmt.Errorf("grid %q key %q: %w", g.name, MetaFileBBoxMin, ErrMissingMetadata)
	}
	hi, ok := g.meta.Vec3i(MetaFileBBoxMax)
	if !ok {
		return EmptyBox3(), fmt.Errorf("grid %q key %q: %w", g.name, MetaFileBBoxMax, ErrMissingMetadata)
	}
	pad := 0.5 + padding
	off := r3.Vec{X: pad, Y: pad, Z: pad}
	a := g.transform.IndexToWorld(r3.Sub(lo.Vec(), off))
	b := g.transform.IndexToWorld(r3.Add(hi.Vec(), off))
	box := EmptyBox3().ExtendBy(a).ExtendBy(b)
	if !g.transform.IsLinearScaleTranslate() {
		tracef("grid %q: bounds under non-axis-aligned transform are approximate", g.name)
	}
	return box, nil
}

// AggregateBounds unions the zero-padding bounds of every grid in c. A
// container with no grids yields EmptyBox3.
func AggregateBounds(c *Container) (Box3, error) {
	box := EmptyBox3()
	if c == nil {
		return box, nil
	}
	for _, name := range c.GridNames() {
		b, err := ComputeBounds(c.grids[name], 0)
		if err != nil {
			return EmptyBox3(), err
		}
		box = box.Union(b)
	}
	return box, nil
}
