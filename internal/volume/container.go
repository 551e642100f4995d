package volume

import (
	"errors"
	"fmt"
	"sort"
)

// Container owns a set of uniquely named grids plus container-level
// metadata. Grids inserted into a container belong to it; use Duplicate
// to obtain an independent copy.
type Container struct {
	grids map[string]*Grid
	meta  *Metadata
}

// NewContainer returns a container holding grids. Duplicate names fail
// with ErrDuplicateGrid.
func NewContainer(grids ...*Grid) (*Container, error) {
	c := &Container{grids: make(map[string]*Grid), meta: NewMetadata()}
	for _, g := range grids {
		if err := c.Insert(g); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Insert adds g to the container.
func (c *Container) Insert(g *Grid) error {
	if g == nil {
		return fmt.Errorf("insert: nil grid")
	}
	if _, ok := c.grids[g.name]; ok {
		return fmt.Errorf("insert %q: %w", g.name, ErrDuplicateGrid)
	}
	if c.grids == nil {
		c.grids = make(map[string]*Grid)
	}
	c.grids[g.name] = g
	return nil
}

// Remove drops the named grid and reports whether it was present.
func (c *Container) Remove(name string) bool {
	if _, ok := c.grids[name]; !ok {
		return false
	}
	delete(c.grids, name)
	return true
}

// Grid returns the named grid. The second result is false when no grid
// has that name.
func (c *Container) Grid(name string) (*Grid, bool) {
	if c == nil {
		return nil, false
	}
	g, ok := c.grids[name]
	return g, ok
}

// GridNames returns every grid name in sorted order.
func (c *Container) GridNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.grids))
	for n := range c.grids {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Grids returns the grids ordered as GridNames.
func (c *Container) Grids() []*Grid {
	names := c.GridNames()
	out := make([]*Grid, len(names))
	for i, n := range names {
		out[i] = c.grids[n]
	}
	return out
}

func (c *Container) Len() int {
	if c == nil {
		return 0
	}
	return len(c.grids)
}

// Metadata returns the container-level metadata.
func (c *Container) Metadata() *Metadata { return c.meta }

// Bound returns the union of every grid's world bounds.
func (c *Container) Bound() (Box3, error) {
	return AggregateBounds(c)
}

// Write stores every grid, in GridNames order, in the container file at
// path. The format is chosen by extension from the registered formats.
func (c *Container) Write(path string) error {
	f, err := formatFor(path)
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Write(c, path); err != nil {
		opsf("write %s failed: %v", path, err)
		var ioe *IOError
		if errors.As(err, &ioe) {
			return err
		}
		return &IOError{Op: "write", Path: path, Err: err}
	}
	diagf("wrote %d grids to %s", c.Len(), path)
	return nil
}

// Duplicate deep-copies every grid and the container metadata. A nil
// container duplicates to an empty one.
func (c *Container) Duplicate() *Container {
	if c == nil {
		return &Container{grids: make(map[string]*Grid), meta: NewMetadata()}
	}
	d := &Container{grids: make(map[string]*Grid, len(c.grids)), meta: c.meta.Clone()}
	for n, g := range c.grids {
		d.grids[n] = g.DeepCopy()
	}
	return d
}

// MemoryUsage sums the estimated memory of every grid.
func (c *Container) MemoryUsage() int64 {
	var total int64
	for _, g := range c.grids {
		total += g.MemoryUsage()
	}
	return total
}
