package wireframe

import (
	"fmt"

	"github.com/banshee-data/voxelview/internal/volume"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultDepths are the tree depths drawn by Build, root first.
var DefaultDepths = []int{0, 1, 2, 3}

// DepthPalette colours depth groups; depth d uses entry d modulo its length.
var DepthPalette = []Color4{
	{0.56, 0.06, 0.2, 0.2},
	{0.06, 0.56, 0.2, 0.2},
	{0.06, 0.2, 0.56, 0.2},
	{0.6, 0.6, 0.6, 0.2},
}

// GizmoColor and the widths below are the fixed builder styles.
var GizmoColor = Color4{0.06, 0.2, 0.56, 1}

const (
	GizmoLineWidth = 2.0
	DepthLineWidth = 0.5
)

// Builder composes per-depth wireframes into a renderable Group.
type Builder struct {
	depths []int
	gizmo  *Group
}

// Option configures a Builder.
type Option func(*Builder)

// WithDepths replaces DefaultDepths.
func WithDepths(depths ...int) Option {
	return func(b *Builder) {
		b.depths = append([]int(nil), depths...)
	}
}

// NewBuilder returns a builder with its origin gizmo already built.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{depths: append([]int(nil), DefaultDepths...)}
	for _, o := range opts {
		o(b)
	}
	b.gizmo = newGizmo()
	return b
}

func newGizmo() *Group {
	origin := r3.Vec{}
	return &Group{
		Name: "gizmo",
		State: &State{
			Color:         GizmoColor,
			LineWidth:     GizmoLineWidth,
			DrawWireframe: true,
			UseGLLines:    true,
		},
		Curves: []*Curves{{Segments: []Segment{
			{A: origin, B: r3.Vec{X: 1}},
			{A: origin, B: r3.Vec{Y: 1}},
			{A: origin, B: r3.Vec{Z: 1}},
		}}},
	}
}

// Depths returns the depths Build draws.
func (b *Builder) Depths() []int {
	return append([]int(nil), b.depths...)
}

// Gizmo returns the shared origin gizmo. Callers must not modify it.
func (b *Builder) Gizmo() *Group {
	return b.gizmo
}

// Build returns one styled child group per configured depth, each holding
// a single Curves that may be empty. A nil grid yields the gizmo. The
// grid is only read.
func (b *Builder) Build(g *volume.Grid) (*Group, error) {
	if g == nil {
		return b.gizmo, nil
	}
	root := &Group{Name: g.Name()}
	for _, d := range b.depths {
		segs, err := Extract(g, d)
		if err != nil {
			return nil, err
		}
		root.AddChild(&Group{
			Name: fmt.Sprintf("depth %d", d),
			State: &State{
				Color:         depthColor(d),
				LineWidth:     DepthLineWidth,
				DrawWireframe: true,
				UseGLLines:    true,
			},
			Curves: []*Curves{{Segments: segs}},
		})
	}
	diagf("built %q: %d depths, %d segments", g.Name(), len(b.depths), root.SegmentCount())
	return root, nil
}

// depthColor picks the palette entry for d. Negative depths wrap like
// positive ones.
func depthColor(d int) Color4 {
	n := len(DepthPalette)
	return DepthPalette[((d%n)+n)%n]
}

// Visualise builds the first grid of c by name. An absent or empty
// container, or a first grid of an unsupported type, yields the gizmo.
func (b *Builder) Visualise(c *volume.Container) *Group {
	names := c.GridNames()
	if len(names) == 0 {
		return b.gizmo
	}
	g, _ := c.Grid(names[0])
	grp, err := b.Build(g)
	if err != nil {
		opsf("visualise %q: %v", names[0], err)
		return b.gizmo
	}
	return grp
}
