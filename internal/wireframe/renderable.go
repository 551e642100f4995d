package wireframe

import "gonum.org/v1/gonum/spatial/r3"

// Color4 is an RGBA colour with components in [0, 1].
type Color4 [4]float32

// State is the draw style applied to a group and inherited by its
// descendants unless they set their own.
type State struct {
	Color         Color4  `json:"color"`
	LineWidth     float32 `json:"line_width"`
	DrawWireframe bool    `json:"draw_wireframe"`
	DrawSolid     bool    `json:"draw_solid"`
	UseGLLines    bool    `json:"use_gl_lines"`
}

// Curves is a set of linear two-vertex curves.
type Curves struct {
	Segments []Segment
}

// Positions flattens the segments into a position list.
func (c *Curves) Positions() [][3]float32 {
	out := make([][3]float32, 0, 2*len(c.Segments))
	for _, s := range c.Segments {
		out = append(out, vec32(s.A), vec32(s.B))
	}
	return out
}

// VertsPerCurve returns 2 for every segment.
func (c *Curves) VertsPerCurve() []int {
	out := make([]int, len(c.Segments))
	for i := range out {
		out[i] = 2
	}
	return out
}

func vec32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Group is a node of the renderable tree. A nil State inherits from the
// parent group.
type Group struct {
	Name     string
	State    *State
	Curves   []*Curves
	Children []*Group
}

// AddChild appends c and returns it.
func (g *Group) AddChild(c *Group) *Group {
	g.Children = append(g.Children, c)
	return c
}

// Walk visits g and its descendants pre-order with each group's effective
// state. Returning false skips the group's children.
func (g *Group) Walk(fn func(grp *Group, state State) bool) {
	g.walk(State{}, fn)
}

func (g *Group) walk(inherited State, fn func(*Group, State) bool) {
	st := inherited
	if g.State != nil {
		st = *g.State
	}
	if !fn(g, st) {
		return
	}
	for _, c := range g.Children {
		c.walk(st, fn)
	}
}

// SegmentCount totals the segments of every Curves under g.
func (g *Group) SegmentCount() int {
	var n int
	g.Walk(func(grp *Group, _ State) bool {
		for _, c := range grp.Curves {
			n += len(c.Segments)
		}
		return true
	})
	return n
}

// Bounds returns the box enclosing every segment endpoint under g.
func (g *Group) Bounds() (lo, hi r3.Vec, ok bool) {
	g.Walk(func(grp *Group, _ State) bool {
		for _, c := range grp.Curves {
			for _, s := range c.Segments {
				for _, p := range [2]r3.Vec{s.A, s.B} {
					if !ok {
						lo, hi, ok = p, p, true
						continue
					}
					lo = r3.Vec{X: min(lo.X, p.X), Y: min(lo.Y, p.Y), Z: min(lo.Z, p.Z)}
					hi = r3.Vec{X: max(hi.X, p.X), Y: max(hi.Y, p.Y), Z: max(hi.Z, p.Z)}
				}
			}
		}
		return true
	})
	return lo, hi, ok
}
