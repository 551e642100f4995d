// Package visualiser exposes grid listings and wireframes over gRPC.
// Messages are protobuf well-known types, so clients need no generated
// code beyond the standard library of any gRPC runtime.
package visualiser

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/banshee-data/voxelview/internal/wireframe"
)

// Ensure Server implements the gRPC interface.
var _ VisualiserServer = (*Server)(nil)

// Server implements the Visualiser gRPC service over one container.
type Server struct {
	mu        sync.RWMutex
	container *volume.Container
	builder   *wireframe.Builder
	padding   float64

	// Synthetic mode
	syntheticMode bool
}

// NewServer creates a server for c. A nil container is allowed; calls
// fail with FailedPrecondition until SetContainer or EnableSyntheticMode.
func NewServer(c *volume.Container, opts ...wireframe.Option) *Server {
	return &Server{
		container: c,
		builder:   wireframe.NewBuilder(opts...),
	}
}

// SetContainer swaps the served container.
func (s *Server) SetContainer(c *volume.Container) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.container = c
	s.syntheticMode = false
}

// SetPadding sets the default padding used by Bounds.
func (s *Server) SetPadding(p float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.padding = p
}

// EnableSyntheticMode serves generated grids instead of a file: a box, a
// sphere and a seeded scatter.
func (s *Server) EnableSyntheticMode(seed int64) error {
	xf := volume.IdentityTransform()
	c, err := volume.NewContainer(
		volume.NewBoxGrid("box", volume.CoordBBox{Max: volume.Coord{X: 15, Y: 15, Z: 15}}, 1, xf),
		volume.NewSphereGrid("sphere", volume.Coord{X: 64, Y: 8, Z: 8}, 10, xf),
		volume.NewScatterGrid("scatter", volume.CoordBBox{Min: volume.Coord{X: -200, Y: -200, Z: -200}, Max: volume.Coord{X: 200, Y: 200, Z: 200}}, 64, seed, xf),
	)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.container = c
	s.syntheticMode = true
	diagf("synthetic mode enabled (seed %d)", seed)
	return nil
}

// SyntheticMode reports whether generated grids are being served.
func (s *Server) SyntheticMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syntheticMode
}

// Container returns the served container, or nil.
func (s *Server) Container() *volume.Container {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.container
}

func (s *Server) current() (*volume.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.container == nil {
		return nil, status.Error(codes.FailedPrecondition, "no container loaded")
	}
	return s.container, nil
}

// ListGrids returns {"grids": [{name, value_type, class, active_voxels,
// leaves, metadata}], "count": n}.
func (s *Server) ListGrids(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	grids := make([]interface{}, 0, c.Len())
	for _, g := range c.Grids() {
		grids = append(grids, map[string]interface{}{
			"name":          g.Name(),
			"value_type":    g.ValueType().String(),
			"class":         g.Class().String(),
			"active_voxels": g.ActiveVoxelCount(),
			"leaves":        g.Tree().LeafCount(),
			"metadata":      metadataValues(g.Metadata()),
		})
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"count": c.Len(),
		"grids": grids,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode grids: %v", err)
	}
	tracef("ListGrids: %d grids", c.Len())
	return out, nil
}

// metadataValues converts Metadata.Values into types structpb accepts.
func metadataValues(m *volume.Metadata) map[string]interface{} {
	vals := m.Values()
	for k, v := range vals {
		if c, ok := v.([3]int32); ok {
			vals[k] = []interface{}{c[0], c[1], c[2]}
		}
	}
	return vals
}

// Wireframe builds the wireframe of req.grid (default: first grid by
// name). An optional req.depth limits it to one tree depth. The reply is
// {"grid", "segments", "groups": [{name, depth?, color, line_width,
// positions}]}, with positions flattened to 6 numbers per segment.
func (s *Server) Wireframe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	fields := req.GetFields()

	name := ""
	if v, ok := fields["grid"]; ok {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "grid must be a string")
		}
		name = sv.StringValue
	}

	builder := s.builder
	if v, ok := fields["depth"]; ok {
		depth, err := depthArg(v)
		if err != nil {
			return nil, err
		}
		builder = wireframe.NewBuilder(wireframe.WithDepths(depth))
	}

	var grp *wireframe.Group
	if name == "" {
		names := c.GridNames()
		if len(names) == 0 {
			grp = builder.Gizmo()
		} else {
			name = names[0]
		}
	}
	if grp == nil {
		g, ok := c.Grid(name)
		if !ok {
			return nil, status.Errorf(codes.NotFound, "grid %q not found", name)
		}
		grp, err = builder.Build(g)
		if errors.Is(err, volume.ErrUnsupportedGridType) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		if err != nil {
			return nil, status.Errorf(codes.Internal, "build %q: %v", name, err)
		}
	}

	out, err := structpb.NewStruct(groupFields(grp))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode wireframe: %v", err)
	}
	diagf("Wireframe %q: %d segments", grp.Name, grp.SegmentCount())
	return out, nil
}

func depthArg(v *structpb.Value) (int, error) {
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Error(codes.InvalidArgument, "depth must be a number")
	}
	d := nv.NumberValue
	if d != math.Trunc(d) || d < volume.DepthRoot || d > volume.DepthLeaf {
		return 0, status.Errorf(codes.InvalidArgument, "depth must be an integer from %d to %d, got %v", volume.DepthRoot, volume.DepthLeaf, d)
	}
	return int(d), nil
}

func groupFields(grp *wireframe.Group) map[string]interface{} {
	groups := []interface{}{}
	grp.Walk(func(g *wireframe.Group, st wireframe.State) bool {
		if len(g.Curves) == 0 {
			return true
		}
		var positions []interface{}
		for _, c := range g.Curves {
			for _, seg := range c.Segments {
				positions = append(positions, seg.A.X, seg.A.Y, seg.A.Z, seg.B.X, seg.B.Y, seg.B.Z)
			}
		}
		if positions == nil {
			positions = []interface{}{}
		}
		groups = append(groups, map[string]interface{}{
			"name":       g.Name,
			"color":      []interface{}{st.Color[0], st.Color[1], st.Color[2], st.Color[3]},
			"line_width": st.LineWidth,
			"positions":  positions,
		})
		return true
	})
	return map[string]interface{}{
		"grid":     grp.Name,
		"segments": grp.SegmentCount(),
		"groups":   groups,
	}
}

// Bounds returns the world bounds of every grid and their union. An
// optional req.padding overrides the server default.
func (s *Server) Bounds(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	padding := s.padding
	s.mu.RUnlock()
	if v, ok := req.GetFields()["padding"]; ok {
		nv, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || nv.NumberValue < 0 || math.IsInf(nv.NumberValue, 0) || math.IsNaN(nv.NumberValue) {
			return nil, status.Error(codes.InvalidArgument, "padding must be a non-negative number")
		}
		padding = nv.NumberValue
	}

	grids := map[string]interface{}{}
	total := volume.EmptyBox3()
	for _, g := range c.Grids() {
		b, err := volume.ComputeBounds(g, padding)
		if errors.Is(err, volume.ErrMissingMetadata) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		if err != nil {
			return nil, status.Errorf(codes.Internal, "bounds of %q: %v", g.Name(), err)
		}
		grids[g.Name()] = boxFields(b)
		total = total.Union(b)
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"padding": padding,
		"grids":   grids,
		"bound":   boxFields(total),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode bounds: %v", err)
	}
	return out, nil
}

func boxFields(b volume.Box3) map[string]interface{} {
	if b.IsEmpty() {
		return map[string]interface{}{"empty": true}
	}
	return map[string]interface{}{
		"empty": false,
		"min":   []interface{}{b.Min.X, b.Min.Y, b.Min.Z},
		"max":   []interface{}{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// String describes the server state for logs.
func (s *Server) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.container == nil {
		return "visualiser(no container)"
	}
	return fmt.Sprintf("visualiser(%d grids, synthetic=%t)", s.container.Len(), s.syntheticMode)
}
