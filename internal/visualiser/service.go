package visualiser

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "voxelview.Visualiser"

// Full method names, as used on the wire.
const (
	ListGridsMethod = "/" + ServiceName + "/ListGrids"
	WireframeMethod = "/" + ServiceName + "/Wireframe"
	BoundsMethod    = "/" + ServiceName + "/Bounds"
)

// VisualiserServer is the server API for the Visualiser service.
type VisualiserServer interface {
	ListGrids(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Wireframe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Bounds(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Visualiser service for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VisualiserServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListGrids", Handler: listGridsHandler},
		{MethodName: "Wireframe", Handler: wireframeHandler},
		{MethodName: "Bounds", Handler: boundsHandler},
	},
	Metadata: "voxelview/visualiser",
}

// Register adds srv to r.
func Register(r grpc.ServiceRegistrar, srv VisualiserServer) {
	r.RegisterService(&ServiceDesc, srv)
}

func listGridsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VisualiserServer).ListGrids(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListGridsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VisualiserServer).ListGrids(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func wireframeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VisualiserServer).Wireframe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: WireframeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VisualiserServer).Wireframe(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func boundsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VisualiserServer).Bounds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BoundsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VisualiserServer).Bounds(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the Visualiser service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ListGrids lists the served grids.
func (c *Client) ListGrids(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListGridsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Wireframe requests the wireframe of grid; an empty grid selects the
// first one. depth < 0 requests every depth.
func (c *Client) Wireframe(ctx context.Context, grid string, depth int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	fields := map[string]interface{}{}
	if grid != "" {
		fields["grid"] = grid
	}
	if depth >= 0 {
		fields["depth"] = depth
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, WireframeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Bounds requests per-grid and aggregate bounds. padding < 0 uses the
// server default.
func (c *Client) Bounds(ctx context.Context, padding float64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	fields := map[string]interface{}{}
	if padding >= 0 {
		fields["padding"] = padding
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BoundsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListenAndServe serves s on addr until ctx is cancelled, then stops
// gracefully.
func ListenAndServe(ctx context.Context, addr string, s *Server, opts ...grpc.ServerOption) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return Serve(ctx, lis, s, opts...)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, lis net.Listener, s *Server, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	Register(gs, s)

	errCh := make(chan error, 1)
	go func() {
		diagf("gRPC server listening on %s (%s)", lis.Addr(), s)
		errCh <- gs.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			opsf("gRPC server failed: %v", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}
	diagf("shutting down gRPC server...")
	gs.GracefulStop()
	<-errCh
	diagf("gRPC server stopped")
	return nil
}
