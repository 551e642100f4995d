package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/voxelview/internal/config"
	"github.com/banshee-data/voxelview/internal/visualiser"
)

func runQuery(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(out)
	addr := fs.String("addr", "localhost"+config.DefaultViewConfig().GetGRPCAddr(), "Visualiser gRPC address")
	gridName := fs.String("grid", "", "Grid for the wireframe method (default: first grid)")
	depth := fs.Int("depth", -1, "Single tree depth for the wireframe method")
	padding := fs.Float64("padding", -1, "Padding for the bounds method (default: server setting)")
	timeout := fs.Duration("timeout", 10*time.Second, "Call timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("query needs one method: grids, wireframe or bounds")
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", *addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	return query(ctx, visualiser.NewClient(conn), fs.Arg(0), *gridName, *depth, *padding, out)
}

func query(ctx context.Context, c *visualiser.Client, method, grid string, depth int, padding float64, out io.Writer) error {
	var (
		resp *structpb.Struct
		err  error
	)
	switch method {
	case "grids":
		resp, err = c.ListGrids(ctx)
	case "wireframe":
		resp, err = c.Wireframe(ctx, grid, depth)
	case "bounds":
		resp, err = c.Bounds(ctx, padding)
	default:
		return fmt.Errorf("unknown query method: %s", method)
	}
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
