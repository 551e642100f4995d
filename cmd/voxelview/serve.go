package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/voxelview/internal/config"
	"github.com/banshee-data/voxelview/internal/monitor"
	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/visualiser"
	"github.com/banshee-data/voxelview/internal/wireframe"
)

func runServe(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "Path to a view config JSON file (default: "+config.DefaultConfigPath+" if present)")
	listen := fs.String("listen", "", "HTTP listen address (overrides config)")
	grpcAddr := fs.String("grpc", "", "gRPC listen address (overrides config)")
	noGRPC := fs.Bool("no-grpc", false, "Do not start the gRPC visualiser")
	synthetic := fs.Bool("synthetic", false, "Serve generated grids instead of a file")
	seed := fs.Int64("seed", 1, "Seed for -synthetic scatter grids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *synthetic == (fs.NArg() == 1) || fs.NArg() > 1 {
		return errors.New("serve needs exactly one container file, or -synthetic")
	}

	view := config.LoadDefaultConfig()
	if *configPath != "" {
		var err error
		if view, err = config.LoadViewConfig(*configPath); err != nil {
			return err
		}
	}
	if *listen != "" {
		view.ListenAddr = listen
	}
	if *grpcAddr != "" {
		view.GRPCAddr = grpcAddr
	}

	vs := visualiser.NewServer(nil, wireframe.WithDepths(view.GetDepths()...))
	vs.SetPadding(view.GetPadding())

	wsCfg := monitor.WebServerConfig{View: view}
	if *synthetic {
		if err := vs.EnableSyntheticMode(*seed); err != nil {
			return err
		}
	} else {
		f, err := vdbfile.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		c, err := f.ReadContainer()
		if err != nil {
			return err
		}
		vs.SetContainer(c)
		wsCfg.File = f
	}
	wsCfg.Container = vs.Container()
	ws := monitor.NewWebServer(wsCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, out, ws, vs, view, !*noGRPC)
}

// serve runs the HTTP server and, when withGRPC is set, the gRPC
// visualiser until ctx is done or either fails.
func serve(ctx context.Context, out io.Writer, ws *monitor.WebServer, vs *visualiser.Server, view *config.ViewConfig, withGRPC bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
		cancel()
	}

	fmt.Fprintf(out, "serving %s on http://%s\n", vs, view.GetListenAddr())
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Start(ctx); err != nil {
			fail(err)
		}
	}()

	if withGRPC {
		fmt.Fprintf(out, "gRPC visualiser on %s\n", view.GetGRPCAddr())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := visualiser.ListenAndServe(ctx, view.GetGRPCAddr(), vs); err != nil {
				fail(err)
			}
		}()
	}

	wg.Wait()
	fmt.Fprintln(out, "graceful shutdown complete")
	return firstErr
}
