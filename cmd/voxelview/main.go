// Command voxelview inspects, exports and serves volume container files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/voxelview/internal/export"
	"github.com/banshee-data/voxelview/internal/handoff"
	"github.com/banshee-data/voxelview/internal/monitor"
	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/version"
	"github.com/banshee-data/voxelview/internal/visualiser"
	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/banshee-data/voxelview/internal/wireframe"
)

var (
	logOps   = flag.Bool("log-ops", true, "Write actionable warnings and errors to stderr")
	logDiag  = flag.Bool("log-diag", false, "Write day-to-day diagnostics to stderr")
	logTrace = flag.Bool("log-trace", false, "Write per-grid and per-request detail to stderr")
)

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	setLogWriters(os.Stderr, *logOps, *logDiag, *logTrace)

	if err := vdbfile.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise container format: %v\n", err)
		os.Exit(1)
	}
	defer vdbfile.Uninitialize()

	if err := run(flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		vdbfile.Uninitialize()
		os.Exit(1)
	}
}

// run dispatches one subcommand. Output meant for the user goes to out.
func run(command string, args []string, out io.Writer) error {
	switch command {
	case "inspect":
		return runInspect(args, out)
	case "export":
		return runExport(args, out)
	case "handoff":
		return runHandoff(args, out)
	case "serve":
		return runServe(args, out)
	case "query":
		return runQuery(args, out)
	case "version":
		fmt.Fprintln(out, version.String("voxelview"))
		return nil
	case "help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", command)
	}
}

// setLogWriters points every package's enabled streams at w.
func setLogWriters(w io.Writer, ops, diag, trace bool) {
	pick := func(on bool) io.Writer {
		if on {
			return w
		}
		return nil
	}
	o, d, t := pick(ops), pick(diag), pick(trace)
	volume.SetLogWriters(o, d, t)
	wireframe.SetLogWriters(o, d, t)
	vdbfile.SetLogWriters(o, d, t)
	handoff.SetLogWriters(o, d, t)
	export.SetLogWriters(o, d, t)
	monitor.SetLogWriters(o, d, t)
	visualiser.SetLogWriters(o, d, t)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `voxelview - sparse volume inspection

Usage: voxelview [-log-ops] [-log-diag] [-log-trace] <command> [options]

Commands:
  inspect   Print container, grid and bounds information for a file
  export    Write a grid wireframe as glTF, PNG/SVG or HTML
  handoff   Convert a file for a renderer and print the procedural node
  serve     Run the HTTP inspection server and the gRPC visualiser
  query     Call a running gRPC visualiser
  version   Print version information
  help      Show this help

Run 'voxelview <command> -h' for command options.
`)
}
