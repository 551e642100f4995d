package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/banshee-data/voxelview/internal/config"
	"github.com/banshee-data/voxelview/internal/export"
	"github.com/banshee-data/voxelview/internal/scene"
	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/banshee-data/voxelview/internal/wireframe"
)

func runExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "Path to a view config JSON file")
	output := fs.String("o", "", "Output file (format taken from the extension unless -format is set)")
	format := fs.String("format", "", "Output format: glb, gltf, png, svg or html")
	gridName := fs.String("grid", "", "Grid to export (default: first grid by name)")
	depth := fs.Int("depth", -1, "Export a single tree depth (0 root to 3 leaf)")
	plane := fs.String("plane", "", "Projection plane for png/svg: xy, xz or yz")
	size := fs.String("size", "", "Plot size for png/svg, e.g. 16cm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("export needs exactly one input file")
	}
	if *output == "" {
		return errors.New("-o is required")
	}

	view := config.DefaultViewConfig()
	if *configPath != "" {
		var err error
		if view, err = config.LoadViewConfig(*configPath); err != nil {
			return err
		}
	}
	f, err := exportFormat(*format, *output, view)
	if err != nil {
		return err
	}

	s, err := scene.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.Close()
	c, err := s.ReadObject(0)
	if err != nil {
		return err
	}

	depths := view.GetDepths()
	if *depth >= 0 {
		depths = []int{*depth}
	}
	grp, err := buildGroup(c, *gridName, depths)
	if err != nil {
		return err
	}

	if err := writeGroup(grp, *output, f, *plane, *size, view); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%s, %d segments)\n", *output, f, grp.SegmentCount())
	return nil
}

// exportFormat picks the explicit format, then the output extension,
// then the configured default.
func exportFormat(explicit, output string, view *config.ViewConfig) (string, error) {
	f := strings.ToLower(explicit)
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	if f == "" {
		f = view.GetExportFormat()
	}
	if !slices.Contains(config.ExportFormats, f) {
		return "", fmt.Errorf("unsupported export format %q (want one of %s)", f, strings.Join(config.ExportFormats, ", "))
	}
	return f, nil
}

func buildGroup(c *volume.Container, name string, depths []int) (*wireframe.Group, error) {
	b := wireframe.NewBuilder(wireframe.WithDepths(depths...))
	if name == "" {
		return b.Visualise(c), nil
	}
	g, ok := c.Grid(name)
	if !ok {
		return nil, fmt.Errorf("grid %q not found (have %s)", name, strings.Join(c.GridNames(), ", "))
	}
	return b.Build(g)
}

func writeGroup(grp *wireframe.Group, path, format, plane, size string, view *config.ViewConfig) error {
	if plane == "" {
		plane = view.GetPlotPlane()
	}
	if size == "" {
		size = view.GetPlotSize()
	}
	switch format {
	case "glb", "gltf":
		return export.WriteGLTF(grp, path, format == "glb")
	case "png", "svg":
		p, err := export.ParsePlane(plane)
		if err != nil {
			return err
		}
		return export.SavePlot(grp, path, p, size)
	case "html":
		w, err := os.Create(path)
		if err != nil {
			return &volume.IOError{Op: "export", Path: path, Err: err}
		}
		err = export.RenderHTML(w, grp, grp.Name, export.HTMLOptions{MaxBoxes: view.GetMaxBoxesPerDepth()})
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return fmt.Errorf("unsupported export format %q", format)
}
