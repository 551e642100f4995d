package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/volume"
)

type inspectReport struct {
	File          string                 `json:"file"`
	UUID          string                 `json:"uuid"`
	FormatVersion int                    `json:"format_version"`
	Generator     string                 `json:"generator"`
	CreatedAt     time.Time              `json:"created_at"`
	Metadata      map[string]interface{} `json:"metadata"`
	Grids         []gridReport           `json:"grids"`
}

type gridReport struct {
	Name         string                 `json:"name"`
	ValueType    string                 `json:"value_type"`
	Class        string                 `json:"class"`
	VoxelSize    [3]float64             `json:"voxel_size"`
	BoundMin     *[3]float64            `json:"bound_min,omitempty"`
	BoundMax     *[3]float64            `json:"bound_max,omitempty"`
	BoundError   string                 `json:"bound_error,omitempty"`
	Metadata     map[string]interface{} `json:"metadata"`
	ActiveVoxels *int64                 `json:"active_voxels,omitempty"`
	NodeCounts   *[4]int                `json:"node_counts,omitempty"`
}

func runInspect(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(out)
	asJSON := fs.Bool("json", false, "Print a JSON report")
	full := fs.Bool("full", false, "Load voxel data and report tree statistics")
	padding := fs.Float64("padding", 0, "Bounds padding in index-space cells")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect needs exactly one container file")
	}

	f, err := vdbfile.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := buildReport(f, *full, *padding)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(out, report)
	return nil
}

func buildReport(f *vdbfile.File, full bool, padding float64) (*inspectReport, error) {
	meta, err := f.Metadata()
	if err != nil {
		return nil, err
	}
	var grids []*volume.Grid
	if full {
		c, err := f.ReadContainer()
		if err != nil {
			return nil, err
		}
		grids = c.Grids()
	} else {
		if grids, err = f.ReadAllGridMetadata(); err != nil {
			return nil, err
		}
	}

	r := &inspectReport{
		File:          f.Path(),
		UUID:          f.UUID(),
		FormatVersion: f.FormatVersion(),
		Generator:     f.Generator(),
		CreatedAt:     f.CreatedAt(),
		Metadata:      meta.Values(),
		Grids:         make([]gridReport, 0, len(grids)),
	}
	for _, g := range grids {
		vs := g.Transform().VoxelSize()
		gr := gridReport{
			Name:      g.Name(),
			ValueType: g.ValueType().String(),
			Class:     g.Class().String(),
			VoxelSize: [3]float64{vs.X, vs.Y, vs.Z},
			Metadata:  g.Metadata().Values(),
		}
		if b, err := volume.ComputeBounds(g, padding); err != nil {
			gr.BoundError = err.Error()
		} else if !b.IsEmpty() {
			gr.BoundMin = &[3]float64{b.Min.X, b.Min.Y, b.Min.Z}
			gr.BoundMax = &[3]float64{b.Max.X, b.Max.Y, b.Max.Z}
		}
		if full {
			n := g.ActiveVoxelCount()
			counts := g.Tree().NodeCounts()
			gr.ActiveVoxels = &n
			gr.NodeCounts = &counts
		}
		r.Grids = append(r.Grids, gr)
	}
	return r, nil
}

func printReport(out io.Writer, r *inspectReport) {
	fmt.Fprintf(out, "file:       %s\n", r.File)
	fmt.Fprintf(out, "uuid:       %s\n", r.UUID)
	fmt.Fprintf(out, "format:     %d (%s)\n", r.FormatVersion, r.Generator)
	fmt.Fprintf(out, "created:    %s\n", r.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "grids:      %d\n", len(r.Grids))
	for _, k := range slices.Sorted(maps.Keys(r.Metadata)) {
		fmt.Fprintf(out, "  %s = %v\n", k, r.Metadata[k])
	}

	for _, g := range r.Grids {
		fmt.Fprintf(out, "\n%s (%s, %s)\n", g.Name, g.ValueType, g.Class)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "  voxel size\t%g %g %g\n", g.VoxelSize[0], g.VoxelSize[1], g.VoxelSize[2])
		switch {
		case g.BoundError != "":
			fmt.Fprintf(tw, "  bounds\t%s\n", g.BoundError)
		case g.BoundMin == nil:
			fmt.Fprintf(tw, "  bounds\tempty\n")
		default:
			fmt.Fprintf(tw, "  bounds\t%v .. %v\n", *g.BoundMin, *g.BoundMax)
		}
		if g.ActiveVoxels != nil {
			fmt.Fprintf(tw, "  active voxels\t%d\n", *g.ActiveVoxels)
			fmt.Fprintf(tw, "  nodes (root..leaf)\t%v\n", *g.NodeCounts)
		}
		for _, k := range slices.Sorted(maps.Keys(g.Metadata)) {
			fmt.Fprintf(tw, "  %s\t%v\n", k, g.Metadata[k])
		}
		tw.Flush()
	}
}
