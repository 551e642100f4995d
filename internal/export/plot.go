package export

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/banshee-data/voxelview/internal/wireframe"
)

// Plane selects the two world axes kept by an orthographic projection.
type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

// DefaultPlotSize is the edge length of saved projections.
const DefaultPlotSize = "16cm"

// ParsePlane accepts "xy", "xz" or "yz" in any case.
func ParsePlane(s string) (Plane, error) {
	switch p := Plane(strings.ToLower(strings.TrimSpace(s))); p {
	case PlaneXY, PlaneXZ, PlaneYZ:
		return p, nil
	case "":
		return PlaneXY, nil
	default:
		return "", fmt.Errorf("unknown projection plane %q", s)
	}
}

func (p Plane) project(v r3.Vec) (float64, float64) {
	switch p {
	case PlaneXZ:
		return v.X, v.Z
	case PlaneYZ:
		return v.Y, v.Z
	default:
		return v.X, v.Y
	}
}

func (p Plane) labels() (string, string) {
	s := strings.ToUpper(string(p))
	if len(s) != 2 {
		return "X", "Y"
	}
	return s[:1], s[1:]
}

// PlotProjection draws every segment of g onto plane as its own line,
// coloured by the owning group's effective state.
func PlotProjection(g *wireframe.Group, plane Plane) (*plot.Plot, error) {
	if g == nil {
		return nil, wireframe.ErrNilGroup
	}
	p := plot.New()
	p.Title.Text = g.Name
	p.X.Label.Text, p.Y.Label.Text = plane.labels()

	var err error
	g.Walk(func(grp *wireframe.Group, st wireframe.State) bool {
		if err != nil {
			return false
		}
		first := true
		for _, c := range grp.Curves {
			for _, s := range c.Segments {
				ax, ay := plane.project(s.A)
				bx, by := plane.project(s.B)
				l, lerr := plotter.NewLine(plotter.XYs{{X: ax, Y: ay}, {X: bx, Y: by}})
				if lerr != nil {
					err = fmt.Errorf("segment in %q: %w", grp.Name, lerr)
					return false
				}
				l.Color = nrgba(st.Color)
				l.Width = vg.Points(float64(max(st.LineWidth, 0.25)))
				p.Add(l)
				if first {
					p.Legend.Add(grp.Name, l)
					first = false
				}
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	tracef("projected %d segments onto %s", g.SegmentCount(), plane)
	return p, nil
}

// WritePlot renders the projection as a square image of the given size.
// format is any extension plot supports, e.g. "png" or "svg".
func WritePlot(w io.Writer, g *wireframe.Group, plane Plane, size, format string) error {
	p, err := PlotProjection(g, plane)
	if err != nil {
		return err
	}
	l, err := plotLength(size)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(l, l, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePlot writes the projection to path; the extension picks the format.
func SavePlot(g *wireframe.Group, path string, plane Plane, size string) error {
	p, err := PlotProjection(g, plane)
	if err != nil {
		return &volume.IOError{Op: "export", Path: path, Err: err}
	}
	l, err := plotLength(size)
	if err != nil {
		return &volume.IOError{Op: "export", Path: path, Err: err}
	}
	if err := p.Save(l, l, path); err != nil {
		opsf("plot export to %s failed: %v", path, err)
		return &volume.IOError{Op: "export", Path: path, Err: err}
	}
	diagf("wrote %s projection %s", plane, filepath.Base(path))
	return nil
}

func plotLength(size string) (vg.Length, error) {
	if size == "" {
		size = DefaultPlotSize
	}
	l, err := vg.ParseLength(size)
	if err != nil {
		return 0, fmt.Errorf("invalid plot size %q: %w", size, err)
	}
	if l <= 0 {
		return 0, fmt.Errorf("invalid plot size %q", size)
	}
	return l, nil
}

func nrgba(c wireframe.Color4) color.NRGBA {
	return color.NRGBA{R: unit8(c[0]), G: unit8(c[1]), B: unit8(c[2]), A: unit8(c[3])}
}

func unit8(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	default:
		return uint8(f*255 + 0.5)
	}
}
