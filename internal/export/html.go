package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxelview/internal/wireframe"
)

// MaxBoxesPerDepth caps the boxes drawn per group; browsers struggle with
// more series than this.
const MaxBoxesPerDepth = 2000

// AssetsHost is where rendered pages load the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// boxPath visits the 8 corners of a box so every edge is drawn by one
// connected polyline.
var boxPath = [16]int{0, 1, 2, 3, 0, 4, 5, 6, 7, 4, 5, 1, 2, 6, 7, 3}

// HTMLOptions tunes RenderHTML. The zero value uses the defaults.
type HTMLOptions struct {
	MaxBoxes int
	Width    string
	Height   string
}

// RenderHTML writes an interactive 3D page of g. Curves made of whole
// boxes (12 segments each) are drawn one series per box; anything else
// is drawn one series per segment.
func RenderHTML(w io.Writer, g *wireframe.Group, title string, o HTMLOptions) error {
	if g == nil {
		return wireframe.ErrNilGroup
	}
	if o.MaxBoxes <= 0 {
		o.MaxBoxes = MaxBoxesPerDepth
	}
	if o.Width == "" {
		o.Width = "900px"
	}
	if o.Height == "" {
		o.Height = "900px"
	}

	chart := charts.NewLine3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: o.Width, Height: o.Height, AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d segments", g.SegmentCount())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(false)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z"}),
	)

	var truncated int
	g.Walk(func(grp *wireframe.Group, st wireframe.State) bool {
		style := charts.WithLineStyleOpts(opts.LineStyle{
			Color:   fmt.Sprintf("rgb(%d,%d,%d)", unit8(st.Color[0]), unit8(st.Color[1]), unit8(st.Color[2])),
			Width:   max(st.LineWidth, 1),
			Opacity: opts.Float(max(st.Color[3], 0.2)),
		})
		for _, c := range grp.Curves {
			for _, path := range seriesPaths(c.Segments, o.MaxBoxes, &truncated) {
				chart.AddSeries(grp.Name, path, style)
			}
		}
		return true
	})
	if truncated > 0 {
		diagf("html render of %q dropped %d boxes over the %d cap", title, truncated, o.MaxBoxes)
	}
	return chart.Render(w)
}

func seriesPaths(segs []wireframe.Segment, maxBoxes int, truncated *int) [][]opts.Chart3DData {
	if len(segs) == 0 {
		return nil
	}
	if len(segs)%12 != 0 {
		out := make([][]opts.Chart3DData, 0, len(segs))
		for _, s := range segs {
			out = append(out, []opts.Chart3DData{point3D(s.A), point3D(s.B)})
		}
		return out
	}
	boxes := len(segs) / 12
	if boxes > maxBoxes {
		*truncated += boxes - maxBoxes
		boxes = maxBoxes
	}
	out := make([][]opts.Chart3DData, 0, boxes)
	for b := 0; b < boxes; b++ {
		edges := segs[b*12 : b*12+12]
		var corners [8]r3.Vec
		for i := 0; i < 4; i++ {
			corners[i] = edges[i].A
			corners[4+i] = edges[4+i].A
		}
		path := make([]opts.Chart3DData, 0, len(boxPath))
		for _, ci := range boxPath {
			path = append(path, point3D(corners[ci]))
		}
		out = append(out, path)
	}
	return out
}

func point3D(v r3.Vec) opts.Chart3DData {
	return opts.Chart3DData{Value: []interface{}{v.X, v.Y, v.Z}}
}
