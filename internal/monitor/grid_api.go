package monitor

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/banshee-data/voxelview/internal/wireframe"
)

type gridSummary struct {
	Name         string                 `json:"name"`
	ValueType    string                 `json:"value_type"`
	Class        string                 `json:"class"`
	ActiveVoxels int64                  `json:"active_voxels"`
	Leaves       int                    `json:"leaves"`
	MemoryBytes  int64                  `json:"memory_bytes"`
	Transform    [16]float64            `json:"transform"`
	Metadata     map[string]interface{} `json:"metadata"`
}

func (ws *WebServer) summaries() []gridSummary {
	out := make([]gridSummary, 0, ws.container.Len())
	for _, g := range ws.container.Grids() {
		out = append(out, gridSummary{
			Name:         g.Name(),
			ValueType:    g.ValueType().String(),
			Class:        g.Class().String(),
			ActiveVoxels: g.ActiveVoxelCount(),
			Leaves:       g.Tree().LeafCount(),
			MemoryBytes:  g.MemoryUsage(),
			Transform:    g.Transform().Matrix(),
			Metadata:     g.Metadata().Values(),
		})
	}
	return out
}

// handleGrids lists every grid in name order.
func (ws *WebServer) handleGrids(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	ws.writeJSON(w, map[string]interface{}{
		"count":    ws.container.Len(),
		"grids":    ws.summaries(),
		"metadata": ws.container.Metadata().Values(),
	})
}

// boxJSON is a Box3 that survives JSON encoding; an empty box has no
// min or max since they are infinite.
type boxJSON struct {
	Empty bool        `json:"empty"`
	Min   *[3]float64 `json:"min,omitempty"`
	Max   *[3]float64 `json:"max,omitempty"`
}

func newBoxJSON(b volume.Box3) boxJSON {
	if b.IsEmpty() {
		return boxJSON{Empty: true}
	}
	return boxJSON{
		Min: &[3]float64{b.Min.X, b.Min.Y, b.Min.Z},
		Max: &[3]float64{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

type gridBounds struct {
	Name  string   `json:"name"`
	Bound *boxJSON `json:"bound,omitempty"`
	Error string   `json:"error,omitempty"`
}

// handleBounds reports the world bounds of each grid and their union.
// Query params:
//   - padding (optional; index-space cells, default from config)
func (ws *WebServer) handleBounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	padding := ws.view.GetPadding()
	if p := r.URL.Query().Get("padding"); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			ws.writeJSONError(w, http.StatusBadRequest, "invalid padding")
			return
		}
		padding = v
	}

	total := volume.EmptyBox3()
	complete := true
	grids := make([]gridBounds, 0, ws.container.Len())
	for _, g := range ws.container.Grids() {
		b, err := volume.ComputeBounds(g, padding)
		if err != nil {
			complete = false
			grids = append(grids, gridBounds{Name: g.Name(), Error: err.Error()})
			continue
		}
		total = total.Union(b)
		bj := newBoxJSON(b)
		grids = append(grids, gridBounds{Name: g.Name(), Bound: &bj})
	}

	resp := map[string]interface{}{
		"padding": padding,
		"grids":   grids,
	}
	if complete {
		resp["bound"] = newBoxJSON(total)
	}
	ws.writeJSON(w, resp)
}

type depthJSON struct {
	Name      string       `json:"name"`
	Color     [4]float32   `json:"color"`
	LineWidth float32      `json:"line_width"`
	Segments  [][6]float64 `json:"segments"`
}

// groupFor builds the wireframe for the named grid, or for the first grid
// by name when name is empty. The int is the HTTP status for the error.
func (ws *WebServer) groupFor(name string) (*wireframe.Group, int, error) {
	if name == "" {
		return ws.builder.Visualise(ws.container), http.StatusOK, nil
	}
	g, ok := ws.container.Grid(name)
	if !ok {
		return nil, http.StatusNotFound, fmt.Errorf("grid %q not found", name)
	}
	grp, err := ws.builder.Build(g)
	if errors.Is(err, volume.ErrUnsupportedGridType) {
		return nil, http.StatusUnprocessableEntity, err
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return grp, http.StatusOK, nil
}

// handleWireframe returns wireframe segments as JSON.
// Query params:
//   - grid (optional; defaults to the first grid by name)
//   - depth (optional; a single tree depth, root 0 to leaf 3)
func (ws *WebServer) handleWireframe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	name := q.Get("grid")

	var grp *wireframe.Group
	if ds := q.Get("depth"); ds != "" {
		depth, err := strconv.Atoi(ds)
		if err != nil || depth < volume.DepthRoot || depth > volume.DepthLeaf {
			ws.writeJSONError(w, http.StatusBadRequest, "depth must be an integer from 0 to 3")
			return
		}
		if name == "" {
			names := ws.container.GridNames()
			if len(names) == 0 {
				ws.writeJSONError(w, http.StatusNotFound, "container has no grids")
				return
			}
			name = names[0]
		}
		g, ok := ws.container.Grid(name)
		if !ok {
			ws.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("grid %q not found", name))
			return
		}
		var status int
		grp, status, err = ws.singleDepth(g, depth)
		if err != nil {
			ws.writeJSONError(w, status, err.Error())
			return
		}
	} else {
		var status int
		var err error
		grp, status, err = ws.groupFor(name)
		if err != nil {
			ws.writeJSONError(w, status, err.Error())
			return
		}
	}

	var depths []depthJSON
	grp.Walk(func(g *wireframe.Group, st wireframe.State) bool {
		if len(g.Curves) == 0 {
			return true
		}
		d := depthJSON{Name: g.Name, Color: st.Color, LineWidth: st.LineWidth, Segments: [][6]float64{}}
		for _, c := range g.Curves {
			for _, s := range c.Segments {
				d.Segments = append(d.Segments, [6]float64{s.A.X, s.A.Y, s.A.Z, s.B.X, s.B.Y, s.B.Z})
			}
		}
		depths = append(depths, d)
		return true
	})
	tracef("wireframe %q: %d segments", grp.Name, grp.SegmentCount())

	ws.writeJSON(w, map[string]interface{}{
		"grid":     grp.Name,
		"segments": grp.SegmentCount(),
		"groups":   depths,
	})
}

func (ws *WebServer) singleDepth(g *volume.Grid, depth int) (*wireframe.Group, int, error) {
	b := wireframe.NewBuilder(wireframe.WithDepths(depth))
	grp, err := b.Build(g)
	if errors.Is(err, volume.ErrUnsupportedGridType) {
		return nil, http.StatusUnprocessableEntity, err
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return grp, http.StatusOK, nil
}
