package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/banshee-data/voxelview/internal/export"
	"github.com/banshee-data/voxelview/internal/security"
)

// handleWireframeChart renders the wireframe as an interactive 3D page.
// Query params:
//   - grid (optional; defaults to the first grid by name)
//   - max_boxes (optional; per-group box cap, default from config)
func (ws *WebServer) handleWireframeChart(w http.ResponseWriter, r *http.Request) {
	grp, status, err := ws.groupFor(r.URL.Query().Get("grid"))
	if err != nil {
		ws.writeJSONError(w, status, err.Error())
		return
	}

	opts := export.HTMLOptions{MaxBoxes: ws.view.GetMaxBoxesPerDepth()}
	if mb := r.URL.Query().Get("max_boxes"); mb != "" {
		if v, err := strconv.Atoi(mb); err == nil && v > 0 && v <= 50000 {
			opts.MaxBoxes = v
		}
	}

	var buf bytes.Buffer
	if err := export.RenderHTML(&buf, grp, fmt.Sprintf("%s wireframe", grp.Name), opts); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleWireframePlot renders an orthographic PNG projection.
// Query params:
//   - grid (optional; defaults to the first grid by name)
//   - plane (optional; xy, xz or yz, default from config)
func (ws *WebServer) handleWireframePlot(w http.ResponseWriter, r *http.Request) {
	plane := r.URL.Query().Get("plane")
	if plane == "" {
		plane = ws.view.GetPlotPlane()
	}
	p, err := export.ParsePlane(plane)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	grp, status, err := ws.groupFor(r.URL.Query().Get("grid"))
	if err != nil {
		ws.writeJSONError(w, status, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.WritePlot(&buf, grp, p, ws.view.GetPlotSize(), "png"); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// handleWireframeGLB downloads the wireframe as a binary glTF file.
// Query params:
//   - grid (optional; defaults to the first grid by name)
func (ws *WebServer) handleWireframeGLB(w http.ResponseWriter, r *http.Request) {
	grp, status, err := ws.groupFor(r.URL.Query().Get("grid"))
	if err != nil {
		ws.writeJSONError(w, status, err.Error())
		return
	}

	dir, err := os.MkdirTemp(ws.view.GetScratchDir(), "voxelview-glb-")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "failed to create scratch dir")
		return
	}
	defer os.RemoveAll(dir)

	name := security.SanitizeFilename(grp.Name) + ".glb"
	path, err := security.SafeJoin(dir, name)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := export.WriteGLTF(grp, path, true); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "failed to read export")
		return
	}

	w.Header().Set("Content-Type", "model/gltf-binary")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}
