// Package monitor serves an HTTP inspection view of a volume container:
// JSON listings, wireframe geometry, charts, plots and glTF downloads.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/banshee-data/voxelview/internal/config"
	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/banshee-data/voxelview/internal/wireframe"
)

// WebServer handles the HTTP interface for inspecting a container.
// The container is treated as read-only for the server's lifetime.
type WebServer struct {
	address   string
	server    *http.Server
	mux       *http.ServeMux
	container *volume.Container
	file      *vdbfile.File
	builder   *wireframe.Builder
	view      *config.ViewConfig
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address   string
	Container *volume.Container
	// File is the container file the grids came from. Optional; the
	// admin routes need it.
	File *vdbfile.File
	View *config.ViewConfig
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(cfg WebServerConfig) *WebServer {
	view := cfg.View
	if view == nil {
		view = config.DefaultViewConfig()
	}
	c := cfg.Container
	if c == nil {
		c, _ = volume.NewContainer()
	}
	address := cfg.Address
	if address == "" {
		address = view.GetListenAddr()
	}

	ws := &WebServer{
		address:   address,
		container: c,
		file:      cfg.File,
		builder:   wireframe.NewBuilder(wireframe.WithDepths(view.GetDepths()...)),
		view:      view,
	}
	ws.mux = ws.setupRoutes()
	if ws.file != nil && view.GetEnableAdmin() {
		if err := ws.AttachAdminRoutes(ws.mux); err != nil {
			opsf("admin routes disabled: %v", err)
		}
	}

	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws
}

// Handler returns the server's route multiplexer.
func (ws *WebServer) Handler() http.Handler { return ws.mux }

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		opsf("failed to encode response: %v", err)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully. It
// returns early if the listener cannot be started.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		diagf("starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		opsf("HTTP server failed: %v", err)
		return fmt.Errorf("listen on %s: %w", ws.address, err)
	case <-ctx.Done():
	}
	diagf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ws.view.GetShutdownTimeout())
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		opsf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			opsf("HTTP server force close error: %v", err)
		}
	}

	diagf("HTTP server routine stopped")
	return nil
}

// Close shuts down the web server.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleIndex)
	mux.HandleFunc("/api/grids", ws.handleGrids)
	mux.HandleFunc("/api/grids/bounds", ws.handleBounds)
	mux.HandleFunc("/api/wireframe", ws.handleWireframe)
	mux.HandleFunc("/charts/wireframe", ws.handleWireframeChart)
	mux.HandleFunc("/plots/wireframe.png", ws.handleWireframePlot)
	mux.HandleFunc("/export/wireframe.glb", ws.handleWireframeGLB)

	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "voxelview", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><title>voxelview</title></head>
<body>
<h1>voxelview</h1>
{{if .File}}<p>{{.File}}</p>{{end}}
<table>
<tr><th>grid</th><th>type</th><th>class</th><th>active voxels</th><th></th></tr>
{{range .Grids}}<tr><td>{{.Name}}</td><td>{{.ValueType}}</td><td>{{.Class}}</td><td>{{.ActiveVoxels}}</td>
<td><a href="/charts/wireframe?grid={{.Name}}">chart</a> <a href="/plots/wireframe.png?grid={{.Name}}">plot</a> <a href="/export/wireframe.glb?grid={{.Name}}">glb</a></td></tr>
{{else}}<tr><td colspan="5">no grids</td></tr>
{{end}}</table>
</body></html>
`))

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		File  string
		Grids []gridSummary
	}{Grids: ws.summaries()}
	if ws.file != nil {
		data.File = ws.file.Path()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		opsf("index template: %v", err)
	}
}
