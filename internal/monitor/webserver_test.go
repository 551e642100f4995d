package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/qmuntal/gltf"

	"github.com/banshee-data/voxelview/internal/config"
	"github.com/banshee-data/voxelview/internal/testutil"
	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/volume"
)

func newTestServer(t *testing.T) *WebServer {
	t.Helper()
	return NewWebServer(WebServerConfig{
		Address:   ":0",
		Container: testutil.SampleContainer(t),
	})
}

func serve(ws *WebServer, path string) *bytesRecorder {
	rec := testutil.NewTestRecorder()
	ws.Handler().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, path))
	return &bytesRecorder{code: rec.Code, header: rec.Header(), body: rec.Body.Bytes()}
}

type bytesRecorder struct {
	code   int
	header http.Header
	body   []byte
}

func TestNewWebServerDefaults(t *testing.T) {
	ws := NewWebServer(WebServerConfig{})
	if ws.address != ":8090" {
		t.Errorf("address = %q, want :8090", ws.address)
	}
	if ws.container == nil || ws.container.Len() != 0 {
		t.Error("expected an empty container")
	}
	if ws.view == nil {
		t.Error("expected default view config")
	}
}

func TestHealth(t *testing.T) {
	rec := serve(newTestServer(t), "/health")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)

	var body map[string]string
	testutil.DecodeJSON(t, bytes.NewReader(rec.body), &body)
	if body["status"] != "ok" || body["service"] != "voxelview" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestIndex(t *testing.T) {
	ws := newTestServer(t)
	rec := serve(ws, "/")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)
	if !strings.Contains(string(rec.body), "/charts/wireframe?grid=density") {
		t.Errorf("index missing chart link:\n%s", rec.body)
	}

	rec = serve(ws, "/nope")
	testutil.AssertStatusCode(t, rec.code, http.StatusNotFound)
}

func TestGrids(t *testing.T) {
	rec := serve(newTestServer(t), "/api/grids")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)

	var body struct {
		Count    int                    `json:"count"`
		Grids    []gridSummary          `json:"grids"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	testutil.DecodeJSON(t, bytes.NewReader(rec.body), &body)
	if body.Count != 2 || len(body.Grids) != 2 {
		t.Fatalf("count = %d, grids = %d", body.Count, len(body.Grids))
	}
	g := body.Grids[0]
	if g.Name != testutil.DensityGrid || g.ValueType != "float" || g.Class != "fog volume" {
		t.Errorf("unexpected first grid: %+v", g)
	}
	if g.ActiveVoxels != 11*11*11 {
		t.Errorf("active voxels = %d", g.ActiveVoxels)
	}
	if g.Transform[0] != 0.5 {
		t.Errorf("transform[0] = %f, want 0.5", g.Transform[0])
	}
	if _, ok := g.Metadata[volume.MetaFileBBoxMin]; !ok {
		t.Errorf("metadata missing %q: %v", volume.MetaFileBBoxMin, g.Metadata)
	}
	if body.Metadata["creator"] != "testutil" {
		t.Errorf("container metadata = %v", body.Metadata)
	}
}

func TestGridsMethodNotAllowed(t *testing.T) {
	rec := testutil.NewTestRecorder()
	newTestServer(t).Handler().ServeHTTP(rec, testutil.NewTestRequest(http.MethodPost, "/api/grids"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestBounds(t *testing.T) {
	ws := newTestServer(t)
	rec := serve(ws, "/api/grids/bounds")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)

	var body struct {
		Grids []gridBounds `json:"grids"`
		Bound *boxJSON     `json:"bound"`
	}
	testutil.DecodeJSON(t, bytes.NewReader(rec.body), &body)
	if len(body.Grids) != 2 || body.Bound == nil {
		t.Fatalf("unexpected body: %s", rec.body)
	}
	// 0..10 at 0.5 voxels spans -0.25..5.25.
	density := body.Grids[0].Bound
	if density == nil || density.Min[0] != -0.25 || density.Max[0] != 5.25 {
		t.Errorf("density bound = %+v", density)
	}
	// Sphere at x=40 radius 6: 33.5..46.5.
	if body.Bound.Max[0] != 46.5 || body.Bound.Min[0] != -0.25 {
		t.Errorf("aggregate bound = %+v", body.Bound)
	}

	rec = serve(ws, "/api/grids/bounds?padding=1")
	body.Bound = nil
	testutil.DecodeJSON(t, bytes.NewReader(rec.body), &body)
	if body.Bound.Min[0] != -0.75 {
		t.Errorf("padded min = %f, want -0.75", body.Bound.Min[0])
	}

	for _, p := range []string{"-1", "NaN", "nan", "Inf", "-Inf", "abc"} {
		rec = serve(ws, "/api/grids/bounds?padding="+p)
		if rec.code != http.StatusBadRequest {
			t.Errorf("padding=%s: status %d, want 400", p, rec.code)
		}
		if !bytes.Contains(rec.body, []byte("invalid padding")) {
			t.Errorf("padding=%s: body %q", p, rec.body)
		}
	}
}

func TestBoundsMissingMetadata(t *testing.T) {
	tree := volume.NewTree[float32](0)
	tree.SetValue(volume.Coord{}, 1)
	c, err := volume.NewContainer(volume.NewGrid("bare", tree, volume.IdentityTransform()))
	if err != nil {
		t.Fatal(err)
	}
	ws := NewWebServer(WebServerConfig{Container: c})

	rec := serve(ws, "/api/grids/bounds")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)
	var body map[string]json.RawMessage
	testutil.DecodeJSON(t, bytes.NewReader(rec.body), &body)
	if _, ok := body["bound"]; ok {
		t.Error("aggregate bound must be omitted when a grid fails")
	}
	if !strings.Contains(string(body["grids"]), "missing") {
		t.Errorf("expected per-grid error, got %s", body["grids"])
	}
}

type wireframeBody struct {
	Grid     string      `json:"grid"`
	Segments int         `json:"segments"`
	Groups   []depthJSON `json:"groups"`
}

func TestWireframe(t *testing.T) {
	ws := newTestServer(t)

	rec := serve(ws, "/api/wireframe")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)
	var body wireframeBody
	testutil.DecodeJSON(t, bytes.NewReader(rec.body), &body)
	if body.Grid != testutil.DensityGrid {
		t.Errorf("default grid = %q, want %q", body.Grid, testutil.DensityGrid)
	}
	if len(body.Groups) != 4 {
		t.Fatalf("groups = %d, want 4", len(body.Groups))
	}
	if body.Segments != 12*(1+1+1+8) {
		t.Errorf("segments = %d", body.Segments)
	}

	rec = serve(ws, "/api/wireframe?grid=density&depth=3")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)
	body = wireframeBody{}
	testutil.DecodeJSON(t, bytes.NewReader(rec.body), &body)
	if len(body.Groups) != 1 || len(body.Groups[0].Segments) != 12*8 {
		t.Fatalf("depth 3: %+v", body)
	}
	// Leaf at origin spans -0.5..7.5 in index space, 0.5 voxels in world.
	if seg := body.Groups[0].Segments[0]; seg[0] != -0.25 {
		t.Errorf("first leaf segment = %v", seg)
	}
}

func TestWireframeErrors(t *testing.T) {
	tree := volume.NewTree[int32](0)
	tree.SetValue(volume.Coord{}, 7)
	labels := volume.NewGrid("labels", tree, volume.IdentityTransform())
	c := testutil.SampleContainer(t)
	if err := c.Insert(labels); err != nil {
		t.Fatal(err)
	}
	ws := NewWebServer(WebServerConfig{Container: c})

	tests := []struct {
		path string
		want int
	}{
		{"/api/wireframe?grid=missing", http.StatusNotFound},
		{"/api/wireframe?grid=density&depth=4", http.StatusBadRequest},
		{"/api/wireframe?depth=x", http.StatusBadRequest},
		{"/api/wireframe?grid=missing&depth=1", http.StatusNotFound},
		{"/api/wireframe?grid=labels", http.StatusUnprocessableEntity},
		{"/api/wireframe?grid=labels&depth=0", http.StatusUnprocessableEntity},
		{"/charts/wireframe?grid=missing", http.StatusNotFound},
		{"/plots/wireframe.png?plane=xw", http.StatusBadRequest},
		{"/export/wireframe.glb?grid=labels", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(ws, tt.path)
			testutil.AssertStatusCode(t, rec.code, tt.want)
			if !bytes.Contains(rec.body, []byte(`"error"`)) {
				t.Errorf("expected JSON error body, got %s", rec.body)
			}
		})
	}
}

func TestWireframeEmptyContainerIsGizmo(t *testing.T) {
	rec := serve(NewWebServer(WebServerConfig{}), "/api/wireframe")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)
	var body wireframeBody
	testutil.DecodeJSON(t, bytes.NewReader(rec.body), &body)
	if body.Grid != "gizmo" || body.Segments != 3 {
		t.Errorf("expected gizmo, got %+v", body)
	}
}

func TestWireframeChart(t *testing.T) {
	rec := serve(newTestServer(t), "/charts/wireframe?grid=sphere&max_boxes=10")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)
	if ct := rec.header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(string(rec.body), "sphere wireframe") {
		t.Error("chart missing title")
	}
}

func TestWireframePlot(t *testing.T) {
	view := config.DefaultViewConfig()
	size := "4cm"
	view.PlotSize = &size
	ws := NewWebServer(WebServerConfig{Container: testutil.SampleContainer(t), View: view})

	rec := serve(ws, "/plots/wireframe.png?plane=xz")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)
	if rec.header.Get("Content-Type") != "image/png" {
		t.Errorf("Content-Type = %q", rec.header.Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.body, []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestWireframeGLB(t *testing.T) {
	rec := serve(newTestServer(t), "/export/wireframe.glb?grid=density")
	testutil.AssertStatusCode(t, rec.code, http.StatusOK)
	if cd := rec.header.Get("Content-Disposition"); !strings.Contains(cd, "density.glb") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	var doc gltf.Document
	if err := gltf.NewDecoder(bytes.NewReader(rec.body)).Decode(&doc); err != nil {
		t.Fatalf("decode glb: %v", err)
	}
	if len(doc.Meshes) != 4 {
		t.Errorf("meshes = %d, want 4", len(doc.Meshes))
	}
}

func TestAdminRoutes(t *testing.T) {
	path := testutil.WriteSampleFile(t)
	f, err := vdbfile.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	c, err := f.ReadContainer()
	if err != nil {
		t.Fatal(err)
	}

	ws := NewWebServer(WebServerConfig{Container: c, File: f})

	rec := testutil.NewTestRecorder()
	ws.Handler().ServeHTTP(rec, testutil.LoopbackRequest(http.MethodGet, "/debug/grids"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var body map[string]interface{}
	testutil.DecodeJSON(t, rec.Body, &body)
	if body["uuid"] != f.UUID() {
		t.Errorf("uuid = %v, want %s", body["uuid"], f.UUID())
	}
	if filepath.Base(body["file"].(string)) != filepath.Base(path) {
		t.Errorf("file = %v", body["file"])
	}

	rec = testutil.NewTestRecorder()
	ws.Handler().ServeHTTP(rec, testutil.LoopbackRequest(http.MethodGet, "/debug/tailsql/"))
	if rec.Code == http.StatusNotFound {
		t.Error("tailsql route should be registered")
	}
}

func TestAdminRoutesDisabled(t *testing.T) {
	ws := newTestServer(t)
	if err := ws.AttachAdminRoutes(http.NewServeMux()); err == nil {
		t.Error("expected error without a container file")
	}
	rec := testutil.NewTestRecorder()
	ws.Handler().ServeHTTP(rec, testutil.LoopbackRequest(http.MethodGet, "/debug/grids"))
	if rec.Code == http.StatusOK {
		t.Error("admin routes must not be mounted without a file")
	}
}

func TestStartShutdown(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Address: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ws.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStartListenError(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Address: "256.0.0.1:bad"})
	err := ws.Start(context.Background())
	if err == nil {
		t.Fatal("expected listen error")
	}
}
