// Package testutil provides shared test helpers and volume fixtures.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/banshee-data/voxelview/internal/vdbfile"
	"github.com/banshee-data/voxelview/internal/volume"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// LoopbackRequest creates a test request from 127.0.0.1, which the tsweb
// debug handlers accept.
func LoopbackRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// DecodeJSON decodes r into v or fails the test.
func DecodeJSON(t *testing.T, r io.Reader, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
}

// Sample grid names, in the order GridNames returns them.
const (
	DensityGrid = "density"
	SphereGrid  = "sphere"
)

// SampleContainer returns two float grids: an 11³ box at the origin
// with 0.5 voxels and a radius-6 sphere centred at (40, 0, 0).
func SampleContainer(t testing.TB) *volume.Container {
	t.Helper()
	half, err := volume.NewLinearTransform(0.5)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	box := volume.NewBoxGrid(DensityGrid, volume.CoordBBox{Max: volume.Coord{X: 10, Y: 10, Z: 10}}, 1, half)
	sphere := volume.NewSphereGrid(SphereGrid, volume.Coord{X: 40}, 6, volume.IdentityTransform())
	c, err := volume.NewContainer(box, sphere)
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	c.Metadata().SetString("creator", "testutil")
	return c
}

// WriteSampleFile writes SampleContainer to a container file in a fresh
// temporary directory and returns its path. vdbfile.Initialize must have
// been called.
func WriteSampleFile(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample"+vdbfile.Extension)
	if err := vdbfile.WriteContainer(SampleContainer(t), path); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}
