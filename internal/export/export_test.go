package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/banshee-data/voxelview/internal/wireframe"
)

// boxGroup builds the wireframe of an 11³ box: 8 leaves under one lower,
// one upper and the root, so 4 non-empty depth groups.
func boxGroup(t *testing.T) *wireframe.Group {
	t.Helper()
	g := volume.NewBoxGrid("density", volume.CoordBBox{Max: volume.Coord{X: 10, Y: 10, Z: 10}}, 1, volume.IdentityTransform())
	grp, err := wireframe.NewBuilder().Build(g)
	require.NoError(t, err)
	require.Equal(t, 12*(1+1+1+8), grp.SegmentCount())
	return grp
}

func TestWriteGLTFRoundTrip(t *testing.T) {
	t.Parallel()
	grp := boxGroup(t)

	for _, tc := range []struct {
		name   string
		binary bool
	}{
		{"wire.glb", true},
		{"wire.gltf", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.name)
			require.NoError(t, WriteGLTF(grp, path, tc.binary))

			doc, err := gltf.Open(path)
			require.NoError(t, err)
			assert.Len(t, doc.Nodes, 5, "root plus one node per depth")
			assert.Len(t, doc.Meshes, 4)
			assert.Len(t, doc.Materials, 4)
			require.Len(t, doc.Scenes, 1)
			assert.Len(t, doc.Scenes[0].Nodes, 1)

			var verts int
			for _, m := range doc.Meshes {
				require.Len(t, m.Primitives, 1)
				p := m.Primitives[0]
				assert.Equal(t, gltf.PrimitiveLines, p.Mode)
				assert.Contains(t, p.Attributes, gltf.COLOR_0)
				verts += int(doc.Accessors[p.Attributes[gltf.POSITION]].Count)
			}
			assert.Equal(t, 2*grp.SegmentCount(), verts)
		})
	}
}

func TestBuildGLTFGizmoSingleNode(t *testing.T) {
	t.Parallel()
	doc, err := BuildGLTF(wireframe.NewBuilder().Gizmo())
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	require.NotNil(t, doc.Nodes[0].Mesh)
	assert.Equal(t, gltf.AlphaOpaque, doc.Materials[0].AlphaMode)
}

func TestBuildGLTFMaterialColors(t *testing.T) {
	t.Parallel()
	doc, err := BuildGLTF(boxGroup(t))
	require.NoError(t, err)
	require.Len(t, doc.Materials, len(wireframe.DepthPalette))

	for i, m := range doc.Materials {
		want := wireframe.DepthPalette[i]
		require.NotNil(t, m.PBRMetallicRoughness)
		got := m.PBRMetallicRoughness.BaseColorFactor
		require.NotNil(t, got)
		for c := range want {
			assert.InDelta(t, float64(want[c]), got[c], 1e-6, "material %d channel %d", i, c)
		}
		assert.Equal(t, gltf.AlphaBlend, m.AlphaMode, "palette alpha is 0.2")
	}
}

func TestBuildGLTFNilGroup(t *testing.T) {
	t.Parallel()
	_, err := BuildGLTF(nil)
	assert.ErrorIs(t, err, wireframe.ErrNilGroup)
}

func TestWriteGLTFBadPath(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing", "wire.glb")
	err := WriteGLTF(boxGroup(t), path, true)
	var ioErr *volume.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, path, ioErr.Path)
}

func TestParsePlane(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Plane{"": PlaneXY, "XY": PlaneXY, "xz": PlaneXZ, " yz ": PlaneYZ} {
		got, err := ParsePlane(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePlane("xw")
	assert.Error(t, err)
}

func TestPlotProjection(t *testing.T) {
	t.Parallel()
	p, err := PlotProjection(boxGroup(t), PlaneXZ)
	require.NoError(t, err)
	assert.Equal(t, "density", p.Title.Text)
	assert.Equal(t, "X", p.X.Label.Text)
	assert.Equal(t, "Z", p.Y.Label.Text)
	assert.InDelta(t, -0.5, p.X.Min, 1e-9)
	assert.InDelta(t, 4095.5, p.X.Max, 1e-9)
}

func TestWritePlotPNG(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, boxGroup(t), PlaneXY, "4cm", "png"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	assert.Error(t, WritePlot(&buf, boxGroup(t), PlaneXY, "big", "png"))
	assert.ErrorIs(t, WritePlot(&buf, nil, PlaneXY, "", "png"), wireframe.ErrNilGroup)
}

func TestSavePlotSVG(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "wire.svg")
	require.NoError(t, SavePlot(boxGroup(t), path, PlaneYZ, ""))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestSeriesPathsBoxes(t *testing.T) {
	t.Parallel()
	box := volume.Box3{Max: r3.Vec{X: 1, Y: 2, Z: 3}}
	segs := wireframe.BoxSegments(box, volume.IdentityTransform())
	segs = append(segs, segs...)

	var dropped int
	paths := seriesPaths(segs, 10, &dropped)
	require.Len(t, paths, 2)
	assert.Zero(t, dropped)
	require.Len(t, paths[0], 16)
	assert.Equal(t, paths[0][0].Value, paths[0][4].Value, "path returns to corner 0")
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, paths[0][7].Value, "corner 6 is the max corner")

	paths = seriesPaths(segs, 1, &dropped)
	assert.Len(t, paths, 1)
	assert.Equal(t, 1, dropped)
}

func TestSeriesPathsLooseSegments(t *testing.T) {
	t.Parallel()
	gizmo := wireframe.NewBuilder().Gizmo()
	var dropped int
	paths := seriesPaths(gizmo.Curves[0].Segments, MaxBoxesPerDepth, &dropped)
	require.Len(t, paths, 3)
	for _, p := range paths {
		assert.Len(t, p, 2)
	}
	assert.Nil(t, seriesPaths(nil, 1, &dropped))
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, boxGroup(t), "density wireframe", HTMLOptions{}))
	out := buf.String()
	assert.Contains(t, out, "density wireframe")
	assert.Contains(t, out, "line3D")
	assert.True(t, strings.Contains(out, AssetsHost))

	assert.ErrorIs(t, RenderHTML(&buf, nil, "x", HTMLOptions{}), wireframe.ErrNilGroup)
}
