// Package export writes wireframe groups as glTF scenes, plot images and
// interactive HTML pages.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/banshee-data/voxelview/internal/volume"
	"github.com/banshee-data/voxelview/internal/wireframe"
)

// WriteGLTF writes g to path as a glTF scene. binary selects the .glb
// container; otherwise buffers are embedded in the JSON document.
func WriteGLTF(g *wireframe.Group, path string, binary bool) error {
	doc, err := BuildGLTF(g)
	if err != nil {
		return &volume.IOError{Op: "export", Path: path, Err: err}
	}
	if binary {
		err = gltf.SaveBinary(doc, path)
	} else {
		for _, b := range doc.Buffers {
			b.EmbeddedResource()
		}
		err = gltf.Save(doc, path)
	}
	if err != nil {
		opsf("glTF export to %s failed: %v", path, err)
		return &volume.IOError{Op: "export", Path: path, Err: err}
	}
	diagf("wrote %s (%d nodes, %d meshes)", filepath.Base(path), len(doc.Nodes), len(doc.Meshes))
	return nil
}

// BuildGLTF converts g into a glTF document with one node per group.
// Each non-empty Curves becomes a LINES primitive carrying POSITION and
// COLOR_0, coloured by the group's effective state.
func BuildGLTF(g *wireframe.Group) (*gltf.Document, error) {
	if g == nil {
		return nil, wireframe.ErrNilGroup
	}
	b := &gltfBuilder{doc: gltf.NewDocument(), materials: make(map[wireframe.Color4]int)}
	root := b.addGroup(g, wireframe.State{})
	b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, root)
	return b.doc, nil
}

type gltfBuilder struct {
	doc       *gltf.Document
	materials map[wireframe.Color4]int
}

func (b *gltfBuilder) addGroup(g *wireframe.Group, inherited wireframe.State) int {
	st := inherited
	if g.State != nil {
		st = *g.State
	}

	node := &gltf.Node{Name: nodeName(g.Name)}
	if prims := b.primitives(g.Curves, st); len(prims) > 0 {
		b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Name: node.Name, Primitives: prims})
		node.Mesh = gltf.Index(len(b.doc.Meshes) - 1)
	}
	b.doc.Nodes = append(b.doc.Nodes, node)
	idx := len(b.doc.Nodes) - 1

	for _, c := range g.Children {
		node.Children = append(node.Children, b.addGroup(c, st))
	}
	return idx
}

func (b *gltfBuilder) primitives(curves []*wireframe.Curves, st wireframe.State) []*gltf.Primitive {
	var prims []*gltf.Primitive
	for _, c := range curves {
		positions := c.Positions()
		if len(positions) == 0 {
			continue
		}
		colors := make([][4]float32, len(positions))
		indices := make([]uint32, len(positions))
		for i := range positions {
			colors[i] = st.Color
			indices[i] = uint32(i)
		}
		prims = append(prims, &gltf.Primitive{
			Attributes: map[string]int{
				gltf.POSITION: modeler.WritePosition(b.doc, positions),
				gltf.COLOR_0:  modeler.WriteColor(b.doc, colors),
			},
			Indices:  gltf.Index(modeler.WriteIndices(b.doc, indices)),
			Material: gltf.Index(b.material(st.Color)),
			Mode:     gltf.PrimitiveLines,
		})
	}
	return prims
}

func (b *gltfBuilder) material(c wireframe.Color4) int {
	if idx, ok := b.materials[c]; ok {
		return idx
	}
	m := &gltf.Material{
		Name: fmt.Sprintf("line %.2f %.2f %.2f %.2f", c[0], c[1], c[2], c[3]),
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
		AlphaMode: gltf.AlphaOpaque,
	}
	if c[3] < 1 {
		m.AlphaMode = gltf.AlphaBlend
	}
	b.doc.Materials = append(b.doc.Materials, m)
	idx := len(b.doc.Materials) - 1
	b.materials[c] = idx
	return idx
}

func nodeName(name string) string {
	if name == "" {
		return "group"
	}
	return strings.ReplaceAll(name, " ", "_")
}
