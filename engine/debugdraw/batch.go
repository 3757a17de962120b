package debugdraw

import (
	"github.com/lumen-viz/lumen/common"
	"github.com/lumen-viz/lumen/engine/renderer"
)

// Batch is a reusable, shared-ownership triangle mesh created once and drawn
// any number of times through DrawGeometry. Release after all holders are done.
type Batch interface {
	// Release frees the batch's GPU resources.
	Release()
}

type triangleBatch struct {
	r renderer.Renderer

	prim renderer.RenderPrimitive

	// edgePrim is built on first wireframe draw. WebGPU rasterizes no
	// polygon edges, so wireframe draws need a line-list index view of the
	// same vertices.
	edgePrim renderer.RenderPrimitive

	vertices []Vertex
	indices  []uint32
}

var _ Batch = &triangleBatch{}

func newTriangleBatch(r renderer.Renderer, vertices []Vertex, indices []uint32) *triangleBatch {
	if len(vertices) == 0 {
		panic("debugdraw: triangle batch requires vertices")
	}
	prim := r.CreateRenderPrimitive(renderer.TopologyTriangleList)
	prim.SetVertexData(common.SliceToBytes(vertices), len(vertices))
	if len(indices) > 0 {
		prim.SetIndexData(indices)
	}
	return &triangleBatch{
		r:        r,
		prim:     prim,
		vertices: vertices,
		indices:  indices,
	}
}

// edgePrimitive returns the line-list view of the batch, building it on
// first use.
func (b *triangleBatch) edgePrimitive() renderer.RenderPrimitive {
	if b.edgePrim != nil {
		return b.edgePrim
	}

	triangleCount := len(b.indices) / 3
	indexed := len(b.indices) > 0
	if !indexed {
		triangleCount = len(b.vertices) / 3
	}
	edges := make([]uint32, 0, triangleCount*6)
	for t := range triangleCount {
		var i0, i1, i2 uint32
		if indexed {
			i0, i1, i2 = b.indices[t*3], b.indices[t*3+1], b.indices[t*3+2]
		} else {
			i0, i1, i2 = uint32(t*3), uint32(t*3+1), uint32(t*3+2)
		}
		edges = append(edges, i0, i1, i1, i2, i2, i0)
	}

	prim := b.r.CreateRenderPrimitive(renderer.TopologyLineList)
	prim.SetVertexData(common.SliceToBytes(b.vertices), len(b.vertices))
	prim.SetIndexData(edges)
	b.edgePrim = prim
	return prim
}

func (b *triangleBatch) Release() {
	b.prim.Release()
	if b.edgePrim != nil {
		b.edgePrim.Release()
		b.edgePrim = nil
	}
}
