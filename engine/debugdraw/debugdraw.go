// Package debugdraw is a batched immediate-mode drawing layer for
// visualization geometry: per-frame lines and triangles plus reusable
// instanced triangle batches, rendered through the frame orchestrator's
// shadow and main passes.
package debugdraw

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen-viz/lumen/common"
	"github.com/lumen-viz/lumen/engine/renderer"
)

// DebugRenderer accumulates drawing requests between frames and replays them
// into the shadow and main passes. All methods are render-thread only.
// DrawShadowPass and Draw must be called inside a frame; the accumulation
// calls (DrawLine, DrawTriangle, DrawGeometry) may happen at any time before
// them.
type DebugRenderer interface {
	// DrawLine queues a single colored line segment for the next Draw.
	//
	// Parameters:
	//   - from, to: segment endpoints in rebased render space
	//   - color: the line color
	DrawLine(from, to mgl32.Vec3, color common.Color)

	// DrawTriangle queues a single lit triangle for the next Draw. The
	// normal is derived from the winding.
	//
	// Parameters:
	//   - v1, v2, v3: triangle corners in rebased render space
	//   - color: the triangle color
	DrawTriangle(v1, v2, v3 mgl32.Vec3, color common.Color)

	// DrawMarker queues three axis-aligned crossing lines centered on a
	// position.
	//
	// Parameters:
	//   - position: the marker center
	//   - color: the marker color
	//   - size: half-length of each axis line
	DrawMarker(position mgl32.Vec3, color common.Color, size float32)

	// DrawWireBox queues the twelve edges of an axis-aligned box.
	//
	// Parameters:
	//   - boxMin, boxMax: opposite box corners
	//   - color: the edge color
	DrawWireBox(boxMin, boxMax mgl32.Vec3, color common.Color)

	// CreateTriangleBatch uploads a reusable triangle mesh. Pass indices as
	// nil to draw the vertices as a plain triangle list.
	//
	// Parameters:
	//   - vertices: the mesh vertices (must be non-empty)
	//   - indices: 32-bit triangle indices, or nil
	//
	// Returns:
	//   - Batch: the uploaded batch
	CreateTriangleBatch(vertices []Vertex, indices []uint32) Batch

	// DrawGeometry queues one instance of a batch for the next frame walk.
	//
	// Parameters:
	//   - batch: a batch created by CreateTriangleBatch
	//   - transform: the instance's model transform
	//   - color: instance color, multiplied with vertex colors
	//   - castShadow: whether the instance renders into the shadow pass
	//   - fill: solid or wireframe rasterization
	//   - cull: triangle culling mode
	DrawGeometry(batch Batch, transform mgl32.Mat4, color common.Color, castShadow bool, fill renderer.FillMode, cull renderer.CullMode)

	// DrawShadowPass replays the queued shadow-casting geometry into the
	// current frame's shadow pass. Call between BeginFrame and EndShadowPass.
	DrawShadowPass()

	// Draw replays all queued geometry into the current frame's main pass.
	// Call between EndShadowPass and EndFrame.
	Draw()

	// Clear drops all queued drawing requests. Call once per frame after
	// EndFrame.
	Clear()

	// Release frees the GPU resources. Batches created by
	// CreateTriangleBatch are owned by their callers and survive.
	Release()
}

type drawKey struct {
	batch      *triangleBatch
	fill       renderer.FillMode
	cull       renderer.CullMode
	castShadow bool
}

type drawGroup struct {
	instances []instanceData
	start     int
}

type debugRenderer struct {
	r renderer.Renderer

	linePipeline     renderer.PipelineState
	trianglePipeline renderer.PipelineState
	wirePipeline     renderer.PipelineState
	solidPipelines   map[renderer.CullMode]renderer.PipelineState
	shadowPipelines  map[renderer.CullMode]renderer.PipelineState

	linePrims [renderer.FrameCount]renderer.RenderPrimitive
	triPrims  [renderer.FrameCount]renderer.RenderPrimitive
	instances [renderer.FrameCount]renderer.RenderInstances

	lines     []lineVertex
	triangles []Vertex

	groups  map[drawKey]*drawGroup
	order   []drawKey
	flushed bool
}

var _ DebugRenderer = &debugRenderer{}

// NewDebugRenderer builds the drawing layer's shaders, pipelines and
// per-frame buffers. Any GPU resource failure here is fatal: the harness
// cannot run without its drawing layer.
//
// Parameters:
//   - r: the frame orchestrator to draw through (must not be nil)
//
// Returns:
//   - DebugRenderer: the drawing layer
func NewDebugRenderer(r renderer.Renderer) DebugRenderer {
	if r == nil {
		panic("debugdraw: renderer is required")
	}
	d := &debugRenderer{
		r:               r,
		solidPipelines:  make(map[renderer.CullMode]renderer.PipelineState),
		shadowPipelines: make(map[renderer.CullMode]renderer.PipelineState),
		groups:          make(map[drawKey]*drawGroup),
	}
	d.buildPipelines()
	for i := range renderer.FrameCount {
		d.linePrims[i] = r.CreateRenderPrimitive(renderer.TopologyLineList)
		d.triPrims[i] = r.CreateRenderPrimitive(renderer.TopologyTriangleList)
		d.instances[i] = r.CreateRenderInstances()
	}
	return d
}

func (d *debugRenderer) buildPipelines() {
	lineAttrs := []renderer.VertexAttribute{
		renderer.AttrPosition,
		renderer.AttrColor,
	}
	geometryAttrs := []renderer.VertexAttribute{
		renderer.AttrPosition,
		renderer.AttrNormal,
		renderer.AttrTexCoord,
		renderer.AttrColor,
	}
	instancedAttrs := append(append([]renderer.VertexAttribute{}, geometryAttrs...),
		renderer.AttrInstanceTransform,
		renderer.AttrInstanceInvTransform,
		renderer.AttrInstanceColor,
	)

	lineVS := d.mustVertexShader("debug_line", lineShaderSource)
	linePS := d.mustPixelShader("debug_line", lineShaderSource)
	triangleVS := d.mustVertexShader("debug_triangle", triangleShaderSource)
	trianglePS := d.mustPixelShader("debug_triangle", triangleShaderSource)
	geometryVS := d.mustVertexShader("debug_geometry", geometryShaderSource)
	geometryPS := d.mustPixelShader("debug_geometry", geometryShaderSource)
	shadowVS := d.mustVertexShader("debug_geometry_shadow", geometryShadowShaderSource)

	d.linePipeline = d.mustPipeline(lineVS, lineAttrs, linePS, renderer.PipelineConfig{
		Pass:      renderer.DrawPassNormal,
		Fill:      renderer.FillModeSolid,
		Topology:  renderer.TopologyLineList,
		DepthTest: renderer.DepthTestOn,
		Blend:     renderer.BlendModeWrite,
		Cull:      renderer.CullModeOff,
	})
	d.trianglePipeline = d.mustPipeline(triangleVS, geometryAttrs, trianglePS, renderer.PipelineConfig{
		Pass:      renderer.DrawPassNormal,
		Fill:      renderer.FillModeSolid,
		Topology:  renderer.TopologyTriangleList,
		DepthTest: renderer.DepthTestOn,
		Blend:     renderer.BlendModeAlphaBlend,
		Cull:      renderer.CullModeOff,
	})
	d.wirePipeline = d.mustPipeline(geometryVS, instancedAttrs, geometryPS, renderer.PipelineConfig{
		Pass:      renderer.DrawPassNormal,
		Fill:      renderer.FillModeWireframe,
		Topology:  renderer.TopologyLineList,
		DepthTest: renderer.DepthTestOn,
		Blend:     renderer.BlendModeWrite,
		Cull:      renderer.CullModeOff,
	})
	for _, cull := range []renderer.CullMode{renderer.CullModeBackFace, renderer.CullModeFrontFace, renderer.CullModeOff} {
		d.solidPipelines[cull] = d.mustPipeline(geometryVS, instancedAttrs, geometryPS, renderer.PipelineConfig{
			Pass:      renderer.DrawPassNormal,
			Fill:      renderer.FillModeSolid,
			Topology:  renderer.TopologyTriangleList,
			DepthTest: renderer.DepthTestOn,
			Blend:     renderer.BlendModeAlphaBlend,
			Cull:      cull,
		})
		d.shadowPipelines[cull] = d.mustPipeline(shadowVS, instancedAttrs, nil, renderer.PipelineConfig{
			Pass:      renderer.DrawPassShadow,
			Fill:      renderer.FillModeSolid,
			Topology:  renderer.TopologyTriangleList,
			DepthTest: renderer.DepthTestOn,
			Blend:     renderer.BlendModeWrite,
			Cull:      cull,
		})
	}
}

func (d *debugRenderer) mustVertexShader(name, source string) renderer.VertexShader {
	vs, err := d.r.CreateVertexShader(name, source)
	if err != nil {
		panic(err)
	}
	return vs
}

func (d *debugRenderer) mustPixelShader(name, source string) renderer.PixelShader {
	ps, err := d.r.CreatePixelShader(name, source)
	if err != nil {
		panic(err)
	}
	return ps
}

func (d *debugRenderer) mustPipeline(vs renderer.VertexShader, input []renderer.VertexAttribute, ps renderer.PixelShader, config renderer.PipelineConfig) renderer.PipelineState {
	p, err := d.r.CreatePipelineState(vs, input, ps, config)
	if err != nil {
		panic(err)
	}
	return p
}

func (d *debugRenderer) DrawLine(from, to mgl32.Vec3, color common.Color) {
	d.lines = append(d.lines,
		lineVertex{Position: from, Color: color},
		lineVertex{Position: to, Color: color},
	)
}

func (d *debugRenderer) DrawTriangle(v1, v2, v3 mgl32.Vec3, color common.Color) {
	normal := v2.Sub(v1).Cross(v3.Sub(v1))
	if length := normal.Len(); length > 0 {
		normal = normal.Mul(1 / length)
	}
	d.triangles = append(d.triangles,
		Vertex{Position: v1, Normal: normal, Color: color},
		Vertex{Position: v2, Normal: normal, Color: color},
		Vertex{Position: v3, Normal: normal, Color: color},
	)
}

func (d *debugRenderer) DrawMarker(position mgl32.Vec3, color common.Color, size float32) {
	d.DrawLine(position.Sub(mgl32.Vec3{size, 0, 0}), position.Add(mgl32.Vec3{size, 0, 0}), color)
	d.DrawLine(position.Sub(mgl32.Vec3{0, size, 0}), position.Add(mgl32.Vec3{0, size, 0}), color)
	d.DrawLine(position.Sub(mgl32.Vec3{0, 0, size}), position.Add(mgl32.Vec3{0, 0, size}), color)
}

func (d *debugRenderer) DrawWireBox(boxMin, boxMax mgl32.Vec3, color common.Color) {
	corners := [8]mgl32.Vec3{
		{boxMin.X(), boxMin.Y(), boxMin.Z()},
		{boxMax.X(), boxMin.Y(), boxMin.Z()},
		{boxMax.X(), boxMax.Y(), boxMin.Z()},
		{boxMin.X(), boxMax.Y(), boxMin.Z()},
		{boxMin.X(), boxMin.Y(), boxMax.Z()},
		{boxMax.X(), boxMin.Y(), boxMax.Z()},
		{boxMax.X(), boxMax.Y(), boxMax.Z()},
		{boxMin.X(), boxMax.Y(), boxMax.Z()},
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	for _, e := range edges {
		d.DrawLine(corners[e[0]], corners[e[1]], color)
	}
}

func (d *debugRenderer) CreateTriangleBatch(vertices []Vertex, indices []uint32) Batch {
	return newTriangleBatch(d.r, vertices, indices)
}

func (d *debugRenderer) DrawGeometry(batch Batch, transform mgl32.Mat4, color common.Color, castShadow bool, fill renderer.FillMode, cull renderer.CullMode) {
	key := drawKey{
		batch:      batch.(*triangleBatch),
		fill:       fill,
		cull:       cull,
		castShadow: castShadow,
	}
	group, ok := d.groups[key]
	if !ok {
		group = &drawGroup{}
		d.groups[key] = group
		d.order = append(d.order, key)
	}
	group.instances = append(group.instances, instanceData{
		Transform:    transform,
		InvTransform: transform.Inv().Transpose(),
		Color:        color,
	})
}

// flush packs all queued instance groups into the current frame's instance
// buffer and records each group's start offset. Runs once per frame, from
// whichever of DrawShadowPass or Draw comes first.
func (d *debugRenderer) flush() {
	if d.flushed {
		return
	}
	d.flushed = true

	total := 0
	for _, key := range d.order {
		total += len(d.groups[key].instances)
	}
	if total == 0 {
		return
	}
	flat := make([]instanceData, 0, total)
	for _, key := range d.order {
		group := d.groups[key]
		group.start = len(flat)
		flat = append(flat, group.instances...)
	}
	d.instances[d.r.CurrentFrameIndex()].SetInstanceData(common.SliceToBytes(flat), total)
}

func (d *debugRenderer) DrawShadowPass() {
	d.flush()
	frame := d.r.CurrentFrameIndex()
	for _, key := range d.order {
		if !key.castShadow {
			continue
		}
		group := d.groups[key]
		if len(group.instances) == 0 {
			continue
		}
		d.shadowPipelines[key.cull].Activate()
		d.instances[frame].Draw(key.batch.prim, group.start, len(group.instances))
	}
}

func (d *debugRenderer) Draw() {
	d.flush()
	frame := d.r.CurrentFrameIndex()

	for _, key := range d.order {
		group := d.groups[key]
		if len(group.instances) == 0 {
			continue
		}
		if key.fill == renderer.FillModeWireframe {
			d.wirePipeline.Activate()
			d.instances[frame].Draw(key.batch.edgePrimitive(), group.start, len(group.instances))
		} else {
			d.solidPipelines[key.cull].Activate()
			d.instances[frame].Draw(key.batch.prim, group.start, len(group.instances))
		}
	}

	if len(d.triangles) > 0 {
		prim := d.triPrims[frame]
		prim.SetVertexData(common.SliceToBytes(d.triangles), len(d.triangles))
		d.trianglePipeline.Activate()
		prim.Draw()
	}

	if len(d.lines) > 0 {
		prim := d.linePrims[frame]
		prim.SetVertexData(common.SliceToBytes(d.lines), len(d.lines))
		d.linePipeline.Activate()
		prim.Draw()
	}
}

func (d *debugRenderer) Clear() {
	d.lines = d.lines[:0]
	d.triangles = d.triangles[:0]
	d.groups = make(map[drawKey]*drawGroup)
	d.order = d.order[:0]
	d.flushed = false
}

func (d *debugRenderer) Release() {
	d.linePipeline.Release()
	d.trianglePipeline.Release()
	d.wirePipeline.Release()
	for _, p := range d.solidPipelines {
		p.Release()
	}
	for _, p := range d.shadowPipelines {
		p.Release()
	}
	for i := range renderer.FrameCount {
		d.linePrims[i].Release()
		d.triPrims[i].Release()
		d.instances[i].Release()
	}
}
