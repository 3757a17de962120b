package debugdraw

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-viz/lumen/common"
	"github.com/lumen-viz/lumen/engine/renderer"
)

type fakeShader struct{ name string }

func (s *fakeShader) Name() string { return s.name }

type fakePipeline struct {
	config      renderer.PipelineConfig
	pixelShader renderer.PixelShader
	activations int
	released    bool
}

func (p *fakePipeline) Activate() { p.activations++ }
func (p *fakePipeline) Release()  { p.released = true }

type fakePrimitive struct {
	topology    renderer.Topology
	vertexData  []byte
	vertexCount int
	indices     []uint32
	draws       int
	released    bool
}

func (p *fakePrimitive) SetVertexData(data []byte, vertexCount int) {
	p.vertexData = append([]byte(nil), data...)
	p.vertexCount = vertexCount
}

func (p *fakePrimitive) SetIndexData(indices []uint32) {
	p.indices = append([]uint32(nil), indices...)
}

func (p *fakePrimitive) Draw()    { p.draws++ }
func (p *fakePrimitive) Release() { p.released = true }

type instanceDraw struct {
	prim  renderer.RenderPrimitive
	start int
	count int
}

type fakeInstances struct {
	count    int
	uploads  int
	draws    []instanceDraw
	released bool
}

func (i *fakeInstances) SetInstanceData(data []byte, instanceCount int) {
	i.count = instanceCount
	i.uploads++
}

func (i *fakeInstances) Draw(prim renderer.RenderPrimitive, startInstance, instanceCount int) {
	i.draws = append(i.draws, instanceDraw{prim: prim, start: startInstance, count: instanceCount})
}

func (i *fakeInstances) Release() { i.released = true }

// fakeRenderer satisfies renderer.Renderer, handing out recording fakes for
// every resource the drawing layer creates.
type fakeRenderer struct {
	frameIndex uint32
	prims      []*fakePrimitive
	instances  []*fakeInstances
	pipelines  []*fakePipeline
}

var _ renderer.Renderer = &fakeRenderer{}

func (r *fakeRenderer) BeginFrame(camera renderer.CameraState, worldScale float32) error { return nil }
func (r *fakeRenderer) EndShadowPass()                                                   {}
func (r *fakeRenderer) EndFrame()                                                        {}
func (r *fakeRenderer) SetProjectionMode()                                               {}
func (r *fakeRenderer) SetOrthoMode()                                                    {}
func (r *fakeRenderer) OnWindowResize(width, height int)                                 {}
func (r *fakeRenderer) CurrentFrameIndex() uint32                                        { return r.frameIndex }
func (r *fakeRenderer) CameraState() renderer.CameraState                                { return renderer.NewCameraState() }
func (r *fakeRenderer) CameraFrustum() common.Frustum                                    { return common.Frustum{} }
func (r *fakeRenderer) LightFrustum() common.Frustum                                     { return common.Frustum{} }
func (r *fakeRenderer) BaseOffset() mgl64.Vec3                                           { return mgl64.Vec3{} }
func (r *fakeRenderer) SetBaseOffset(offset mgl64.Vec3)                                  {}
func (r *fakeRenderer) PerspectiveYSign() float32                                        { return 1 }
func (r *fakeRenderer) ShadowMap() renderer.Texture                                      { return nil }

func (r *fakeRenderer) CreateTexture(surface *common.Surface) (renderer.Texture, error) {
	return nil, nil
}

func (r *fakeRenderer) CreateVertexShader(name, source string) (renderer.VertexShader, error) {
	return &fakeShader{name: name}, nil
}

func (r *fakeRenderer) CreatePixelShader(name, source string) (renderer.PixelShader, error) {
	return &fakeShader{name: name}, nil
}

func (r *fakeRenderer) CreatePipelineState(vs renderer.VertexShader, input []renderer.VertexAttribute, ps renderer.PixelShader, config renderer.PipelineConfig) (renderer.PipelineState, error) {
	p := &fakePipeline{config: config, pixelShader: ps}
	r.pipelines = append(r.pipelines, p)
	return p, nil
}

func (r *fakeRenderer) CreateRenderPrimitive(topology renderer.Topology) renderer.RenderPrimitive {
	p := &fakePrimitive{topology: topology}
	r.prims = append(r.prims, p)
	return p
}

func (r *fakeRenderer) CreateRenderInstances() renderer.RenderInstances {
	i := &fakeInstances{}
	r.instances = append(r.instances, i)
	return i
}

func (r *fakeRenderer) Close() {}

// pipeline finds the pipeline built against the named pixel shader with the
// given options. Shadow pipelines carry no pixel shader; look them up with an
// empty name.
func (r *fakeRenderer) pipeline(t *testing.T, psName string, pass renderer.DrawPass, fill renderer.FillMode, cull renderer.CullMode) *fakePipeline {
	t.Helper()
	for _, p := range r.pipelines {
		name := ""
		if p.pixelShader != nil {
			name = p.pixelShader.Name()
		}
		if name == psName && p.config.Pass == pass && p.config.Fill == fill && p.config.Cull == cull {
			return p
		}
	}
	t.Fatalf("no pipeline for ps=%q pass=%d fill=%d cull=%d", psName, pass, fill, cull)
	return nil
}

func newTestDebugRenderer() (DebugRenderer, *fakeRenderer) {
	r := &fakeRenderer{}
	return NewDebugRenderer(r), r
}

func quadVertices() []Vertex {
	return []Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, Color: common.ColorWhite},
		{Position: mgl32.Vec3{1, 0, 0}, Color: common.ColorWhite},
		{Position: mgl32.Vec3{1, 1, 0}, Color: common.ColorWhite},
		{Position: mgl32.Vec3{0, 1, 0}, Color: common.ColorWhite},
	}
}

func TestNewDebugRendererRequiresRenderer(t *testing.T) {
	assert.Panics(t, func() { NewDebugRenderer(nil) })
}

func TestNewDebugRendererBuildsPipelines(t *testing.T) {
	_, r := newTestDebugRenderer()

	// line, ad-hoc triangle, wireframe, three solid culls, three shadow culls
	assert.Len(t, r.pipelines, 9)

	for _, cull := range []renderer.CullMode{renderer.CullModeBackFace, renderer.CullModeFrontFace, renderer.CullModeOff} {
		shadow := r.pipeline(t, "", renderer.DrawPassShadow, renderer.FillModeSolid, cull)
		assert.Nil(t, shadow.pixelShader, "shadow pipelines are depth-only")
	}

	// one line and one triangle primitive plus one instance buffer per frame
	assert.Len(t, r.prims, 2*renderer.FrameCount)
	assert.Len(t, r.instances, renderer.FrameCount)
}

func TestDrawLineAccumulates(t *testing.T) {
	d, r := newTestDebugRenderer()

	d.DrawLine(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, common.ColorRed)
	d.DrawLine(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, common.ColorGreen)
	d.Draw()

	linePrim := r.prims[0]
	assert.Equal(t, renderer.TopologyLineList, linePrim.topology)
	assert.Equal(t, 4, linePrim.vertexCount, "two segments upload four vertices")
	assert.Equal(t, 1, linePrim.draws)
	assert.Equal(t, 1, r.pipeline(t, "debug_line", renderer.DrawPassNormal, renderer.FillModeSolid, renderer.CullModeOff).activations)
}

func TestDrawTriangleAccumulates(t *testing.T) {
	d, r := newTestDebugRenderer()

	d.DrawTriangle(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, common.ColorBlue)
	d.Draw()

	triPrim := r.prims[1]
	assert.Equal(t, renderer.TopologyTriangleList, triPrim.topology)
	assert.Equal(t, 3, triPrim.vertexCount)
	assert.Equal(t, 1, triPrim.draws)
}

func TestDrawMarkerQueuesThreeLines(t *testing.T) {
	d, r := newTestDebugRenderer()

	d.DrawMarker(mgl32.Vec3{1, 2, 3}, common.ColorYellow, 0.5)
	d.Draw()

	assert.Equal(t, 6, r.prims[0].vertexCount)
}

func TestDrawWireBoxQueuesTwelveEdges(t *testing.T) {
	d, r := newTestDebugRenderer()

	d.DrawWireBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, common.ColorGreen)
	d.Draw()

	assert.Equal(t, 24, r.prims[0].vertexCount)
}

func TestCreateTriangleBatchRequiresVertices(t *testing.T) {
	d, _ := newTestDebugRenderer()

	assert.Panics(t, func() { d.CreateTriangleBatch(nil, nil) })
}

func TestCreateTriangleBatchUploads(t *testing.T) {
	d, r := newTestDebugRenderer()

	d.CreateTriangleBatch(quadVertices(), []uint32{0, 1, 2, 0, 2, 3})

	batchPrim := r.prims[len(r.prims)-1]
	assert.Equal(t, renderer.TopologyTriangleList, batchPrim.topology)
	assert.Equal(t, 4, batchPrim.vertexCount)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, batchPrim.indices)
}

func TestDrawGeometryGroupsInstances(t *testing.T) {
	d, r := newTestDebugRenderer()

	batch := d.CreateTriangleBatch(quadVertices(), []uint32{0, 1, 2, 0, 2, 3})
	batchPrim := r.prims[len(r.prims)-1]

	// two instances share a group, the third differs in cull mode
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, true, renderer.FillModeSolid, renderer.CullModeBackFace)
	d.DrawGeometry(batch, mgl32.Translate3D(1, 0, 0), common.ColorWhite, true, renderer.FillModeSolid, renderer.CullModeBackFace)
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorRed, false, renderer.FillModeSolid, renderer.CullModeOff)

	d.DrawShadowPass()

	inst := r.instances[0]
	assert.Equal(t, 3, inst.count, "all groups pack into one upload")
	require.Len(t, inst.draws, 1, "only the shadow-casting group draws in the shadow pass")
	assert.Equal(t, instanceDraw{prim: batchPrim, start: 0, count: 2}, inst.draws[0])

	d.Draw()
	require.Len(t, inst.draws, 3)
	assert.Equal(t, instanceDraw{prim: batchPrim, start: 0, count: 2}, inst.draws[1])
	assert.Equal(t, instanceDraw{prim: batchPrim, start: 2, count: 1}, inst.draws[2])
}

func TestFlushRunsOncePerFrame(t *testing.T) {
	d, r := newTestDebugRenderer()

	batch := d.CreateTriangleBatch(quadVertices(), nil)
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, true, renderer.FillModeSolid, renderer.CullModeBackFace)

	d.DrawShadowPass()
	d.Draw()
	assert.Equal(t, 1, r.instances[0].uploads)

	d.Clear()
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, true, renderer.FillModeSolid, renderer.CullModeBackFace)
	d.DrawShadowPass()
	assert.Equal(t, 2, r.instances[0].uploads, "Clear re-arms the per-frame flush")
}

func TestWireframeDrawsEdgePrimitive(t *testing.T) {
	d, r := newTestDebugRenderer()

	batch := d.CreateTriangleBatch(quadVertices()[:3], nil)
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, false, renderer.FillModeWireframe, renderer.CullModeOff)
	d.Draw()

	edgePrim := r.prims[len(r.prims)-1]
	assert.Equal(t, renderer.TopologyLineList, edgePrim.topology)
	assert.Equal(t, []uint32{0, 1, 1, 2, 2, 0}, edgePrim.indices)

	inst := r.instances[0]
	require.Len(t, inst.draws, 1)
	assert.Same(t, edgePrim, inst.draws[0].prim)
	assert.Equal(t, 1, r.pipeline(t, "debug_geometry", renderer.DrawPassNormal, renderer.FillModeWireframe, renderer.CullModeOff).activations)
}

func TestWireframeEdgeIndicesFollowBatchIndices(t *testing.T) {
	d, r := newTestDebugRenderer()

	batch := d.CreateTriangleBatch(quadVertices(), []uint32{0, 1, 2, 0, 2, 3})
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, false, renderer.FillModeWireframe, renderer.CullModeOff)
	d.Draw()

	edgePrim := r.prims[len(r.prims)-1]
	assert.Equal(t, []uint32{0, 1, 1, 2, 2, 0, 0, 2, 2, 3, 3, 0}, edgePrim.indices)
}

func TestEdgePrimitiveIsBuiltOnce(t *testing.T) {
	d, r := newTestDebugRenderer()

	batch := d.CreateTriangleBatch(quadVertices()[:3], nil)
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, false, renderer.FillModeWireframe, renderer.CullModeOff)
	d.Draw()
	created := len(r.prims)

	d.Clear()
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, false, renderer.FillModeWireframe, renderer.CullModeOff)
	d.Draw()
	assert.Equal(t, created, len(r.prims), "second wireframe draw reuses the edge primitive")
}

func TestClearDropsQueuedGeometry(t *testing.T) {
	d, r := newTestDebugRenderer()

	batch := d.CreateTriangleBatch(quadVertices(), nil)
	d.DrawLine(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, common.ColorRed)
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, true, renderer.FillModeSolid, renderer.CullModeBackFace)
	d.Clear()

	d.DrawShadowPass()
	d.Draw()

	assert.Zero(t, r.instances[0].uploads)
	assert.Empty(t, r.instances[0].draws)
	assert.Zero(t, r.prims[0].draws)
}

func TestDrawUsesCurrentFrameBuffers(t *testing.T) {
	d, r := newTestDebugRenderer()

	batch := d.CreateTriangleBatch(quadVertices(), nil)
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, true, renderer.FillModeSolid, renderer.CullModeBackFace)
	d.DrawShadowPass()
	d.Draw()
	d.Clear()

	r.frameIndex = 1
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, true, renderer.FillModeSolid, renderer.CullModeBackFace)
	d.DrawShadowPass()
	d.Draw()

	assert.Equal(t, 1, r.instances[0].uploads)
	assert.Equal(t, 1, r.instances[1].uploads)
}

func TestBatchReleaseFreesPrimitives(t *testing.T) {
	d, r := newTestDebugRenderer()

	batch := d.CreateTriangleBatch(quadVertices()[:3], nil)
	d.DrawGeometry(batch, mgl32.Ident4(), common.ColorWhite, false, renderer.FillModeWireframe, renderer.CullModeOff)
	d.Draw()

	batch.Release()
	batchPrim := r.prims[2*renderer.FrameCount]
	edgePrim := r.prims[len(r.prims)-1]
	assert.True(t, batchPrim.released)
	assert.True(t, edgePrim.released)
}

func TestReleaseFreesLayerResources(t *testing.T) {
	d, r := newTestDebugRenderer()

	d.Release()
	for _, p := range r.pipelines {
		assert.True(t, p.released)
	}
	for _, p := range r.prims {
		assert.True(t, p.released)
	}
	for _, i := range r.instances {
		assert.True(t, i.released)
	}
}
