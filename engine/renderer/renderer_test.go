package renderer

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-viz/lumen/common"
	"github.com/lumen-viz/lumen/engine/window"
)

// beginFrameCall records the arguments of one Backend.BeginFrame invocation.
type beginFrameCall struct {
	frameIndex uint32
	vs         VertexShaderConstants
	vsOrtho    VertexShaderConstants
	ps         PixelShaderConstants
}

// fakeBackend records the orchestrator's calls without touching a GPU.
type fakeBackend struct {
	ySign         float32
	beginErr      error
	beginCalls    []beginFrameCall
	endShadow     int
	endFrame      int
	resizes       [][2]int
	projectionSet int
	orthoSet      int
	closed        bool
}

var _ Backend = &fakeBackend{}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) PerspectiveYSign() float32 {
	if b.ySign == 0 {
		return 1
	}
	return b.ySign
}

func (b *fakeBackend) BeginFrame(frameIndex uint32, vs, vsOrtho *VertexShaderConstants, ps *PixelShaderConstants) error {
	if b.beginErr != nil {
		return b.beginErr
	}
	b.beginCalls = append(b.beginCalls, beginFrameCall{
		frameIndex: frameIndex,
		vs:         *vs,
		vsOrtho:    *vsOrtho,
		ps:         *ps,
	})
	return nil
}

func (b *fakeBackend) EndShadowPass()            { b.endShadow++ }
func (b *fakeBackend) EndFrame()                 { b.endFrame++ }
func (b *fakeBackend) OnResize(width, height int) { b.resizes = append(b.resizes, [2]int{width, height}) }
func (b *fakeBackend) SetProjectionMode()        { b.projectionSet++ }
func (b *fakeBackend) SetOrthoMode()             { b.orthoSet++ }
func (b *fakeBackend) ShadowMap() Texture        { return nil }

func (b *fakeBackend) CreateTexture(surface *common.Surface) (Texture, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBackend) CreateVertexShader(name, source string) (VertexShader, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBackend) CreatePixelShader(name, source string) (PixelShader, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBackend) CreatePipelineState(vs VertexShader, input []VertexAttribute, ps PixelShader, config PipelineConfig) (PipelineState, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBackend) CreateRenderPrimitive(topology Topology) RenderPrimitive { return nil }
func (b *fakeBackend) CreateRenderInstances() RenderInstances                  { return nil }
func (b *fakeBackend) Close()                                                  { b.closed = true }

// fakeWindow satisfies window.Window with a fixed client area.
type fakeWindow struct {
	width  int
	height int
}

func (w *fakeWindow) Poll() bool                                      { return true }
func (w *fakeWindow) SetResizeCallback(func(width, height int))       {}
func (w *fakeWindow) SetKeyCallback(func(key window.Key, pressed bool)) {}
func (w *fakeWindow) SetScrollCallback(func(delta float32))           {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor      { return nil }
func (w *fakeWindow) Width() int                                      { return w.width }
func (w *fakeWindow) Height() int                                     { return w.height }
func (w *fakeWindow) Close() error                                    { return nil }

func newTestRenderer(options ...BuilderOption) (Renderer, *fakeBackend) {
	b := &fakeBackend{}
	return NewRenderer(b, &fakeWindow{width: 1920, height: 1080}, options...), b
}

func runFrame(t *testing.T, r Renderer) {
	t.Helper()
	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	r.EndShadowPass()
	r.EndFrame()
}

func TestNewRendererRequiresCollaborators(t *testing.T) {
	assert.Panics(t, func() { NewRenderer(nil, &fakeWindow{width: 1, height: 1}) })
	assert.Panics(t, func() { NewRenderer(&fakeBackend{}, nil) })
}

func TestFrameIndexCycles(t *testing.T) {
	r, b := newTestRenderer()

	for i := 0; i < 3; i++ {
		runFrame(t, r)
	}

	require.Len(t, b.beginCalls, 3)
	assert.Equal(t, uint32(0), b.beginCalls[0].frameIndex)
	assert.Equal(t, uint32(1), b.beginCalls[1].frameIndex)
	assert.Equal(t, uint32(0), b.beginCalls[2].frameIndex)
}

func TestCurrentFrameIndexInsideFrame(t *testing.T) {
	r, _ := newTestRenderer()

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	assert.Equal(t, uint32(0), r.CurrentFrameIndex())
	r.EndShadowPass()
	r.EndFrame()

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	assert.Equal(t, uint32(1), r.CurrentFrameIndex())
	r.EndShadowPass()
	r.EndFrame()
}

func TestFrameScopedAccessorsPanicOutsideFrame(t *testing.T) {
	r, _ := newTestRenderer()

	assert.Panics(t, func() { r.CurrentFrameIndex() })
	assert.Panics(t, func() { r.CameraState() })
	assert.Panics(t, func() { r.CameraFrustum() })
	assert.Panics(t, func() { r.LightFrustum() })
	assert.Panics(t, func() { r.SetProjectionMode() })
	assert.Panics(t, func() { r.SetOrthoMode() })
	assert.Panics(t, func() { r.EndShadowPass() })
	assert.Panics(t, func() { r.EndFrame() })
}

func TestCameraStateHoldsFrameCopy(t *testing.T) {
	r, _ := newTestRenderer()

	camera := NewCameraState()
	camera.Position = mgl64.Vec3{1, 2, 3}
	require.NoError(t, r.BeginFrame(camera, 1))

	// Mutating the caller's value after BeginFrame does not affect the copy.
	camera.Position = mgl64.Vec3{9, 9, 9}
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, r.CameraState().Position)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, r.CameraState().Forward)

	r.EndShadowPass()
	r.EndFrame()
	assert.Panics(t, func() { r.CameraState() }, "the copy expires with the frame")
}

func TestFrameBracketMisuse(t *testing.T) {
	r, _ := newTestRenderer()

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	assert.Panics(t, func() { r.BeginFrame(NewCameraState(), 1) }, "BeginFrame inside a frame")

	r.EndShadowPass()
	assert.Panics(t, func() { r.EndShadowPass() }, "second EndShadowPass in one frame")

	r.EndFrame()
}

func TestEndFrameRequiresShadowPass(t *testing.T) {
	r, _ := newTestRenderer()

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	assert.Panics(t, func() { r.EndFrame() })
}

func TestBeginFrameValidatesWorldScale(t *testing.T) {
	r, _ := newTestRenderer()

	assert.Panics(t, func() { r.BeginFrame(NewCameraState(), 0) })
	assert.Panics(t, func() { r.BeginFrame(NewCameraState(), -1) })
}

func TestCloseInsideFramePanics(t *testing.T) {
	r, b := newTestRenderer()

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	assert.Panics(t, func() { r.Close() })

	r.EndShadowPass()
	r.EndFrame()
	r.Close()
	assert.True(t, b.closed)
}

func TestBeginFrameErrorLeavesFrameClosed(t *testing.T) {
	b := &fakeBackend{beginErr: errors.New("surface lost")}
	r := NewRenderer(b, &fakeWindow{width: 1920, height: 1080})

	err := r.BeginFrame(NewCameraState(), 1)
	require.Error(t, err)
	assert.Panics(t, func() { r.CurrentFrameIndex() }, "a failed BeginFrame does not open a frame")
}

func TestBeginFrameConstants(t *testing.T) {
	r, b := newTestRenderer()

	camera := NewCameraState()
	require.NoError(t, r.BeginFrame(camera, 1))

	call := b.beginCalls[0]
	wantView := common.LookForward(mgl32.Vec3{}, camera.Forward, camera.Up)
	wantProj := common.PerspectiveClip(camera.FOVY, 1920.0/1080.0, 0.01, 1000, 1)
	assert.Equal(t, wantView, call.vs.View)
	assert.Equal(t, wantProj, call.vs.Projection)

	lightDir := mgl32.Vec3{-1, -2, -1}.Normalize()
	wantLightPos := lightDir.Mul(-250)
	assert.Equal(t, wantLightPos.Vec4(1), call.ps.LightPos)
	assert.Equal(t, mgl32.Vec3{}.Vec4(1), call.ps.CameraPos)

	wantLightProj := common.OrthoClip(-100, 100, -100, 100, 1, 500, 1)
	assert.Equal(t, wantLightProj, call.vs.LightProjection)

	r.EndShadowPass()
	r.EndFrame()
}

func TestOrthoConstantsArePixelSpace(t *testing.T) {
	r, b := newTestRenderer()

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	call := b.beginCalls[0]

	assert.Equal(t, mgl32.Ident4(), call.vsOrtho.View)
	assert.Equal(t, common.OrthoClip(0, 1920, 1080, 0, 0, 1, 1), call.vsOrtho.Projection)

	r.EndShadowPass()
	r.EndFrame()
}

func TestWorldScaleScalesClipPlanesAndLight(t *testing.T) {
	r, b := newTestRenderer()

	camera := NewCameraState()
	require.NoError(t, r.BeginFrame(camera, 2))
	call := b.beginCalls[0]

	assert.Equal(t, common.PerspectiveClip(camera.FOVY, 1920.0/1080.0, 0.02, 2000, 1), call.vs.Projection)
	assert.Equal(t, common.OrthoClip(-200, 200, -200, 200, 2, 1000, 1), call.vs.LightProjection)

	lightDir := mgl32.Vec3{-1, -2, -1}.Normalize()
	assert.Equal(t, lightDir.Mul(-500).Vec4(1), call.ps.LightPos)

	r.EndShadowPass()
	r.EndFrame()
}

func TestBaseOffsetRebasesCamera(t *testing.T) {
	r, b := newTestRenderer()

	r.SetBaseOffset(mgl64.Vec3{100, 0, -50})
	assert.Equal(t, mgl64.Vec3{100, 0, -50}, r.BaseOffset())

	camera := NewCameraState()
	camera.Position = mgl64.Vec3{110, 5, -50}
	require.NoError(t, r.BeginFrame(camera, 1))

	call := b.beginCalls[0]
	assert.Equal(t, mgl32.Vec4{10, 5, 0, 1}, call.ps.CameraPos)

	r.EndShadowPass()
	r.EndFrame()
}

func TestResizeChangesAspectNextFrame(t *testing.T) {
	r, b := newTestRenderer()

	r.OnWindowResize(800, 600)
	require.Len(t, b.resizes, 1)
	assert.Equal(t, [2]int{800, 600}, b.resizes[0])

	camera := NewCameraState()
	require.NoError(t, r.BeginFrame(camera, 1))
	call := b.beginCalls[0]
	assert.Equal(t, common.PerspectiveClip(camera.FOVY, 800.0/600.0, 0.01, 1000, 1), call.vs.Projection)
	assert.Equal(t, common.OrthoClip(0, 800, 600, 0, 0, 1, 1), call.vsOrtho.Projection)

	r.EndShadowPass()
	r.EndFrame()
}

func TestResizeIgnoresMinimizedDimensions(t *testing.T) {
	r, b := newTestRenderer()

	r.OnWindowResize(0, 0)
	r.OnWindowResize(-100, 50)
	assert.Empty(t, b.resizes)
}

func TestPerspectiveYSignFlowsIntoProjection(t *testing.T) {
	b := &fakeBackend{ySign: -1}
	r := NewRenderer(b, &fakeWindow{width: 1920, height: 1080})

	camera := NewCameraState()
	require.NoError(t, r.BeginFrame(camera, 1))
	call := b.beginCalls[0]
	assert.Equal(t, common.PerspectiveClip(camera.FOVY, 1920.0/1080.0, 0.01, 1000, -1), call.vs.Projection)
	assert.Equal(t, common.OrthoClip(0, 1920, 1080, 0, 0, 1, -1), call.vsOrtho.Projection)

	r.EndShadowPass()
	r.EndFrame()
}

func TestCameraFrustumTracksView(t *testing.T) {
	r, _ := newTestRenderer()

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	f := r.CameraFrustum()
	assert.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, -10}), "point in front of the default camera")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 10}), "point behind the default camera")
	r.EndShadowPass()
	r.EndFrame()
}

func TestLightFrustumCoversOrigin(t *testing.T) {
	r, _ := newTestRenderer()

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	f := r.LightFrustum()
	assert.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, 0}), "origin sits inside the shadow volume")
	assert.True(t, f.ContainsPoint(mgl32.Vec3{50, 0, 0}))
	r.EndShadowPass()
	r.EndFrame()
}

func TestProjectionModeDelegation(t *testing.T) {
	r, b := newTestRenderer()

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	r.EndShadowPass()
	r.SetOrthoMode()
	r.SetProjectionMode()
	r.EndFrame()

	assert.Equal(t, 1, b.orthoSet)
	assert.Equal(t, 1, b.projectionSet)
}

func TestBuilderOptionValidation(t *testing.T) {
	assert.Panics(t, func() { newTestRenderer(WithLightDirection(mgl32.Vec3{})) })
	assert.Panics(t, func() { newTestRenderer(WithLightDistance(0)) })
	assert.Panics(t, func() { newTestRenderer(WithLightExtents(0, 1, 500)) })
	assert.Panics(t, func() { newTestRenderer(WithLightExtents(100, 0, 500)) })
	assert.Panics(t, func() { newTestRenderer(WithLightExtents(100, 500, 500)) })
}

func TestWithLightDirectionNormalizes(t *testing.T) {
	r, b := newTestRenderer(WithLightDirection(mgl32.Vec3{0, -10, 0}))

	require.NoError(t, r.BeginFrame(NewCameraState(), 1))
	call := b.beginCalls[0]
	assert.Equal(t, mgl32.Vec4{0, 250, 0, 1}, call.ps.LightPos, "distance applies to the normalized direction")
	r.EndShadowPass()
	r.EndFrame()
}

func TestWithFrameEndCallback(t *testing.T) {
	frames := 0
	r, _ := newTestRenderer(WithFrameEndCallback(func() { frames++ }))

	runFrame(t, r)
	runFrame(t, r)
	assert.Equal(t, 2, frames)
}
