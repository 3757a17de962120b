// Package renderer orchestrates frame rendering for the visualization
// harness: frame lifecycle and double buffering, camera and shadow-light
// constant derivation, high-precision world rebasing, and delegation of
// resource creation to a pluggable graphics backend.
package renderer

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lumen-viz/lumen/common"
	"github.com/lumen-viz/lumen/engine/window"
)

// Renderer drives the per-frame rendering flow. A frame is bracketed by
// BeginFrame and EndFrame with exactly one EndShadowPass between them; calling
// the frame-scoped accessors outside that bracket is a programming error and
// panics. All methods are render-thread only.
type Renderer interface {
	// BeginFrame starts a new frame: derives the view, projection and light
	// matrices from the camera state and world scale, uploads them to the
	// backend, and opens the shadow pass.
	//
	// Parameters:
	//   - camera: the camera state to render from
	//   - worldScale: scales the clip planes and light extents; must be > 0
	//
	// Returns:
	//   - error: an environment failure acquiring the frame's render target
	BeginFrame(camera CameraState, worldScale float32) error

	// EndShadowPass closes the shadow pass and opens the main pass. Called
	// exactly once per frame after shadow-casting geometry has been drawn.
	EndShadowPass()

	// EndFrame submits and presents the frame, then advances the frame index.
	EndFrame()

	// SetProjectionMode selects 3D perspective projection for subsequent
	// main-pass draws. Only valid inside a frame.
	SetProjectionMode()

	// SetOrthoMode selects pixel-space orthographic projection for subsequent
	// main-pass draws (text and overlays). Only valid inside a frame.
	SetOrthoMode()

	// OnWindowResize adapts the renderer to a new client-area size. The new
	// aspect ratio takes effect at the next BeginFrame.
	//
	// Parameters:
	//   - width, height: new dimensions in pixels
	OnWindowResize(width, height int)

	// CurrentFrameIndex returns the frame's double-buffer index in
	// [0, FrameCount). Only valid inside a frame.
	//
	// Returns:
	//   - uint32: the frame index
	CurrentFrameIndex() uint32

	// CameraState returns the copy of the camera state the frame was begun
	// with. Only valid inside a frame.
	//
	// Returns:
	//   - CameraState: the frame's camera state
	CameraState() CameraState

	// CameraFrustum returns the camera view frustum derived at BeginFrame,
	// in rebased render space. Only valid inside a frame.
	//
	// Returns:
	//   - common.Frustum: the camera frustum
	CameraFrustum() common.Frustum

	// LightFrustum returns the shadow light's frustum derived at BeginFrame,
	// in rebased render space. Only valid inside a frame.
	//
	// Returns:
	//   - common.Frustum: the light frustum
	LightFrustum() common.Frustum

	// BaseOffset returns the high-precision world offset subtracted from all
	// positions before rendering.
	//
	// Returns:
	//   - mgl64.Vec3: the current base offset
	BaseOffset() mgl64.Vec3

	// SetBaseOffset moves the rendering origin to offset. Takes effect at the
	// next BeginFrame; the offset is fixed for the duration of a frame.
	//
	// Parameters:
	//   - offset: the new base offset in world space
	SetBaseOffset(offset mgl64.Vec3)

	// PerspectiveYSign reports the active backend's clip-space Y convention.
	//
	// Returns:
	//   - float32: +1 or -1
	PerspectiveYSign() float32

	// ShadowMap returns the shadow depth texture for main-pass sampling.
	// The backend retains ownership; Release on the handle is a no-op.
	//
	// Returns:
	//   - Texture: the shadow map, owned by the backend
	ShadowMap() Texture

	// CreateTexture creates a texture from a decoded surface.
	//
	// Parameters:
	//   - surface: the decoded RGBA surface
	//
	// Returns:
	//   - Texture: a shared-ownership texture handle
	//   - error: an error if creation fails
	CreateTexture(surface *common.Surface) (Texture, error)

	// CreateVertexShader compiles a vertex shader from source.
	//
	// Parameters:
	//   - name: identifying name for diagnostics
	//   - source: backend shader source
	//
	// Returns:
	//   - VertexShader: a shared-ownership shader handle
	//   - error: an error if compilation fails
	CreateVertexShader(name, source string) (VertexShader, error)

	// CreatePixelShader compiles a pixel shader from source.
	//
	// Parameters:
	//   - name: identifying name for diagnostics
	//   - source: backend shader source
	//
	// Returns:
	//   - PixelShader: a shared-ownership shader handle
	//   - error: an error if compilation fails
	CreatePixelShader(name, source string) (PixelShader, error)

	// CreatePipelineState builds a pipeline state from a shader pair, an
	// input layout and enumerated draw options.
	//
	// Parameters:
	//   - vs: the vertex shader
	//   - input: the input-layout description
	//   - ps: the pixel shader (nil for shadow-only pipelines)
	//   - config: enumerated draw options
	//
	// Returns:
	//   - PipelineState: the pipeline state
	//   - error: an error if creation fails
	CreatePipelineState(vs VertexShader, input []VertexAttribute, ps PixelShader, config PipelineConfig) (PipelineState, error)

	// CreateRenderPrimitive creates an empty drawable primitive.
	//
	// Parameters:
	//   - topology: the primitive topology
	//
	// Returns:
	//   - RenderPrimitive: the primitive
	CreateRenderPrimitive(topology Topology) RenderPrimitive

	// CreateRenderInstances creates an empty instanced draw batch container.
	//
	// Returns:
	//   - RenderInstances: the batch container
	CreateRenderInstances() RenderInstances

	// Close releases the renderer and its backend. Must not be called inside
	// a frame.
	Close()
}

type harnessRenderer struct {
	backend Backend
	width   int
	height  int

	light lightSettings

	baseOffset mgl64.Vec3

	inFrame        bool
	shadowPassDone bool
	frameIndex     uint32

	// camera is the copy taken at BeginFrame, valid until EndFrame.
	camera CameraState

	cameraFrustum common.Frustum
	lightFrustum  common.Frustum

	onFrameEnd func()
}

var _ Renderer = &harnessRenderer{}

// NewRenderer creates a renderer driving the given backend, sized to the
// window's current client area. Construction never fails; resource and
// device errors surface from the frame and factory operations instead.
//
// Parameters:
//   - backend: the graphics backend to drive (must not be nil)
//   - win: the window the backend presents into (must not be nil)
//   - options: optional configuration
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(backend Backend, win window.Window, options ...BuilderOption) Renderer {
	if backend == nil {
		panic("renderer: backend is required")
	}
	if win == nil {
		panic("renderer: window is required")
	}
	r := &harnessRenderer{
		backend: backend,
		width:   win.Width(),
		height:  win.Height(),
		light:   defaultLightSettings(),
	}
	for _, opt := range options {
		opt(r)
	}
	log.Printf("renderer: initialized %s backend at %dx%d", backend.Name(), r.width, r.height)
	return r
}

func (r *harnessRenderer) BeginFrame(camera CameraState, worldScale float32) error {
	if r.inFrame {
		panic("renderer: BeginFrame called inside a frame")
	}
	if worldScale <= 0 {
		panic("renderer: worldScale must be positive")
	}

	ySign := r.backend.PerspectiveYSign()
	aspect := float32(r.width) / float32(r.height)

	eye := camera.RenderPosition(r.baseOffset)
	view := common.LookForward(eye, camera.Forward, camera.Up)
	proj := common.PerspectiveClip(camera.FOVY, aspect, 0.01*worldScale, 1000.0*worldScale, ySign)
	r.cameraFrustum = common.FrustumFromMatrix(proj.Mul4(view))

	lightPos := r.light.position(worldScale)
	lightView := common.LookForward(lightPos, r.light.direction, r.light.upHint())
	ext := r.light.halfExtent * worldScale
	lightProj := common.OrthoClip(-ext, ext, -ext, ext,
		r.light.near*worldScale, r.light.far*worldScale, ySign)
	r.lightFrustum = common.FrustumFromMatrix(lightProj.Mul4(lightView))

	vs := VertexShaderConstants{
		View:            view,
		Projection:      proj,
		LightView:       lightView,
		LightProjection: lightProj,
	}
	vsOrtho := VertexShaderConstants{
		View:            mgl32.Ident4(),
		Projection:      common.OrthoClip(0, float32(r.width), float32(r.height), 0, 0, 1, ySign),
		LightView:       mgl32.Ident4(),
		LightProjection: mgl32.Ident4(),
	}
	ps := PixelShaderConstants{
		CameraPos: eye.Vec4(1),
		LightPos:  lightPos.Vec4(1),
	}

	if err := r.backend.BeginFrame(r.frameIndex, &vs, &vsOrtho, &ps); err != nil {
		return err
	}
	r.camera = camera
	r.inFrame = true
	r.shadowPassDone = false
	return nil
}

func (r *harnessRenderer) EndShadowPass() {
	if !r.inFrame {
		panic("renderer: EndShadowPass called outside a frame")
	}
	if r.shadowPassDone {
		panic("renderer: EndShadowPass called twice in one frame")
	}
	r.backend.EndShadowPass()
	r.shadowPassDone = true
}

func (r *harnessRenderer) EndFrame() {
	if !r.inFrame {
		panic("renderer: EndFrame called outside a frame")
	}
	if !r.shadowPassDone {
		panic("renderer: EndFrame called before EndShadowPass")
	}
	r.backend.EndFrame()
	r.inFrame = false
	r.frameIndex = (r.frameIndex + 1) % FrameCount
	if r.onFrameEnd != nil {
		r.onFrameEnd()
	}
}

func (r *harnessRenderer) SetProjectionMode() {
	if !r.inFrame {
		panic("renderer: SetProjectionMode called outside a frame")
	}
	r.backend.SetProjectionMode()
}

func (r *harnessRenderer) SetOrthoMode() {
	if !r.inFrame {
		panic("renderer: SetOrthoMode called outside a frame")
	}
	r.backend.SetOrthoMode()
}

func (r *harnessRenderer) OnWindowResize(width, height int) {
	if width <= 0 || height <= 0 {
		// Minimized windows report a zero-sized client area; keep the last
		// valid size until the window is restored.
		return
	}
	r.width = width
	r.height = height
	r.backend.OnResize(width, height)
}

func (r *harnessRenderer) CurrentFrameIndex() uint32 {
	if !r.inFrame {
		panic("renderer: CurrentFrameIndex called outside a frame")
	}
	return r.frameIndex
}

func (r *harnessRenderer) CameraState() CameraState {
	if !r.inFrame {
		panic("renderer: CameraState called outside a frame")
	}
	return r.camera
}

func (r *harnessRenderer) CameraFrustum() common.Frustum {
	if !r.inFrame {
		panic("renderer: CameraFrustum called outside a frame")
	}
	return r.cameraFrustum
}

func (r *harnessRenderer) LightFrustum() common.Frustum {
	if !r.inFrame {
		panic("renderer: LightFrustum called outside a frame")
	}
	return r.lightFrustum
}

func (r *harnessRenderer) BaseOffset() mgl64.Vec3 {
	return r.baseOffset
}

func (r *harnessRenderer) SetBaseOffset(offset mgl64.Vec3) {
	r.baseOffset = offset
}

func (r *harnessRenderer) PerspectiveYSign() float32 {
	return r.backend.PerspectiveYSign()
}

func (r *harnessRenderer) ShadowMap() Texture {
	return r.backend.ShadowMap()
}

func (r *harnessRenderer) CreateTexture(surface *common.Surface) (Texture, error) {
	return r.backend.CreateTexture(surface)
}

func (r *harnessRenderer) CreateVertexShader(name, source string) (VertexShader, error) {
	return r.backend.CreateVertexShader(name, source)
}

func (r *harnessRenderer) CreatePixelShader(name, source string) (PixelShader, error) {
	return r.backend.CreatePixelShader(name, source)
}

func (r *harnessRenderer) CreatePipelineState(vs VertexShader, input []VertexAttribute, ps PixelShader, config PipelineConfig) (PipelineState, error) {
	return r.backend.CreatePipelineState(vs, input, ps, config)
}

func (r *harnessRenderer) CreateRenderPrimitive(topology Topology) RenderPrimitive {
	return r.backend.CreateRenderPrimitive(topology)
}

func (r *harnessRenderer) CreateRenderInstances() RenderInstances {
	return r.backend.CreateRenderInstances()
}

func (r *harnessRenderer) Close() {
	if r.inFrame {
		panic("renderer: Close called inside a frame")
	}
	r.backend.Close()
}
