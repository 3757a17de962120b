package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen-viz/lumen/common"
)

// BackendType identifies the concrete GPU backend implementation. Exactly one
// backend is selected at startup; backends are never mixed at runtime.
type BackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based backend.
	BackendTypeWGPU BackendType = iota
)

// DrawPass selects which render pass a pipeline state targets.
type DrawPass int

const (
	// DrawPassShadow renders depth-only geometry into the shadow map.
	DrawPassShadow DrawPass = iota

	// DrawPassNormal renders into the main color target.
	DrawPassNormal
)

// FillMode controls how primitives are rasterized.
type FillMode int

const (
	// FillModeSolid rasterizes filled primitives.
	FillModeSolid FillMode = iota

	// FillModeWireframe rasterizes primitive edges only.
	FillModeWireframe
)

// Topology is the primitive topology of a pipeline or render primitive.
type Topology int

const (
	// TopologyTriangleList draws independent triangles from each 3 vertices.
	TopologyTriangleList Topology = iota

	// TopologyLineList draws independent line segments from each 2 vertices.
	TopologyLineList
)

// DepthTest controls depth comparison for a pipeline.
type DepthTest int

const (
	// DepthTestOff disables depth comparison and depth writes.
	DepthTestOff DepthTest = iota

	// DepthTestOn enables less-than depth comparison with depth writes.
	DepthTestOn
)

// BlendMode controls how fragment output combines with the color target.
type BlendMode int

const (
	// BlendModeWrite overwrites the color target.
	BlendModeWrite BlendMode = iota

	// BlendModeAlphaBlend blends using standard source-alpha blending.
	BlendModeAlphaBlend
)

// CullMode controls which triangle winding is discarded.
type CullMode int

const (
	// CullModeBackFace discards back-facing triangles.
	CullModeBackFace CullMode = iota

	// CullModeFrontFace discards front-facing triangles (used by shadow
	// pipelines to reduce self-shadowing).
	CullModeFrontFace

	// CullModeOff disables culling.
	CullModeOff
)

// VertexAttribute declares one element of a pipeline's input layout. Per-vertex
// attributes fill buffer slot 0; instance attributes fill buffer slot 1 and
// step per instance.
type VertexAttribute int

const (
	// AttrPosition is a per-vertex float3 position.
	AttrPosition VertexAttribute = iota

	// AttrNormal is a per-vertex float3 normal.
	AttrNormal

	// AttrTexCoord is a per-vertex float2 texture coordinate.
	AttrTexCoord

	// AttrColor is a per-vertex RGBA8 color.
	AttrColor

	// AttrInstanceColor is a per-instance RGBA8 color.
	AttrInstanceColor

	// AttrInstanceTransform is a per-instance 4x4 model transform
	// (four float4 shader locations).
	AttrInstanceTransform

	// AttrInstanceInvTransform is a per-instance 4x4 inverse-transpose
	// transform for normals (four float4 shader locations).
	AttrInstanceInvTransform
)

// PipelineConfig bundles the enumerated draw options of a pipeline state.
// Every member belongs to a closed set; a combination a backend cannot express
// is a programming error and panics during CreatePipelineState.
type PipelineConfig struct {
	Pass      DrawPass
	Fill      FillMode
	Topology  Topology
	DepthTest DepthTest
	Blend     BlendMode
	Cull      CullMode
}

// VertexShaderConstants is the vertex-stage constant-buffer snapshot computed
// by the orchestrator every BeginFrame. Backends read it; they never mutate it.
type VertexShaderConstants struct {
	View            mgl32.Mat4
	Projection      mgl32.Mat4
	LightView       mgl32.Mat4
	LightProjection mgl32.Mat4
}

// PixelShaderConstants is the pixel-stage constant-buffer snapshot computed by
// the orchestrator every BeginFrame.
type PixelShaderConstants struct {
	CameraPos mgl32.Vec4
	LightPos  mgl32.Vec4
}

// Texture is a GPU texture handle with shared ownership: it may be cached and
// reused across frames by multiple holders. The factory retains no ownership
// after creation.
type Texture interface {
	// Width returns the texture width in texels.
	Width() int

	// Height returns the texture height in texels.
	Height() int

	// Bind makes the texture available to the pixel stage of subsequent draw
	// calls in the current pass.
	Bind()

	// Release frees the GPU resources. Call once, after all holders are done.
	Release()
}

// VertexShader is a compiled vertex-stage shader handle with shared ownership.
type VertexShader interface {
	// Name returns the shader's identifying name.
	Name() string
}

// PixelShader is a compiled pixel-stage shader handle with shared ownership.
type PixelShader interface {
	// Name returns the shader's identifying name.
	Name() string
}

// PipelineState is an immutable, exclusively-owned bundle describing how
// primitives of one shader/topology/blend/depth configuration are drawn.
// Created per use site; the creator is the single owner.
type PipelineState interface {
	// Activate makes this pipeline current for subsequent draw calls. Must be
	// called inside the pass matching the pipeline's DrawPass.
	Activate()

	// Release frees the GPU resources.
	Release()
}

// RenderPrimitive is an exclusively-owned drawable primitive. It is created
// empty; the caller supplies vertex (and optionally index) data before drawing.
type RenderPrimitive interface {
	// SetVertexData uploads raw vertex data. The byte layout must match the
	// input layout of every pipeline the primitive is drawn with.
	//
	// Parameters:
	//   - data: packed vertex bytes
	//   - vertexCount: number of vertices in data
	SetVertexData(data []byte, vertexCount int)

	// SetIndexData uploads 32-bit indices. Optional; primitives without
	// indices draw their vertices in order.
	//
	// Parameters:
	//   - indices: the index list
	SetIndexData(indices []uint32)

	// Draw encodes a single non-instanced draw of this primitive into the
	// current pass.
	Draw()

	// Release frees the GPU resources.
	Release()
}

// RenderInstances is an exclusively-owned container for instanced draws: a
// buffer of per-instance attributes plus a draw operation batching one
// primitive over a range of instances.
type RenderInstances interface {
	// SetInstanceData uploads raw per-instance data. The byte layout must
	// match the instance attributes of the active pipeline.
	//
	// Parameters:
	//   - data: packed instance bytes
	//   - instanceCount: number of instances in data
	SetInstanceData(data []byte, instanceCount int)

	// Draw encodes an instanced draw of prim over instances
	// [startInstance, startInstance+instanceCount).
	//
	// Parameters:
	//   - prim: the primitive to instance
	//   - startInstance: first instance index
	//   - instanceCount: number of instances to draw
	Draw(prim RenderPrimitive, startInstance, instanceCount int)

	// Release frees the GPU resources.
	Release()
}

// Backend is the contract a concrete graphics backend fulfills for the frame
// orchestrator: resource creation, pass transitions, constant-buffer upload
// and presentation. All methods are render-thread only; the orchestrator calls
// them in strict frame order.
type Backend interface {
	// Name identifies the backend implementation.
	//
	// Returns:
	//   - string: the backend name (e.g. "wgpu")
	Name() string

	// PerspectiveYSign reports the clip-space Y convention of the backend:
	// +1 for DirectX-style, -1 for Vulkan-style. The orchestrator feeds it
	// into projection derivation.
	//
	// Returns:
	//   - float32: +1 or -1
	PerspectiveYSign() float32

	// BeginFrame uploads the frame's constant-buffer snapshots into the
	// double-buffered GPU copies selected by frameIndex, acquires the
	// presentation target, and opens the shadow pass. Blocks if the GPU has
	// not finished consuming the buffers of the previous use of frameIndex.
	//
	// Parameters:
	//   - frameIndex: double-buffer selector in {0, FrameCount-1}
	//   - vs: vertex-stage constants (3D projection mode)
	//   - vsOrtho: vertex-stage constants (orthographic overlay mode)
	//   - ps: pixel-stage constants
	//
	// Returns:
	//   - error: an environment failure acquiring the presentation target
	BeginFrame(frameIndex uint32, vs, vsOrtho *VertexShaderConstants, ps *PixelShaderConstants) error

	// EndShadowPass closes the shadow pass and opens the main pass. Called
	// exactly once per frame, after shadow-casting geometry has been drawn.
	EndShadowPass()

	// EndFrame closes the main pass, submits all recorded GPU work, and
	// presents the frame.
	EndFrame()

	// OnResize rebuilds window-size-dependent resources (swap chain, depth
	// target) for the new client-area size.
	//
	// Parameters:
	//   - width, height: new dimensions in pixels
	OnResize(width, height int)

	// SetProjectionMode selects the 3D perspective constants for subsequent
	// draw calls in the main pass.
	SetProjectionMode()

	// SetOrthoMode selects the pixel-space orthographic constants for
	// subsequent draw calls in the main pass.
	SetOrthoMode()

	// ShadowMap returns the shadow map texture so main-pass draw code can
	// sample it. The backend retains ownership; Release on the returned
	// handle is a no-op and the texture lives until Close.
	//
	// Returns:
	//   - Texture: the shadow depth texture
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

	// CreateVertexShader compiles a vertex shader from source. Compilation
	// failure is fatal to startup; callers do not recover from it.
	//
	// Parameters:
	//   - name: identifying name for diagnostics
	//   - source: backend shader source (WGSL for the WebGPU backend)
	//
	// Returns:
	//   - VertexShader: a shared-ownership shader handle
	//   - error: an error if compilation fails
	CreateVertexShader(name, source string) (VertexShader, error)

	// CreatePixelShader compiles a pixel shader from source. Compilation
	// failure is fatal to startup; callers do not recover from it.
	//
	// Parameters:
	//   - name: identifying name for diagnostics
	//   - source: backend shader source (WGSL for the WebGPU backend)
	//
	// Returns:
	//   - PixelShader: a shared-ownership shader handle
	//   - error: an error if compilation fails
	CreatePixelShader(name, source string) (PixelShader, error)

	// CreatePipelineState builds an exclusively-owned pipeline state from a
	// compatible shader pair, an input layout, and enumerated draw options.
	// Shadow-pass pipelines may pass a nil pixel shader. An enum member the
	// backend cannot map is a programming error and panics.
	//
	// Parameters:
	//   - vs: the vertex shader (must not be nil)
	//   - input: the input-layout description
	//   - ps: the pixel shader (nil for depth-only shadow pipelines)
	//   - config: enumerated draw options
	//
	// Returns:
	//   - PipelineState: the pipeline state
	//   - error: an error if GPU pipeline creation fails
	CreatePipelineState(vs VertexShader, input []VertexAttribute, ps PixelShader, config PipelineConfig) (PipelineState, error)

	// CreateRenderPrimitive creates an empty, exclusively-owned drawable
	// primitive with the given topology.
	//
	// Parameters:
	//   - topology: the primitive topology
	//
	// Returns:
	//   - RenderPrimitive: the primitive
	CreateRenderPrimitive(topology Topology) RenderPrimitive

	// CreateRenderInstances creates an empty, exclusively-owned instanced
	// draw batch container.
	//
	// Returns:
	//   - RenderInstances: the batch container
	CreateRenderInstances() RenderInstances

	// Close releases device-level resources. Called at orchestrator teardown.
	Close()
}
