package renderer

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/lumen-viz/lumen/common"
	"github.com/lumen-viz/lumen/engine/window"
)

const (
	vsConstantsSize = uint64(unsafe.Sizeof(VertexShaderConstants{}))
	psConstantsSize = uint64(unsafe.Sizeof(PixelShaderConstants{}))
)

// NewBackend creates a graphics backend of the requested type, presenting
// into the given window. Device acquisition failure is fatal.
//
// Parameters:
//   - backendType: the backend implementation to create
//   - win: the window the backend presents into
//
// Returns:
//   - Backend: the backend
func NewBackend(backendType BackendType, win window.Window) Backend {
	switch backendType {
	case BackendTypeWGPU:
		return newWGPUBackend(win)
	default:
		panic(fmt.Sprintf("renderer: unknown backend type %d", backendType))
	}
}

type wgpuBackend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat    wgpu.TextureFormat
	depthTextureView *wgpu.TextureView
	depthTexture     *wgpu.Texture

	shadowMap *wgpuTexture

	// Per-frame uniform buffer rings. BeginFrame writes into the slot named
	// by its frame index so a buffer is never overwritten while the GPU may
	// still be reading it.
	vsBuffers      [FrameCount]*wgpu.Buffer
	vsOrthoBuffers [FrameCount]*wgpu.Buffer
	psBuffers      [FrameCount]*wgpu.Buffer

	shadowGroupLayout  *wgpu.BindGroupLayout
	frameGroupLayout   *wgpu.BindGroupLayout
	textureGroupLayout *wgpu.BindGroupLayout

	shadowBindGroups [FrameCount]*wgpu.BindGroup
	mainBindGroups   [FrameCount]*wgpu.BindGroup
	orthoBindGroups  [FrameCount]*wgpu.BindGroup

	// A 1x1 white texture bound as the texture group at main-pass start so
	// untextured pipelines pass bind group validation.
	whiteTexture *wgpuTexture

	frameEncoder *wgpu.CommandEncoder
	shadowPass   *wgpu.RenderPassEncoder
	mainPass     *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameIndex   uint32
	orthoMode    bool
}

var _ Backend = &wgpuBackend{}

func newWGPUBackend(win window.Window) Backend {
	runtime.LockOSThread()

	b := &wgpuBackend{
		instance: wgpu.CreateInstance(nil),
	}
	b.surface = b.instance.CreateSurface(win.SurfaceDescriptor())

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Harness Device",
	})
	if err != nil {
		panic(err)
	}
	b.device = device
	b.queue = device.GetQueue()

	b.configureSurface(win.Width(), win.Height())
	b.initShadowMap()
	b.initBindGroupLayouts()
	b.initFrameResources()
	b.initWhiteTexture()

	return b
}

func (b *wgpuBackend) Name() string {
	return "wgpu"
}

func (b *wgpuBackend) PerspectiveYSign() float32 {
	// WebGPU clip space has Y up, matching the DirectX convention.
	return 1
}

// configureSurface (re)configures the swapchain and the main depth texture
// for the given client-area size.
func (b *wgpuBackend) configureSurface(width, height int) {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Main Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	view, err := depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView = view
}

// initShadowMap creates the shadow depth texture plus the comparison sampler
// used to PCF-sample it in the main pass.
func (b *wgpuBackend) initShadowMap() {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Shadow Depth Texture",
		Size: wgpu.Extent3D{
			Width:              ShadowMapSize,
			Height:             ShadowMapSize,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		panic(err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		panic(err)
	}
	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	})
	if err != nil {
		panic(err)
	}
	b.shadowMap = &wgpuTexture{
		backend: b,
		texture: tex,
		view:    view,
		sampler: sampler,
		width:   ShadowMapSize,
		height:  ShadowMapSize,
	}
}

func (b *wgpuBackend) initBindGroupLayouts() {
	shadowLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Shadow Frame Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: vsConstantsSize,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	b.shadowGroupLayout = shadowLayout

	frameLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Main Frame Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: vsConstantsSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: psConstantsSize,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeDepth,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeComparison,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	b.frameGroupLayout = frameLayout

	textureLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Material Texture Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	b.textureGroupLayout = textureLayout
}

// initFrameResources creates the per-frame uniform buffer rings and the bind
// groups referencing them.
func (b *wgpuBackend) initFrameResources() {
	for i := range FrameCount {
		b.vsBuffers[i] = b.createUniformBuffer(fmt.Sprintf("VS Constants %d", i), vsConstantsSize)
		b.vsOrthoBuffers[i] = b.createUniformBuffer(fmt.Sprintf("VS Ortho Constants %d", i), vsConstantsSize)
		b.psBuffers[i] = b.createUniformBuffer(fmt.Sprintf("PS Constants %d", i), psConstantsSize)

		shadowGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("Shadow Frame Bind Group %d", i),
			Layout: b.shadowGroupLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: b.vsBuffers[i], Offset: 0, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			panic(err)
		}
		b.shadowBindGroups[i] = shadowGroup

		b.mainBindGroups[i] = b.createFrameBindGroup(fmt.Sprintf("Main Frame Bind Group %d", i), b.vsBuffers[i], b.psBuffers[i])
		b.orthoBindGroups[i] = b.createFrameBindGroup(fmt.Sprintf("Ortho Frame Bind Group %d", i), b.vsOrthoBuffers[i], b.psBuffers[i])
	}
}

func (b *wgpuBackend) createUniformBuffer(label string, size uint64) *wgpu.Buffer {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	return buf
}

func (b *wgpuBackend) createFrameBindGroup(label string, vsBuffer, psBuffer *wgpu.Buffer) *wgpu.BindGroup {
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: b.frameGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: vsBuffer, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: psBuffer, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 2, TextureView: b.shadowMap.view},
			{Binding: 3, Sampler: b.shadowMap.sampler},
		},
	})
	if err != nil {
		panic(err)
	}
	return group
}

func (b *wgpuBackend) initWhiteTexture() {
	tex, err := b.CreateTexture(common.NewCheckerSurface(1, 1, common.ColorWhite, common.ColorWhite))
	if err != nil {
		panic(err)
	}
	b.whiteTexture = tex.(*wgpuTexture)
}

func (b *wgpuBackend) BeginFrame(frameIndex uint32, vs, vsOrtho *VertexShaderConstants, ps *PixelShaderConstants) error {
	b.queue.WriteBuffer(b.vsBuffers[frameIndex], 0, common.StructToBytes(vs))
	b.queue.WriteBuffer(b.vsOrthoBuffers[frameIndex], 0, common.StructToBytes(vsOrtho))
	b.queue.WriteBuffer(b.psBuffers[frameIndex], 0, common.StructToBytes(ps))

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire swapchain texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("failed to create swapchain view: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("failed to create command encoder: %w", err)
	}

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameIndex = frameIndex
	b.orthoMode = false

	b.shadowPass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		// Depth-only pass, no color attachments.
		ColorAttachments: nil,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.shadowMap.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	b.shadowPass.SetBindGroup(0, b.shadowBindGroups[frameIndex], nil)

	return nil
}

func (b *wgpuBackend) EndShadowPass() {
	b.shadowPass.End()
	b.shadowPass.Release()
	b.shadowPass = nil

	b.mainPass = b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    b.frameView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: 0.1, G: 0.1, B: 0.1, A: 1.0,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	// A mode switch recorded during the shadow pass takes effect here.
	b.mainPass.SetBindGroup(0, b.activeFrameBindGroup(), nil)
	b.mainPass.SetBindGroup(1, b.whiteTexture.bindGroup, nil)
}

func (b *wgpuBackend) EndFrame() {
	b.mainPass.End()
	b.mainPass.Release()
	b.mainPass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err == nil {
		b.queue.Submit(commandBuffer)
		commandBuffer.Release()
		b.surface.Present()
	}

	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.frameView.Release()
	b.frameView = nil
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuBackend) OnResize(width, height int) {
	b.configureSurface(width, height)
}

func (b *wgpuBackend) SetProjectionMode() {
	b.orthoMode = false
	if b.mainPass != nil {
		b.mainPass.SetBindGroup(0, b.activeFrameBindGroup(), nil)
	}
}

func (b *wgpuBackend) SetOrthoMode() {
	b.orthoMode = true
	if b.mainPass != nil {
		b.mainPass.SetBindGroup(0, b.activeFrameBindGroup(), nil)
	}
}

// activeFrameBindGroup returns the frame bind group matching the selected
// projection mode. Mode switches made before the main pass opens are applied
// when EndShadowPass binds it.
func (b *wgpuBackend) activeFrameBindGroup() *wgpu.BindGroup {
	if b.orthoMode {
		return b.orthoBindGroups[b.frameIndex]
	}
	return b.mainBindGroups[b.frameIndex]
}

func (b *wgpuBackend) ShadowMap() Texture {
	return backendOwnedTexture{b.shadowMap}
}

// currentPass returns the render pass that draw calls currently encode into.
func (b *wgpuBackend) currentPass() *wgpu.RenderPassEncoder {
	if b.shadowPass != nil {
		return b.shadowPass
	}
	if b.mainPass == nil {
		panic("wgpu: draw call outside a render pass")
	}
	return b.mainPass
}

func (b *wgpuBackend) CreateTexture(surface *common.Surface) (Texture, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Material Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(surface.Width),
			Height:             uint32(surface.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture: %w", err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		surface.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(surface.Width) * 4,
			RowsPerImage: uint32(surface.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(surface.Width),
			Height:             uint32(surface.Height),
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create texture view: %w", err)
	}
	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Material Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Material Bind Group",
		Layout: b.textureGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: sampler},
		},
	})
	if err != nil {
		sampler.Release()
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("failed to create texture bind group: %w", err)
	}

	return &wgpuTexture{
		backend:   b,
		texture:   tex,
		view:      view,
		sampler:   sampler,
		bindGroup: bindGroup,
		width:     surface.Width,
		height:    surface.Height,
	}, nil
}

func (b *wgpuBackend) CreateVertexShader(name, source string) (VertexShader, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile vertex shader %q: %w", name, err)
	}
	return &wgpuShader{name: name, module: module}, nil
}

func (b *wgpuBackend) CreatePixelShader(name, source string) (PixelShader, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile pixel shader %q: %w", name, err)
	}
	return &wgpuShader{name: name, module: module}, nil
}

func (b *wgpuBackend) CreatePipelineState(vs VertexShader, input []VertexAttribute, ps PixelShader, config PipelineConfig) (PipelineState, error) {
	if vs == nil {
		panic("wgpu: pipeline requires a vertex shader")
	}
	vsModule := vs.(*wgpuShader).module

	var layouts []*wgpu.BindGroupLayout
	if config.Pass == DrawPassShadow {
		layouts = []*wgpu.BindGroupLayout{b.shadowGroupLayout}
	} else {
		layouts = []*wgpu.BindGroupLayout{b.frameGroupLayout, b.textureGroupLayout}
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            vs.Name() + " Layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	var fragment *wgpu.FragmentState
	if config.Pass == DrawPassNormal {
		if ps == nil {
			panic("wgpu: main-pass pipeline requires a pixel shader")
		}
		target := wgpu.ColorTargetState{
			Format:    b.surfaceFormat,
			WriteMask: wgpu.ColorWriteMaskAll,
		}
		if config.Blend == BlendModeAlphaBlend {
			target.Blend = &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorSrcAlpha,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorOne,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
			}
		}
		fragment = &wgpu.FragmentState{
			Module:     ps.(*wgpuShader).module,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		}
	}

	// WebGPU has no polygon fill mode, so wireframe pipelines rasterize
	// line lists and expect edge geometry from the caller.
	topology := topologyFor(config.Topology)
	if config.Fill == FillModeWireframe {
		topology = wgpu.PrimitiveTopologyLineList
	}

	depthFormat := wgpu.TextureFormatDepth24Plus
	var depthBias int32
	var depthBiasSlopeScale float32
	if config.Pass == DrawPassShadow {
		depthFormat = wgpu.TextureFormatDepth32Float
		depthBias = 2
		depthBiasSlopeScale = 2.0
	}
	depthCompare := wgpu.CompareFunctionLess
	depthWrite := true
	if config.DepthTest == DepthTestOff {
		depthCompare = wgpu.CompareFunctionAlways
		depthWrite = false
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  vs.Name() + " Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vsModule,
			EntryPoint: "vs_main",
			Buffers:    buildVertexLayouts(input),
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullModeFor(config.Cull),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              depthFormat,
			DepthWriteEnabled:   depthWrite,
			DepthCompare:        depthCompare,
			DepthBias:           depthBias,
			DepthBiasSlopeScale: depthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		pipelineLayout.Release()
		return nil, fmt.Errorf("failed to create render pipeline: %w", err)
	}
	pipelineLayout.Release()

	return &wgpuPipelineState{backend: b, pipeline: created, pass: config.Pass}, nil
}

func (b *wgpuBackend) CreateRenderPrimitive(topology Topology) RenderPrimitive {
	return &wgpuRenderPrimitive{backend: b, topology: topology}
}

func (b *wgpuBackend) CreateRenderInstances() RenderInstances {
	return &wgpuRenderInstances{backend: b}
}

func (b *wgpuBackend) Close() {
	b.whiteTexture.Release()
	for i := range FrameCount {
		b.shadowBindGroups[i].Release()
		b.mainBindGroups[i].Release()
		b.orthoBindGroups[i].Release()
		b.vsBuffers[i].Release()
		b.vsOrthoBuffers[i].Release()
		b.psBuffers[i].Release()
	}
	b.textureGroupLayout.Release()
	b.frameGroupLayout.Release()
	b.shadowGroupLayout.Release()
	b.shadowMap.Release()
	b.depthTextureView.Release()
	b.depthTexture.Release()
	b.device.Release()
	b.surface.Release()
	b.adapter.Release()
	b.instance.Release()
}

func topologyFor(t Topology) wgpu.PrimitiveTopology {
	switch t {
	case TopologyTriangleList:
		return wgpu.PrimitiveTopologyTriangleList
	case TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	default:
		panic(fmt.Sprintf("wgpu: unknown topology %d", t))
	}
}

func cullModeFor(c CullMode) wgpu.CullMode {
	switch c {
	case CullModeBackFace:
		return wgpu.CullModeBack
	case CullModeFrontFace:
		return wgpu.CullModeFront
	case CullModeOff:
		return wgpu.CullModeNone
	default:
		panic(fmt.Sprintf("wgpu: unknown cull mode %d", c))
	}
}

// buildVertexLayouts converts the abstract input layout into wgpu vertex
// buffer layouts. Per-vertex attributes pack into buffer slot 0; per-instance
// attributes pack into buffer slot 1. Shader locations are assigned in
// declaration order, with matrix attributes spanning four locations.
func buildVertexLayouts(input []VertexAttribute) []wgpu.VertexBufferLayout {
	var vertexAttrs, instanceAttrs []wgpu.VertexAttribute
	var vertexStride, instanceStride uint64
	var location uint32

	for _, attr := range input {
		switch attr {
		case AttrPosition, AttrNormal:
			vertexAttrs = append(vertexAttrs, wgpu.VertexAttribute{
				ShaderLocation: location,
				Offset:         vertexStride,
				Format:         wgpu.VertexFormatFloat32x3,
			})
			vertexStride += 12
			location++
		case AttrTexCoord:
			vertexAttrs = append(vertexAttrs, wgpu.VertexAttribute{
				ShaderLocation: location,
				Offset:         vertexStride,
				Format:         wgpu.VertexFormatFloat32x2,
			})
			vertexStride += 8
			location++
		case AttrColor:
			vertexAttrs = append(vertexAttrs, wgpu.VertexAttribute{
				ShaderLocation: location,
				Offset:         vertexStride,
				Format:         wgpu.VertexFormatUnorm8x4,
			})
			vertexStride += 4
			location++
		case AttrInstanceColor:
			instanceAttrs = append(instanceAttrs, wgpu.VertexAttribute{
				ShaderLocation: location,
				Offset:         instanceStride,
				Format:         wgpu.VertexFormatUnorm8x4,
			})
			instanceStride += 4
			location++
		case AttrInstanceTransform, AttrInstanceInvTransform:
			for range 4 {
				instanceAttrs = append(instanceAttrs, wgpu.VertexAttribute{
					ShaderLocation: location,
					Offset:         instanceStride,
					Format:         wgpu.VertexFormatFloat32x4,
				})
				instanceStride += 16
				location++
			}
		default:
			panic(fmt.Sprintf("wgpu: unknown vertex attribute %d", attr))
		}
	}

	layouts := []wgpu.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  vertexAttrs,
		},
	}
	if len(instanceAttrs) > 0 {
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: instanceStride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes:  instanceAttrs,
		})
	}
	return layouts
}

type wgpuTexture struct {
	backend   *wgpuBackend
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	sampler   *wgpu.Sampler
	bindGroup *wgpu.BindGroup
	width     int
	height    int
}

var _ Texture = &wgpuTexture{}

func (t *wgpuTexture) Width() int {
	return t.width
}

func (t *wgpuTexture) Height() int {
	return t.height
}

func (t *wgpuTexture) Bind() {
	// Textures sample in the main pass only; shadow pipelines carry no
	// texture group.
	if t.backend.mainPass == nil || t.bindGroup == nil {
		return
	}
	t.backend.mainPass.SetBindGroup(1, t.bindGroup, nil)
}

func (t *wgpuTexture) Release() {
	if t.bindGroup != nil {
		t.bindGroup.Release()
	}
	if t.sampler != nil {
		t.sampler.Release()
	}
	t.view.Release()
	t.texture.Release()
}

// backendOwnedTexture hands out a texture the backend keeps ownership of.
// Release is a no-op so a holder cannot free a live backend resource; the
// backend frees the underlying texture in Close.
type backendOwnedTexture struct {
	*wgpuTexture
}

var _ Texture = backendOwnedTexture{}

func (backendOwnedTexture) Release() {}

type wgpuShader struct {
	name   string
	module *wgpu.ShaderModule
}

var (
	_ VertexShader = &wgpuShader{}
	_ PixelShader  = &wgpuShader{}
)

func (s *wgpuShader) Name() string {
	return s.name
}

type wgpuPipelineState struct {
	backend  *wgpuBackend
	pipeline *wgpu.RenderPipeline
	pass     DrawPass
}

var _ PipelineState = &wgpuPipelineState{}

func (p *wgpuPipelineState) Activate() {
	pass := p.backend.currentPass()
	pass.SetPipeline(p.pipeline)
}

func (p *wgpuPipelineState) Release() {
	p.pipeline.Release()
}

type wgpuRenderPrimitive struct {
	backend  *wgpuBackend
	topology Topology

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	vertexCount  int
	indexCount   int
}

var _ RenderPrimitive = &wgpuRenderPrimitive{}

func (p *wgpuRenderPrimitive) SetVertexData(data []byte, vertexCount int) {
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	p.vertexCount = vertexCount
	if len(data) == 0 {
		return
	}
	buf, err := p.backend.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Primitive Vertex Buffer",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	p.backend.queue.WriteBuffer(buf, 0, data)
	p.vertexBuffer = buf
}

func (p *wgpuRenderPrimitive) SetIndexData(indices []uint32) {
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = len(indices)
	if len(indices) == 0 {
		return
	}
	buf, err := p.backend.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Primitive Index Buffer",
		Size:  uint64(len(indices) * 4),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	p.backend.queue.WriteBuffer(buf, 0, common.SliceToBytes(indices))
	p.indexBuffer = buf
}

func (p *wgpuRenderPrimitive) Draw() {
	if p.vertexBuffer == nil {
		return
	}
	pass := p.backend.currentPass()
	pass.SetVertexBuffer(0, p.vertexBuffer, 0, wgpu.WholeSize)
	if p.indexBuffer != nil {
		pass.SetIndexBuffer(p.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(p.indexCount), 1, 0, 0, 0)
	} else {
		pass.Draw(uint32(p.vertexCount), 1, 0, 0)
	}
}

func (p *wgpuRenderPrimitive) Release() {
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}

type wgpuRenderInstances struct {
	backend *wgpuBackend

	buffer        *wgpu.Buffer
	instanceCount int
}

var _ RenderInstances = &wgpuRenderInstances{}

func (r *wgpuRenderInstances) SetInstanceData(data []byte, instanceCount int) {
	if r.buffer != nil {
		r.buffer.Release()
		r.buffer = nil
	}
	r.instanceCount = instanceCount
	if len(data) == 0 {
		return
	}
	buf, err := r.backend.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Instance Buffer",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	r.backend.queue.WriteBuffer(buf, 0, data)
	r.buffer = buf
}

func (r *wgpuRenderInstances) Draw(prim RenderPrimitive, startInstance, instanceCount int) {
	if r.buffer == nil || instanceCount <= 0 {
		return
	}
	p := prim.(*wgpuRenderPrimitive)
	if p.vertexBuffer == nil {
		return
	}
	pass := r.backend.currentPass()
	pass.SetVertexBuffer(0, p.vertexBuffer, 0, wgpu.WholeSize)
	pass.SetVertexBuffer(1, r.buffer, 0, wgpu.WholeSize)
	if p.indexBuffer != nil {
		pass.SetIndexBuffer(p.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(p.indexCount), uint32(instanceCount), 0, 0, uint32(startInstance))
	} else {
		pass.Draw(uint32(p.vertexCount), uint32(instanceCount), 0, uint32(startInstance))
	}
}

func (r *wgpuRenderInstances) Release() {
	if r.buffer != nil {
		r.buffer.Release()
		r.buffer = nil
	}
}
