// Package engine ties the harness together: it owns the window, the frame
// orchestrator, the drawing layer, the texture loader and the profiler, and
// runs the single-threaded frame loop that drives them.
package engine

import (
	"log"
	"time"

	"github.com/lumen-viz/lumen/engine/debugdraw"
	"github.com/lumen-viz/lumen/engine/loader"
	"github.com/lumen-viz/lumen/engine/profiler"
	"github.com/lumen-viz/lumen/engine/renderer"
	"github.com/lumen-viz/lumen/engine/window"
)

// UpdateFunc runs once per frame before rendering. It receives the frame
// delta time and the camera state to mutate; the harness renders from
// whatever state the function leaves behind.
type UpdateFunc func(deltaTime float32, camera *renderer.CameraState)

// harness implements the Harness interface. All rendering happens on the
// goroutine that calls Run, which is locked to its OS thread by the backend.
type harness struct {
	window   window.Window
	renderer renderer.Renderer
	debug    debugdraw.DebugRenderer
	loader   loader.Loader

	profiler         *profiler.Profiler
	profilingEnabled bool

	camera     renderer.CameraState
	worldScale float32

	updateCallback UpdateFunc

	frameLimit time.Duration // minimum frame duration; 0 = uncapped

	running bool
}

// Harness is the top-level entry point of the visualization loop.
type Harness interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the frame orchestrator.
	//
	// Returns:
	//   - renderer.Renderer: the orchestrator
	Renderer() renderer.Renderer

	// DebugRenderer returns the batched drawing layer.
	//
	// Returns:
	//   - debugdraw.DebugRenderer: the drawing layer
	DebugRenderer() debugdraw.DebugRenderer

	// Loader returns the asynchronous texture loader.
	//
	// Returns:
	//   - loader.Loader: the loader
	Loader() loader.Loader

	// SetUpdateCallback registers the per-frame update function. Use it to
	// move the camera and queue drawing requests.
	//
	// Parameters:
	//   - callback: the update function
	SetUpdateCallback(callback UpdateFunc)

	// SetWorldScale changes the world scale applied to clip planes and light
	// extents from the next frame on.
	//
	// Parameters:
	//   - worldScale: the new scale; must be > 0
	SetWorldScale(worldScale float32)

	// EnableProfiler enables frame statistics output to the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics output.
	DisableProfiler()

	// Run drives the frame loop until the window closes or Quit is called.
	// Blocks; call from the main goroutine.
	//
	// Returns:
	//   - error: an environment failure that stopped the loop
	Run() error

	// Quit stops the frame loop after the current frame. Safe to call from
	// the update callback.
	Quit()

	// Close releases all harness-owned resources. Call after Run returns.
	Close()
}

var _ Harness = &harness{}

// NewHarness creates the window, backend, orchestrator, drawing layer and
// loader, wired together and ready to Run. Construction failures are fatal:
// a harness that cannot build its GPU resources cannot run.
//
// Parameters:
//   - options: functional options for harness configuration
//
// Returns:
//   - Harness: the newly created harness
func NewHarness(options ...HarnessBuilderOption) Harness {
	h := &harness{
		profiler:   profiler.NewProfiler(),
		camera:     renderer.NewCameraState(),
		worldScale: 1,
	}

	cfg := &harnessConfig{
		backendType: renderer.BackendTypeWGPU,
	}
	for _, opt := range options {
		opt(h, cfg)
	}

	h.window = window.NewWindow(cfg.windowOptions...)
	backend := renderer.NewBackend(cfg.backendType, h.window)
	h.renderer = renderer.NewRenderer(backend, h.window, cfg.rendererOptions...)
	h.debug = debugdraw.NewDebugRenderer(h.renderer)
	h.loader = loader.NewLoader(h.renderer, cfg.loaderOptions...)

	h.window.SetResizeCallback(func(width, height int) {
		h.renderer.OnWindowResize(width, height)
	})

	return h
}

func (h *harness) Window() window.Window {
	return h.window
}

func (h *harness) Renderer() renderer.Renderer {
	return h.renderer
}

func (h *harness) DebugRenderer() debugdraw.DebugRenderer {
	return h.debug
}

func (h *harness) Loader() loader.Loader {
	return h.loader
}

func (h *harness) SetUpdateCallback(callback UpdateFunc) {
	h.updateCallback = callback
}

func (h *harness) SetWorldScale(worldScale float32) {
	if worldScale <= 0 {
		panic("engine: world scale must be positive")
	}
	h.worldScale = worldScale
}

func (h *harness) EnableProfiler() {
	h.profilingEnabled = true
}

func (h *harness) DisableProfiler() {
	h.profilingEnabled = false
}

func (h *harness) Run() error {
	h.running = true
	lastFrame := time.Now()

	for h.running && h.window.Poll() {
		frameStart := time.Now()
		dt := float32(frameStart.Sub(lastFrame).Seconds())
		lastFrame = frameStart

		if err := h.loader.Drain(); err != nil {
			return err
		}

		if h.updateCallback != nil {
			h.updateCallback(dt, &h.camera)
		}

		if err := h.renderer.BeginFrame(h.camera, h.worldScale); err != nil {
			// Swapchain acquisition can fail transiently around resizes;
			// drop this frame's queued geometry and try again.
			log.Printf("engine: skipping frame: %v", err)
			h.debug.Clear()
			continue
		}
		h.debug.DrawShadowPass()
		h.renderer.EndShadowPass()
		h.debug.Draw()
		h.renderer.EndFrame()
		h.debug.Clear()

		if h.profilingEnabled {
			h.profiler.Tick()
		}

		if h.frameLimit > 0 {
			if remaining := h.frameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	h.running = false
	return nil
}

func (h *harness) Quit() {
	h.running = false
}

func (h *harness) Close() {
	h.loader.Close()
	h.debug.Release()
	h.renderer.Close()
	if err := h.window.Close(); err != nil {
		log.Printf("engine: window close: %v", err)
	}
}
