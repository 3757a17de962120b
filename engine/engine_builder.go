package engine

import (
	"time"

	"github.com/lumen-viz/lumen/engine/loader"
	"github.com/lumen-viz/lumen/engine/renderer"
	"github.com/lumen-viz/lumen/engine/window"
)

// harnessConfig collects construction-time settings that are consumed by the
// sub-component constructors rather than stored on the harness.
type harnessConfig struct {
	backendType     renderer.BackendType
	windowOptions   []window.BuilderOption
	rendererOptions []renderer.BuilderOption
	loaderOptions   []loader.LoaderBuilderOption
}

// HarnessBuilderOption is a functional option for configuring a Harness.
// Use the With* functions to create options.
type HarnessBuilderOption func(*harness, *harnessConfig)

// WithProfiling enables or disables frame statistics output.
//
// Parameters:
//   - enabled: if true, enables profiling
//
// Returns:
//   - HarnessBuilderOption: option function to apply
func WithProfiling(enabled bool) HarnessBuilderOption {
	return func(h *harness, _ *harnessConfig) {
		h.profilingEnabled = enabled
	}
}

// WithBackendType selects the graphics backend implementation.
//
// Parameters:
//   - backendType: the backend to construct
//
// Returns:
//   - HarnessBuilderOption: option function to apply
func WithBackendType(backendType renderer.BackendType) HarnessBuilderOption {
	return func(_ *harness, cfg *harnessConfig) {
		cfg.backendType = backendType
	}
}

// WithWindowOptions forwards options to the window constructor.
//
// Parameters:
//   - options: window options (title, size)
//
// Returns:
//   - HarnessBuilderOption: option function to apply
func WithWindowOptions(options ...window.BuilderOption) HarnessBuilderOption {
	return func(_ *harness, cfg *harnessConfig) {
		cfg.windowOptions = append(cfg.windowOptions, options...)
	}
}

// WithRendererOptions forwards options to the orchestrator constructor.
//
// Parameters:
//   - options: renderer options (light direction, extents, frame hook)
//
// Returns:
//   - HarnessBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.BuilderOption) HarnessBuilderOption {
	return func(_ *harness, cfg *harnessConfig) {
		cfg.rendererOptions = append(cfg.rendererOptions, options...)
	}
}

// WithLoaderOptions forwards options to the texture loader constructor.
//
// Parameters:
//   - options: loader options (worker count, dimension cap)
//
// Returns:
//   - HarnessBuilderOption: option function to apply
func WithLoaderOptions(options ...loader.LoaderBuilderOption) HarnessBuilderOption {
	return func(_ *harness, cfg *harnessConfig) {
		cfg.loaderOptions = append(cfg.loaderOptions, options...)
	}
}

// WithWorldScale sets the initial world scale.
//
// Parameters:
//   - worldScale: the scale applied to clip planes and light extents; must be > 0
//
// Returns:
//   - HarnessBuilderOption: option function to apply
func WithWorldScale(worldScale float32) HarnessBuilderOption {
	return func(h *harness, _ *harnessConfig) {
		if worldScale <= 0 {
			panic("engine: world scale must be positive")
		}
		h.worldScale = worldScale
	}
}

// WithFrameLimit caps the frame rate. Pass 0 to uncap (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - HarnessBuilderOption: option function to apply
func WithFrameLimit(fps float64) HarnessBuilderOption {
	return func(h *harness, _ *harnessConfig) {
		if fps <= 0 {
			h.frameLimit = 0
			return
		}
		h.frameLimit = time.Duration(float64(time.Second) / fps)
	}
}
