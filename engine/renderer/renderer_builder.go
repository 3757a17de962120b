package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BuilderOption configures a Renderer during construction.
type BuilderOption func(*harnessRenderer)

// WithLightDirection overrides the shadow light's direction.
//
// Parameters:
//   - direction: the new direction; normalized internally, must be non-zero
//
// Returns:
//   - BuilderOption: the option
func WithLightDirection(direction mgl32.Vec3) BuilderOption {
	return func(r *harnessRenderer) {
		if direction.Len() == 0 {
			panic("renderer: light direction must be non-zero")
		}
		r.light.direction = direction.Normalize()
	}
}

// WithLightDistance overrides how far the shadow light sits from the origin,
// in world units before world scaling.
//
// Parameters:
//   - distance: the new distance; must be > 0
//
// Returns:
//   - BuilderOption: the option
func WithLightDistance(distance float32) BuilderOption {
	return func(r *harnessRenderer) {
		if distance <= 0 {
			panic("renderer: light distance must be positive")
		}
		r.light.distance = distance
	}
}

// WithLightExtents overrides the shadow light's orthographic volume, in world
// units before world scaling.
//
// Parameters:
//   - halfExtent: half the width and height of the light's view volume
//   - near, far: the light's clip distances
//
// Returns:
//   - BuilderOption: the option
func WithLightExtents(halfExtent, near, far float32) BuilderOption {
	return func(r *harnessRenderer) {
		if halfExtent <= 0 || near <= 0 || far <= near {
			panic("renderer: light extents must satisfy 0 < near < far and halfExtent > 0")
		}
		r.light.halfExtent = halfExtent
		r.light.near = near
		r.light.far = far
	}
}

// WithFrameEndCallback registers a hook invoked after every EndFrame, once
// the frame has been submitted and the frame index advanced. Used to tick
// per-frame bookkeeping such as the profiler.
//
// Parameters:
//   - callback: the hook; ignored if nil
//
// Returns:
//   - BuilderOption: the option
func WithFrameEndCallback(callback func()) BuilderOption {
	return func(r *harnessRenderer) {
		r.onFrameEnd = callback
	}
}
