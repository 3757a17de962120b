package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// FrameCount is the number of in-flight frames the renderer double
	// buffers. Frame indices cycle through [0, FrameCount).
	FrameCount = 2

	// ShadowMapSize is the width and height of the shadow depth texture.
	ShadowMapSize = 4096
)

// Defaults for the directional shadow light. Extents and distances are in
// world units and scale with the renderer's world scale.
const (
	defaultLightHalfExtent = 100.0
	defaultLightNear       = 1.0
	defaultLightFar        = 500.0
	defaultLightDistance   = 250.0
)

// defaultLightDirection returns the default directional light direction,
// pointing down and diagonally into the scene.
func defaultLightDirection() mgl32.Vec3 {
	return mgl32.Vec3{-1, -2, -1}.Normalize()
}

// lightSettings holds the directional light the shadow pass renders from. The
// frustum it produces is fixed for the lifetime of the renderer so shadows
// stay stable while the camera moves.
type lightSettings struct {
	direction  mgl32.Vec3
	distance   float32
	halfExtent float32
	near       float32
	far        float32
}

func defaultLightSettings() lightSettings {
	return lightSettings{
		direction:  defaultLightDirection(),
		distance:   defaultLightDistance,
		halfExtent: defaultLightHalfExtent,
		near:       defaultLightNear,
		far:        defaultLightFar,
	}
}

// position returns the light's world position at the configured distance
// opposite its direction, scaled by the world scale.
func (l lightSettings) position(worldScale float32) mgl32.Vec3 {
	return l.direction.Mul(-l.distance * worldScale)
}

// upHint returns an up vector that is never parallel to the light direction.
func (l lightSettings) upHint() mgl32.Vec3 {
	if l.direction.Y() > 0.99 || l.direction.Y() < -0.99 {
		return mgl32.Vec3{1, 0, 0}
	}
	return mgl32.Vec3{0, 1, 0}
}
