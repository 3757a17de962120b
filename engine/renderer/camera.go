package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// CameraState is the camera setup for a single frame. It is pure data: the
// caller supplies a fresh value to BeginFrame each frame and the orchestrator
// keeps a copy that is valid only until the matching EndFrame.
//
// Position is held in double precision and is NOT rebased; the orchestrator
// subtracts the base offset when deriving render-space matrices.
//
// Forward and Up must be non-degenerate and not collinear; this is not
// validated and the derived frustum is undefined otherwise.
type CameraState struct {
	// Position is the camera position in world space.
	Position mgl64.Vec3

	// Forward is the unit view direction.
	Forward mgl32.Vec3

	// Up is the camera up vector.
	Up mgl32.Vec3

	// FOVY is the vertical field of view in radians.
	FOVY float32
}

// NewCameraState returns a camera at the origin looking down -Z with a 70
// degree vertical field of view.
//
// Returns:
//   - CameraState: the default camera setup
func NewCameraState() CameraState {
	return CameraState{
		Forward: mgl32.Vec3{0, 0, -1},
		Up:      mgl32.Vec3{0, 1, 0},
		FOVY:    mgl32.DegToRad(70.0),
	}
}

// RenderPosition returns the camera position expressed relative to the given
// base offset, in the single-precision render coordinate space.
//
// Parameters:
//   - baseOffset: the world rebasing offset active for the frame
//
// Returns:
//   - mgl32.Vec3: the rebased camera position
func (c CameraState) RenderPosition(baseOffset mgl64.Vec3) mgl32.Vec3 {
	rel := c.Position.Sub(baseOffset)
	return mgl32.Vec3{float32(rel.X()), float32(rel.Y()), float32(rel.Z())}
}
