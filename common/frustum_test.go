package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func cameraFrustum(eye, forward mgl32.Vec3) Frustum {
	view := LookForward(eye, forward, mgl32.Vec3{0, 1, 0})
	proj := PerspectiveClip(mgl32.DegToRad(70), 16.0/9.0, 0.01, 1000, 1)
	return FrustumFromMatrix(proj.Mul4(view))
}

func TestFrustumContainsForwardPoint(t *testing.T) {
	f := cameraFrustum(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1})

	assert.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, -10}), "point straight ahead should be inside")
	assert.True(t, f.ContainsPoint(mgl32.Vec3{1, 1, -10}), "point slightly off axis should be inside")
}

func TestFrustumExcludesOutsidePoints(t *testing.T) {
	f := cameraFrustum(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1})

	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 10}), "point behind the camera")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, -2000}), "point beyond the far plane")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, -0.001}), "point in front of the near plane")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{100, 0, -1}), "point far off the view axis")
}

func TestFrustumFollowsCamera(t *testing.T) {
	f := cameraFrustum(mgl32.Vec3{50, 0, 0}, mgl32.Vec3{1, 0, 0})

	assert.True(t, f.ContainsPoint(mgl32.Vec3{60, 0, 0}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{40, 0, 0}), "point behind a translated, rotated camera")
}

func TestFrustumIntersectsSphere(t *testing.T) {
	f := cameraFrustum(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1})

	assert.True(t, f.IntersectsSphere(mgl32.Vec3{0, 0, -10}, 1), "sphere fully inside")
	assert.True(t, f.IntersectsSphere(mgl32.Vec3{0, 0, 1}, 5), "sphere straddling the near plane")
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{0, 0, 50}, 1), "sphere fully behind")
}

func TestFrustumFromOrthographic(t *testing.T) {
	view := LookForward(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	proj := OrthoClip(-100, 100, -100, 100, 1, 500, 1)
	f := FrustumFromMatrix(proj.Mul4(view))

	assert.True(t, f.ContainsPoint(mgl32.Vec3{50, 50, -250}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{150, 0, -250}), "outside the ortho half-extent")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, -600}), "beyond the ortho far plane")
}

func TestPlaneSignedDistance(t *testing.T) {
	pl := Plane{Normal: mgl32.Vec3{0, 1, 0}, Distance: -5}

	assert.InDelta(t, 5.0, pl.SignedDistance(mgl32.Vec3{0, 10, 0}), 1e-6)
	assert.InDelta(t, -5.0, pl.SignedDistance(mgl32.Vec3{0, 0, 0}), 1e-6)
}

func TestFrustumPlanesAreNormalized(t *testing.T) {
	f := cameraFrustum(mgl32.Vec3{3, 1, 4}, mgl32.Vec3{0, 0, -1})
	for i, pl := range f.Planes {
		assert.InDelta(t, 1.0, pl.Normal.Len(), 1e-5, "plane %d normal should be unit length", i)
	}
}
