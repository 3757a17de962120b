package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a half-space boundary in 3D space satisfying
// Normal·p + Distance >= 0 for points inside the half-space.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the signed distance from p to the plane.
// Positive values are on the inside of the half-space.
//
// Parameters:
//   - p: the point to test
//
// Returns:
//   - float32: the signed distance
func (pl Plane) SignedDistance(p mgl32.Vec3) float32 {
	return pl.Normal.Dot(p) + pl.Distance
}

// Frustum is the volume visible under a view-projection transform, represented
// as six half-space planes oriented so the positive side is inside.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// FrustumFromMatrix extracts the six bounding planes from a combined
// view × projection matrix using the Gribb/Hartmann method, assuming the
// [0, 1] clip depth range produced by PerspectiveClip/OrthoClip.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func FrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{viewProj.At(i, 0), viewProj.At(i, 1), viewProj.At(i, 2), viewProj.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f.Planes[PlaneLeft] = planeFromVec4(r3.Add(r0))
	f.Planes[PlaneRight] = planeFromVec4(r3.Sub(r0))
	f.Planes[PlaneBottom] = planeFromVec4(r3.Add(r1))
	f.Planes[PlaneTop] = planeFromVec4(r3.Sub(r1))
	// With clip depth in [0, 1] the near plane is z' >= 0, not r3 + r2.
	f.Planes[PlaneNear] = planeFromVec4(r2)
	f.Planes[PlaneFar] = planeFromVec4(r3.Sub(r2))
	return f
}

// planeFromVec4 normalizes a raw plane equation (a, b, c, d) into a Plane with
// a unit-length normal. Degenerate zero-length normals are left as-is.
func planeFromVec4(v mgl32.Vec4) Plane {
	n := mgl32.Vec3{v.X(), v.Y(), v.Z()}
	length := n.Len()
	if length > 0 {
		inv := 1.0 / length
		return Plane{Normal: n.Mul(inv), Distance: v.W() * inv}
	}
	return Plane{Normal: n, Distance: v.W()}
}

// ContainsPoint reports whether p lies inside or on the boundary of the frustum.
//
// Parameters:
//   - p: the point to test, in the same space the frustum was extracted from
//
// Returns:
//   - bool: true if the point is inside all six planes
func (f Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.SignedDistance(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether a sphere overlaps the frustum. This is the
// conservative plane test: spheres near frustum corners may report a false
// positive, which is acceptable for culling.
//
// Parameters:
//   - center: sphere center
//   - radius: sphere radius
//
// Returns:
//   - bool: true if the sphere is at least partially inside
func (f Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, pl := range f.Planes {
		if pl.SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}
