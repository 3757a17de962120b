package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveClip builds a right-handed perspective projection matrix that maps
// depth into the [0, 1] clip range used by modern GPU APIs (WebGPU, DirectX,
// Vulkan). mathgl's own Perspective targets the OpenGL [-1, 1] convention and
// cannot be used for this.
//
// ySign flips the Y axis of clip space: +1 for DirectX-style backends, -1 for
// Vulkan-style backends. This is the only axis-convention difference between
// backends that leaks into projection math.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width / height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//   - ySign: +1 or -1 depending on backend clip-space convention
//
// Returns:
//   - mgl32.Mat4: the projection matrix (column-major)
func PerspectiveClip(fovY, aspect, near, far, ySign float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))

	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f * ySign
	m[10] = far / (near - far)
	m[11] = -1.0
	m[14] = (near * far) / (near - far)
	return m
}

// OrthoClip builds a right-handed orthographic projection matrix mapping depth
// into the [0, 1] clip range. Used for the directional light's shadow
// projection and for pixel-space orthographic overlays.
//
// Parameters:
//   - left, right, bottom, top: extents of the view volume
//   - near, far: depth range of the view volume (near < far)
//   - ySign: +1 or -1 depending on backend clip-space convention
//
// Returns:
//   - mgl32.Mat4: the projection matrix (column-major)
func OrthoClip(left, right, bottom, top, near, far, ySign float32) mgl32.Mat4 {
	var m mgl32.Mat4
	m[0] = 2.0 / (right - left)
	m[5] = 2.0 / (top - bottom) * ySign
	m[10] = 1.0 / (near - far)
	m[12] = -(right + left) / (right - left)
	m[13] = -(top + bottom) / (top - bottom) * ySign
	m[14] = near / (near - far)
	m[15] = 1.0
	return m
}

// LookForward builds a view matrix from a camera position, a forward direction
// and an up hint. The basis is orthonormalized from forward and up; the matrix
// transforms world coordinates into view space. forward and up must be
// non-degenerate and not collinear; the result is undefined otherwise.
//
// Parameters:
//   - eye: camera position in (rebased) render space
//   - forward: unit view direction
//   - up: approximate up vector (re-orthogonalized internally)
//
// Returns:
//   - mgl32.Mat4: the view matrix (column-major)
func LookForward(eye, forward, up mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(eye, eye.Add(forward), up)
}

// SliceToBytes reinterprets a slice of any type as a raw byte slice for GPU
// buffer uploads. The returned slice aliases the input memory; do not mutate
// it while the upload is in flight.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte view of the input, or nil if the input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice covering
// the struct's in-memory representation. Used for uploading constant-buffer
// snapshots to the GPU.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(unsafe.Sizeof(*v)))
}
