package debugdraw

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen-viz/lumen/common"
)

// lineShaderSource renders position+color line lists in the main pass.
//
//go:embed assets/line.wgsl
var lineShaderSource string

// geometryShaderSource renders instanced lit geometry in the main pass,
// sampling the shadow map and the bound material texture.
//
//go:embed assets/geometry.wgsl
var geometryShaderSource string

// geometryShadowShaderSource renders instanced geometry depth into the
// shadow map.
//
//go:embed assets/geometry_shadow.wgsl
var geometryShadowShaderSource string

// triangleShaderSource renders non-instanced lit triangles in the main pass.
//
//go:embed assets/triangle.wgsl
var triangleShaderSource string

// Vertex is the CPU layout of one lit geometry vertex. Matches the geometry
// shaders' per-vertex input exactly (36 bytes, tightly packed).
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Color    common.Color
}

// lineVertex is the CPU layout of one line vertex (16 bytes).
type lineVertex struct {
	Position mgl32.Vec3
	Color    common.Color
}

// instanceData is the CPU layout of one instance record. Matches the geometry
// shaders' per-instance input exactly (132 bytes): the model matrix, the
// inverse-transpose matrix for normals, and an instance color.
type instanceData struct {
	Transform    mgl32.Mat4
	InvTransform mgl32.Mat4
	Color        common.Color
}
