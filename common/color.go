package common

import "github.com/go-gl/mathgl/mgl32"

// Color is an 8-bit-per-channel RGBA color, the vertex color format consumed
// by render primitives and instance buffers.
type Color struct {
	R, G, B, A uint8
}

// Stock colors used by the debug drawing layer.
var (
	ColorWhite  = Color{255, 255, 255, 255}
	ColorBlack  = Color{0, 0, 0, 255}
	ColorRed    = Color{255, 0, 0, 255}
	ColorGreen  = Color{0, 255, 0, 255}
	ColorBlue   = Color{0, 0, 255, 255}
	ColorYellow = Color{255, 255, 0, 255}
	ColorGrey   = Color{128, 128, 128, 255}
)

// Vec4 converts the color to normalized float components.
//
// Returns:
//   - mgl32.Vec4: the color with each channel in [0, 1]
func (c Color) Vec4() mgl32.Vec4 {
	const inv = 1.0 / 255.0
	return mgl32.Vec4{float32(c.R) * inv, float32(c.G) * inv, float32(c.B) * inv, float32(c.A) * inv}
}

// Scaled returns the color with its RGB channels multiplied by s, clamped to
// the valid range. Alpha is unchanged.
//
// Parameters:
//   - s: scale factor (>= 0)
//
// Returns:
//   - Color: the scaled color
func (c Color) Scaled(s float32) Color {
	clamp := func(v float32) uint8 {
		if v > 255 {
			return 255
		}
		if v < 0 {
			return 0
		}
		return uint8(v)
	}
	return Color{
		R: clamp(float32(c.R) * s),
		G: clamp(float32(c.G) * s),
		B: clamp(float32(c.B) * s),
		A: c.A,
	}
}
