// Package common contains the shared value types of the render core: frustum
// planes, clip-space projection helpers, decoded image surfaces, and the raw
// byte reinterpretation helpers used for GPU uploads.
package common

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Surface is a decoded RGBA8 image held in CPU memory, the input to a
// backend's CreateTexture. Pixels are 4 bytes per texel in row-major order.
type Surface struct {
	// Width is the surface width in texels.
	Width int

	// Height is the surface height in texels.
	Height int

	// Pixels holds Width*Height*4 bytes of RGBA data.
	Pixels []byte
}

// NewSurface allocates a zeroed RGBA surface of the given dimensions.
// Panics if either dimension is not positive; an empty surface is a
// programming error, not a runtime condition.
//
// Parameters:
//   - width, height: surface dimensions in texels
//
// Returns:
//   - *Surface: the allocated surface
func NewSurface(width, height int) *Surface {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("common: invalid surface dimensions %dx%d", width, height))
	}
	return &Surface{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height*4),
	}
}

// SurfaceFromImage converts any decoded image into an RGBA surface.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - *Surface: the converted surface
func SurfaceFromImage(img image.Image) *Surface {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return &Surface{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}
}

// DecodeSurface decodes PNG or JPEG data from a reader into an RGBA surface.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: reader supplying the encoded image bytes
//
// Returns:
//   - *Surface: the decoded surface
//   - error: an error if decoding fails
func DecodeSurface(r io.Reader) (*Surface, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return SurfaceFromImage(img), nil
}

// LoadSurface opens and decodes an image file into an RGBA surface.
//
// Parameters:
//   - path: file path of the PNG or JPEG image
//
// Returns:
//   - *Surface: the decoded surface
//   - error: an error if the file cannot be opened or decoded
func LoadSurface(path string) (*Surface, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer file.Close()

	s, err := DecodeSurface(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image file %s: %w", path, err)
	}
	return s, nil
}

// Rescale resamples the surface to new dimensions with bilinear filtering.
// Used to bring oversized source images down to backend texture limits.
//
// Parameters:
//   - width, height: target dimensions in texels
//
// Returns:
//   - *Surface: a new surface; the receiver is unchanged
func (s *Surface) Rescale(width, height int) *Surface {
	if width == s.Width && height == s.Height {
		out := NewSurface(width, height)
		copy(out.Pixels, s.Pixels)
		return out
	}

	src := &image.RGBA{
		Pix:    s.Pixels,
		Stride: s.Width * 4,
		Rect:   image.Rect(0, 0, s.Width, s.Height),
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)

	return &Surface{Width: width, Height: height, Pixels: dst.Pix}
}

// NewCheckerSurface builds a two-color checkerboard surface, the stock debug
// texture of the harness.
//
// Parameters:
//   - size: width and height in texels
//   - cell: checker cell size in texels
//   - a, b: the two checker colors
//
// Returns:
//   - *Surface: the generated surface
func NewCheckerSurface(size, cell int, a, b Color) *Surface {
	s := NewSurface(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			i := (y*size + x) * 4
			s.Pixels[i+0] = c.R
			s.Pixels[i+1] = c.G
			s.Pixels[i+2] = c.B
			s.Pixels[i+3] = c.A
		}
	}
	return s
}
