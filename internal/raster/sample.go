package raster

import (
	"image/color"
	"math"

	"doc-rectifier/pkg/colorutil"
)

// edgeInset keeps clamped coordinates strictly inside the last row and column.
const edgeInset = 1.001

// Bilinear samples the buffer at a fractional coordinate. Coordinates outside
// [0, Width) x [0, Height) return opaque white, the background fill for the
// corrected page. The result is always opaque.
func (b *Buffer) Bilinear(x, y float64) color.RGBA {
	w, h := float64(b.Width), float64(b.Height)
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || x >= w || y < 0 || y >= h {
		return colorutil.White
	}

	x = math.Max(0, math.Min(w-edgeInset, x))
	y = math.Max(0, math.Min(h-edgeInset, y))

	x1 := int(math.Floor(x))
	y1 := int(math.Floor(y))
	x2 := min(x1+1, b.Width-1)
	y2 := min(y1+1, b.Height-1)
	dx := x - float64(x1)
	dy := y - float64(y1)

	i11 := b.Offset(x1, y1)
	i12 := b.Offset(x2, y1)
	i21 := b.Offset(x1, y2)
	i22 := b.Offset(x2, y2)

	var out [3]uint8
	for c := 0; c < 3; c++ {
		top := colorutil.Lerp(float64(b.Pix[i11+c]), float64(b.Pix[i12+c]), dx)
		bottom := colorutil.Lerp(float64(b.Pix[i21+c]), float64(b.Pix[i22+c]), dx)
		out[c] = colorutil.ClampByte(colorutil.Lerp(top, bottom, dy))
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: 255}
}

// Nearest samples the pixel closest to (x, y), or opaque white outside the
// buffer. Halves round up. The result is always opaque.
func (b *Buffer) Nearest(x, y float64) color.RGBA {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return colorutil.White
	}
	sx := int(math.Floor(x + 0.5))
	sy := int(math.Floor(y + 0.5))
	if sx < 0 || sy < 0 || sx >= b.Width || sy >= b.Height {
		return colorutil.White
	}
	c := b.At(sx, sy)
	c.A = 255
	return c
}
