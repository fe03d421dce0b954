package raster

import "doc-rectifier/pkg/colorutil"

// Default sharpening strengths of the two pipelines.
const (
	LaplacianStrength = 0.2
	UnsharpStrength   = 0.25
)

// SharpenLaplacian applies a 3x3 Laplacian (center 8, neighbors -1) and adds
// strength times the response to each RGB channel. Only interior pixels are
// touched; alpha is left alone. Flat regions have a zero response.
func SharpenLaplacian(b *Buffer, strength float64) {
	sharpen(b, func(center, neighborSum float64) float64 {
		return center + strength*(8*center-neighborSum)
	})
}

// SharpenUnsharp subtracts the mean of the 8 neighbors from each RGB channel
// and adds strength times the difference back. Constant regions are unchanged.
func SharpenUnsharp(b *Buffer, strength float64) {
	sharpen(b, func(center, neighborSum float64) float64 {
		return center + strength*(center-neighborSum/8)
	})
}

// sharpen runs f over interior pixels, reading from a snapshot of the input.
func sharpen(b *Buffer, f func(center, neighborSum float64) float64) {
	if b.Width < 3 || b.Height < 3 {
		return
	}
	src := make([]uint8, len(b.Pix))
	copy(src, b.Pix)
	stride := b.Width * 4

	for y := 1; y < b.Height-1; y++ {
		for x := 1; x < b.Width-1; x++ {
			i := b.Offset(x, y)
			for c := 0; c < 3; c++ {
				j := i + c
				sum := float64(src[j-stride-4]) + float64(src[j-stride]) + float64(src[j-stride+4]) +
					float64(src[j-4]) + float64(src[j+4]) +
					float64(src[j+stride-4]) + float64(src[j+stride]) + float64(src[j+stride+4])
				b.Pix[j] = colorutil.ClampByte(f(float64(src[j]), sum))
			}
		}
	}
}
