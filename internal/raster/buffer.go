// Package raster provides the RGBA pixel buffer the rectifier reads from and
// writes to, plus sampling, sharpening and image-file loading.
package raster

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Buffer is a width x height RGBA image stored row-major, 4 bytes per pixel.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer allocates a zeroed (transparent black) buffer.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// NewUniform allocates a buffer filled with c.
func NewUniform(width, height int, c color.RGBA) *Buffer {
	b := NewBuffer(width, height)
	b.Fill(c)
	return b
}

// Wrap uses pix as the backing store of a width x height buffer.
func Wrap(width, height int, pix []uint8) (*Buffer, error) {
	if width < 0 || height < 0 || len(pix) != width*height*4 {
		return nil, fmt.Errorf("pixel data is %d bytes, want %dx%dx4", len(pix), width, height)
	}
	return &Buffer{Width: width, Height: height, Pix: pix}, nil
}

// FromImage copies img into a new buffer. The image origin moves to (0,0).
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return &Buffer{Width: bounds.Dx(), Height: bounds.Dy(), Pix: rgba.Pix}
}

// ToRGBA returns an *image.RGBA sharing the buffer's pixels.
func (b *Buffer) ToRGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Offset returns the index of pixel (x, y) in Pix.
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// At returns the color at (x, y), or transparent black outside the buffer.
func (b *Buffer) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.RGBA{}
	}
	i := b.Offset(x, y)
	return color.RGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// Set writes c at (x, y). Writes outside the buffer are ignored.
func (b *Buffer) Set(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := b.Offset(x, y)
	b.Pix[i] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = c.A
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c color.RGBA) {
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = c.A
	}
}

// IsUniform reports whether every pixel equals c.
func (b *Buffer) IsUniform(c color.RGBA) bool {
	for i := 0; i < len(b.Pix); i += 4 {
		if b.Pix[i] != c.R || b.Pix[i+1] != c.G || b.Pix[i+2] != c.B || b.Pix[i+3] != c.A {
			return false
		}
	}
	return true
}
