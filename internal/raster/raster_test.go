package raster

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"doc-rectifier/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *Buffer {
	b := NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 100, A: 255})
		}
	}
	return b
}

func TestWrap(t *testing.T) {
	_, err := Wrap(2, 2, make([]uint8, 15))
	assert.Error(t, err)

	b, err := Wrap(2, 2, make([]uint8, 16))
	require.NoError(t, err)
	assert.Equal(t, 2, b.Width)
}

func TestBilinear_IntegerCoordinatesAreExact(t *testing.T) {
	b := gradient(8, 6)
	for _, p := range [][2]int{{0, 0}, {3, 2}, {5, 4}, {6, 1}} {
		assert.Equal(t, b.At(p[0], p[1]), b.Bilinear(float64(p[0]), float64(p[1])), "pixel %v", p)
	}
}

func TestBilinear_Interpolates(t *testing.T) {
	b := gradient(8, 6)
	c := b.Bilinear(2.5, 3.5)
	assert.Equal(t, uint8(25), c.R)
	assert.Equal(t, uint8(35), c.G)
	assert.Equal(t, uint8(255), c.A)
}

func TestBilinear_OutsideIsWhite(t *testing.T) {
	b := NewUniform(4, 4, colorutil.Black)
	for _, p := range [][2]float64{{-0.01, 1}, {1, -3}, {4, 1}, {1, 4}, {100, 100}} {
		assert.Equal(t, colorutil.White, b.Bilinear(p[0], p[1]), "at %v", p)
	}
}

func TestBilinear_LastColumnClamps(t *testing.T) {
	b := NewUniform(4, 4, color.RGBA{R: 9, G: 9, B: 9, A: 255})
	assert.Equal(t, color.RGBA{R: 9, G: 9, B: 9, A: 255}, b.Bilinear(3.9, 3.9))
}

func TestNearest(t *testing.T) {
	b := gradient(8, 6)
	assert.Equal(t, b.At(3, 2), b.Nearest(2.6, 2.4))
	assert.Equal(t, colorutil.White, b.Nearest(-1, 0))
	assert.Equal(t, colorutil.White, b.Nearest(7.6, 0))

	transparent := NewBuffer(2, 2)
	assert.Equal(t, uint8(255), transparent.Nearest(0, 0).A)
}

func TestSharpen_UniformIsUnchanged(t *testing.T) {
	c := color.RGBA{R: 120, G: 60, B: 200, A: 255}
	for name, sharpen := range map[string]func(*Buffer, float64){
		"laplacian": SharpenLaplacian,
		"unsharp":   SharpenUnsharp,
	} {
		t.Run(name, func(t *testing.T) {
			b := NewUniform(10, 7, c)
			sharpen(b, 0.5)
			assert.True(t, b.IsUniform(c))
		})
	}
}

func TestSharpen_BorderUntouched(t *testing.T) {
	b := gradient(6, 6)
	b.Set(2, 2, colorutil.White)
	before := b.Clone()
	SharpenLaplacian(b, LaplacianStrength)

	for x := 0; x < 6; x++ {
		assert.Equal(t, before.At(x, 0), b.At(x, 0))
		assert.Equal(t, before.At(x, 5), b.At(x, 5))
	}
	for y := 0; y < 6; y++ {
		assert.Equal(t, before.At(0, y), b.At(0, y))
		assert.Equal(t, before.At(5, y), b.At(5, y))
	}
	assert.NotEqual(t, before.At(1, 1), b.At(1, 1))
}

func TestSharpen_SpikeIsAmplified(t *testing.T) {
	b := NewUniform(5, 5, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	b.Set(2, 2, color.RGBA{R: 110, G: 110, B: 110, A: 7})
	SharpenUnsharp(b, UnsharpStrength)

	got := b.At(2, 2)
	assert.Equal(t, uint8(113), got.R) // 110 + 0.25*(110-100) = 112.5
	assert.Equal(t, uint8(7), got.A)
	assert.Equal(t, uint8(100), b.At(0, 0).R)
}

func TestSharpen_TooSmall(t *testing.T) {
	b := gradient(2, 5)
	before := b.Clone()
	SharpenLaplacian(b, 1)
	assert.Equal(t, before.Pix, b.Pix)
}

func TestLoad_PNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "png", src.Format)
	assert.Equal(t, path, src.Path)
	assert.Equal(t, 3, src.Buffer.Width)
	assert.Equal(t, 2, src.Buffer.Height)
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, src.Buffer.At(1, 1))
	assert.Zero(t, src.DPI)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestTIFFDPI(t *testing.T) {
	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, uint32(8))
	binary.Write(&buf, le, uint16(2))
	// XResolution, RATIONAL at offset 38
	binary.Write(&buf, le, []uint16{282, 5})
	binary.Write(&buf, le, []uint32{1, 38})
	// ResolutionUnit = centimeters
	binary.Write(&buf, le, []uint16{296, 3})
	binary.Write(&buf, le, []uint32{1, 3})
	binary.Write(&buf, le, uint32(0))
	binary.Write(&buf, le, []uint32{300, 1})

	dpi, err := tiffDPI(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.InDelta(t, 762.0, dpi, 1e-9)

	_, err = tiffDPI(bytes.NewReader([]byte("GIF89a..")))
	assert.Error(t, err)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("scan.TIFF"))
	assert.True(t, IsSupportedFormat("photo.webp"))
	assert.False(t, IsSupportedFormat("notes.txt"))
}
