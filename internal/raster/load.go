package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Source is a decoded input page.
type Source struct {
	Path   string
	Format string  // decoder name reported by image.Decode
	DPI    float64 // from TIFF resolution tags, 0 if unknown
	Buffer *Buffer
}

// Load reads and decodes the image at path.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	src, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	src.Path = path

	if src.Format == "tiff" {
		if dpi, err := tiffDPI(bytes.NewReader(data)); err == nil {
			src.DPI = dpi
		}
	}
	return src, nil
}

// Decode decodes any registered image format from r.
func Decode(r io.Reader) (*Source, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Source{Format: format, Buffer: FromImage(img)}, nil
}

// tiffDPI reads XResolution/YResolution/ResolutionUnit from the first IFD.
func tiffDPI(r io.ReadSeeker) (float64, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, err
	}

	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, errors.New("not a TIFF file")
	}

	if _, err := r.Seek(int64(order.Uint32(header[4:8])), io.SeekStart); err != nil {
		return 0, err
	}
	var count uint16
	if err := binary.Read(r, order, &count); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	unit := uint16(2) // inches
	entry := make([]byte, 12)
	for i := uint16(0); i < count; i++ {
		if _, err := io.ReadFull(r, entry); err != nil {
			return 0, err
		}
		tag := order.Uint16(entry[0:2])
		kind := order.Uint16(entry[2:4])
		value := order.Uint32(entry[8:12])

		switch tag {
		case 282, 283: // XResolution, YResolution
			if kind != 5 { // RATIONAL
				continue
			}
			v := readRational(r, int64(value), order)
			if tag == 282 {
				xRes = v
			} else {
				yRes = v
			}
		case 296: // ResolutionUnit
			if kind == 3 { // SHORT
				unit = order.Uint16(entry[8:10])
			}
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, errors.New("no resolution tags")
	}
	if unit == 3 { // centimeters
		dpi *= 2.54
	}
	return dpi, nil
}

// readRational reads two uint32s at offset and restores the read position.
func readRational(r io.ReadSeeker, offset int64, order binary.ByteOrder) float64 {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	defer r.Seek(pos, io.SeekStart)

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0
	}
	var v [2]uint32
	if err := binary.Read(r, order, &v); err != nil || v[1] == 0 {
		return 0
	}
	return float64(v[0]) / float64(v[1])
}

// SupportedFormats returns the file extensions Load can decode.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp"}
}

// IsSupportedFormat checks the extension of path against SupportedFormats.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range SupportedFormats() {
		if ext == f {
			return true
		}
	}
	return false
}
