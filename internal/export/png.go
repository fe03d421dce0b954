// Package export writes corrected documents out of the process: a PNG for
// download and a self-contained HTML page for printing.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"doc-rectifier/internal/rectify"
	"doc-rectifier/internal/status"
	"doc-rectifier/pkg/colorutil"

	"golang.org/x/image/draw"
)

// ErrNoResult is returned when there is nothing to export yet.
var ErrNoResult = errors.New("no corrected image available")

// timestampLayout matches an ISO-8601 timestamp with colons replaced by dashes.
const timestampLayout = "2006-01-02T15-04-05"

// Filename returns the download name for a document corrected at now (UTC).
func Filename(now time.Time) string {
	return "corrected-document-" + now.UTC().Format(timestampLayout) + ".png"
}

// Flatten composites the result onto an opaque white page.
func Flatten(res *rectify.Result) (*image.RGBA, error) {
	if res == nil || res.Raster == nil {
		return nil, ErrNoResult
	}
	src := res.Raster.ToRGBA()
	page := image.NewRGBA(src.Bounds())
	draw.Draw(page, page.Bounds(), image.NewUniform(colorutil.White), image.Point{}, draw.Src)
	draw.Draw(page, page.Bounds(), src, image.Point{}, draw.Over)
	return page, nil
}

// WritePNG encodes the flattened result as PNG.
func WritePNG(w io.Writer, res *rectify.Result) error {
	page, err := Flatten(res)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, page); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// SavePNG writes the result into dir under Filename(now) and returns the path.
func SavePNG(dir string, res *rectify.Result, now time.Time) (string, error) {
	if res == nil || res.Raster == nil {
		return "", ErrNoResult
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, Filename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WritePNG(f, res); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Download saves the result into dir and reports the outcome to sink.
func Download(dir string, res *rectify.Result, now time.Time, sink status.Sink) (string, error) {
	path, err := SavePNG(dir, res, now)
	switch {
	case errors.Is(err, ErrNoResult):
		sink.Report(status.Error, "No corrected image available. Please apply perspective correction first.")
	case err != nil:
		sink.Report(status.Error, "Download failed: "+err.Error())
	default:
		sink.Report(status.Success,
			fmt.Sprintf("Image downloaded successfully! (%d×%dpx)", res.Width, res.Height))
	}
	return path, err
}
