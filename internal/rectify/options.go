// Package rectify turns a user-selected polygon on a photographed page into a
// flat, rectangular document image.
package rectify

import (
	"errors"
	"fmt"
	"strings"

	"doc-rectifier/internal/raster"
	"doc-rectifier/internal/status"
)

// ErrInsufficientPoints is returned when fewer than four points are supplied.
var ErrInsufficientPoints = errors.New("at least 4 points are required")

// MinPoints is the smallest polygon Correct accepts.
const MinPoints = 4

// Strategy selects the pipeline used for polygons of more than four points.
type Strategy string

const (
	// MeshMVC warps the output rectangle through an estimated quad and maps
	// it onto the polygon with mean value coordinates.
	MeshMVC Strategy = "mesh-mvc"
	// HomographyConstrained picks the four corners spanning the largest area,
	// solves a homography to them, and bends the remaining points onto the
	// rectangle edges.
	HomographyConstrained Strategy = "homography-constrained"
)

// Strategies lists every valid strategy.
func Strategies() []Strategy {
	return []Strategy{MeshMVC, HomographyConstrained}
}

// ParseStrategy converts a strategy name, ignoring case and surrounding space.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case MeshMVC:
		return MeshMVC, nil
	case HomographyConstrained:
		return HomographyConstrained, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want %s or %s)", s, MeshMVC, HomographyConstrained)
}

func (s Strategy) String() string { return string(s) }

// Pixel-count cadences for progress messages.
const (
	MeshProgressEvery       = 5000
	HomographyProgressEvery = 10000
)

// Options controls a correction run.
type Options struct {
	// Strategy for polygons of five or more points.
	Strategy Strategy
	// ForceStrategy runs Strategy for four-point input too, instead of the
	// bounding-box perspective warp.
	ForceStrategy bool
	// Sharpen enables the pipeline's post-filter.
	Sharpen           bool
	LaplacianStrength float64
	UnsharpStrength   float64
	// ProgressEvery overrides the progress cadence in pixels. Zero uses the
	// pipeline default; a negative value disables progress messages.
	ProgressEvery int
	// Workers splits the destination rows into this many stripes.
	// Values below 2 run on the calling goroutine.
	Workers int
	// Sink receives progress, success and error messages. With Workers > 1
	// progress is still reported one message at a time.
	Sink status.Sink
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Strategy:          MeshMVC,
		Sharpen:           true,
		LaplacianStrength: raster.LaplacianStrength,
		UnsharpStrength:   raster.UnsharpStrength,
		Workers:           1,
		Sink:              status.Discard,
	}
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = MeshMVC
	}
	if o.Sink == nil {
		o.Sink = status.Discard
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	return o
}

func (o Options) progressEvery(def int) int {
	switch {
	case o.ProgressEvery < 0:
		return 0
	case o.ProgressEvery == 0:
		return def
	default:
		return o.ProgressEvery
	}
}
