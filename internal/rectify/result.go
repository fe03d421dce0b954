package rectify

import (
	"time"

	"doc-rectifier/internal/corners"
	"doc-rectifier/internal/raster"
	"doc-rectifier/pkg/geometry"
)

// Pipeline names reported in Metadata.Method.
const (
	MethodPerspective           = "perspective"
	MethodDocumentWarp          = "document-warp"
	MethodConstrainedHomography = "constrained-homography"
)

// Result is a corrected document image plus what was used to produce it.
type Result struct {
	Raster *raster.Buffer
	Width  int
	Height int

	// OrderedPoints is the polygon in the order the pipeline consumed it.
	OrderedPoints []geometry.Point2D
	// CornerPoints is the quad mapped onto the output rectangle.
	CornerPoints []geometry.Point2D
	// Constraints is only populated by the constrained homography pipeline.
	Constraints []corners.EdgeConstraint

	Metadata Metadata
}

// Metadata describes a correction run.
type Metadata struct {
	Method   string
	Strategy Strategy
	IsConvex bool
	Elapsed  time.Duration
	// OffsetX and OffsetY locate the output on the source for the
	// perspective pipeline (the bounding-box origin); zero otherwise.
	OffsetX float64
	OffsetY float64
}
