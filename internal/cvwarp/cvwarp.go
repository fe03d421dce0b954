// Package cvwarp warps pages with OpenCV. It serves as an independent
// reference for the pure-Go four-point perspective path.
package cvwarp

import (
	"fmt"
	"image"

	"doc-rectifier/internal/homography"
	"doc-rectifier/internal/raster"
	"doc-rectifier/pkg/colorutil"
	"doc-rectifier/pkg/geometry"

	"gocv.io/x/gocv"
)

// Transform asks OpenCV for the homography taking quad to the corners of a
// width x height rectangle.
func Transform(quad geometry.Quad, width, height int) homography.Matrix {
	src := gocv.NewPoint2fVectorFromPoints(toPoint2f(quad))
	defer src.Close()
	dst := gocv.NewPoint2fVectorFromPoints(toPoint2f(geometry.RectQuad(float64(width), float64(height))))
	defer dst.Close()

	m := gocv.GetPerspectiveTransform2f(src, dst)
	defer m.Close()

	var h homography.Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			h[i][j] = m.GetDoubleAt(i, j)
		}
	}
	return h
}

// Warp resamples the quad region of src into a width x height page with
// bilinear interpolation and a white border, using h as the forward
// (source to page) homography.
func Warp(src *raster.Buffer, h homography.Matrix, width, height int) (*raster.Buffer, error) {
	if src == nil || src.Width == 0 || src.Height == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", width, height)
	}

	in, err := gocv.NewMatFromBytes(src.Height, src.Width, gocv.MatTypeCV8UC4, src.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap image: %w", err)
	}
	defer in.Close()

	transformMat := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer transformMat.Close()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			transformMat.SetDoubleAt(i, j, h[i][j])
		}
	}

	out := gocv.NewMat()
	defer out.Close()
	gocv.WarpPerspectiveWithParams(in, &out, transformMat, image.Point{X: width, Y: height},
		gocv.InterpolationLinear, gocv.BorderConstant, colorutil.White)

	return raster.Wrap(width, height, out.ToBytes())
}

// WarpQuad maps quad onto a width x height page.
func WarpQuad(src *raster.Buffer, quad geometry.Quad, width, height int) (*raster.Buffer, error) {
	return Warp(src, homography.SolveCorners(quad, geometry.RectQuad(float64(width), float64(height))), width, height)
}

func toPoint2f(q geometry.Quad) []gocv.Point2f {
	pts := make([]gocv.Point2f, len(q))
	for i, p := range q {
		pts[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return pts
}
