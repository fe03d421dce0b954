package rectify

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"runtime/debug"
	"time"

	"doc-rectifier/internal/corners"
	"doc-rectifier/internal/homography"
	"doc-rectifier/internal/logging"
	"doc-rectifier/internal/mvc"
	"doc-rectifier/internal/raster"
	"doc-rectifier/internal/rectangle"
	"doc-rectifier/internal/status"
	"doc-rectifier/pkg/geometry"
)

// minOutputSide is the smallest width or height of the perspective and
// constrained outputs.
const minOutputSide = 10

// Correct rectifies the region of src outlined by points.
//
// Points are first put in top-left-first clockwise order. Four points take
// the bounding-box perspective warp unless opts.ForceStrategy is set; larger
// polygons run opts.Strategy. Failures are reported to opts.Sink with Error
// severity as well as returned. Correct never panics.
func Correct(src *raster.Buffer, points []geometry.Point2D, opts Options) (res *Result, err error) {
	opts = opts.withDefaults()
	sink := opts.Sink
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error("rectify: panic", "panic", r, "stack", string(debug.Stack()))
			res = nil
			err = fmt.Errorf("correction failed: %v", r)
		}
		if err != nil {
			sink.Report(status.Error, errorMessage(err))
		}
	}()

	if len(points) < MinPoints {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientPoints, len(points))
	}
	if src == nil || src.Width == 0 || src.Height == 0 {
		return nil, errors.New("source image is empty")
	}

	ordered := geometry.OrderFromTopLeft(points)
	logging.Logger().Debug("rectify: start",
		"points", len(ordered), "strategy", opts.Strategy, "source", fmt.Sprintf("%dx%d", src.Width, src.Height))

	strategy := opts.Strategy
	switch {
	case len(ordered) == 4 && !opts.ForceStrategy:
		res, err = perspective(src, ordered, opts)
	case strategy == MeshMVC:
		res, err = meshWarp(src, ordered, opts)
	case strategy == HomographyConstrained:
		res, err = constrainedHomography(src, ordered, opts)
	default:
		_, err = ParseStrategy(string(strategy))
	}
	if err != nil {
		return nil, err
	}

	res.Metadata.Strategy = strategy
	res.Metadata.Elapsed = time.Since(start)
	logging.Logger().Info("rectify: done",
		"method", res.Metadata.Method, "size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"elapsed", res.Metadata.Elapsed)
	return res, nil
}

func errorMessage(err error) string {
	if errors.Is(err, ErrInsufficientPoints) {
		return "Please select at least 4 points for perspective correction."
	}
	return "Error: " + err.Error()
}

// perspective maps a bounding-box-sized rectangle onto the quad with a single
// homography and nearest-neighbor sampling.
func perspective(src *raster.Buffer, quad []geometry.Point2D, opts Options) (*Result, error) {
	bb := geometry.BoundingBox(quad)
	w := max(minOutputSide, int(math.Round(bb.Width)))
	h := max(minOutputSide, int(math.Round(bb.Height)))

	var q geometry.Quad
	copy(q[:], quad)
	m := homography.SolveCorners(geometry.RectQuad(float64(w), float64(h)), q)

	dst := raster.NewBuffer(w, h)
	prog := newProgress(opts.Sink, opts.progressEvery(HomographyProgressEvery), w*h)
	err := render(dst, opts.Workers, prog, func(x, y int) color.RGBA {
		p := m.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
		return src.Nearest(p.X, p.Y)
	})
	if err != nil {
		return nil, err
	}

	opts.Sink.Report(status.Success,
		fmt.Sprintf("Perspective correction applied! Corrected area: %d×%d pixels.", w, h))

	return &Result{
		Raster:        dst,
		Width:         w,
		Height:        h,
		OrderedPoints: quad,
		CornerPoints:  q.Points(),
		Metadata: Metadata{
			Method:   MethodPerspective,
			IsConvex: geometry.IsConvex(quad),
			OffsetX:  bb.X,
			OffsetY:  bb.Y,
		},
	}, nil
}

// meshWarp maps each output pixel bilinearly into the estimated quad and from
// there onto the polygon with mean value coordinates.
func meshWarp(src *raster.Buffer, points []geometry.Point2D, opts Options) (*Result, error) {
	pts := geometry.SortClockwise(points)
	est := rectangle.EstimateFor(pts)
	w := max(1, int(math.Round(est.Width)))
	h := max(1, int(math.Round(est.Height)))
	c := est.Corners
	logging.Logger().Debug("rectify: mesh estimate", "policy", est.Policy, "width", est.Width, "height", est.Height)

	dst := raster.NewBuffer(w, h)
	prog := newProgress(opts.Sink, opts.progressEvery(MeshProgressEvery), w*h)
	err := render(dst, opts.Workers, prog, func(x, y int) color.RGBA {
		u := unit(x, w)
		v := unit(y, h)
		px := (1-u)*(1-v)*c[0].X + u*(1-v)*c[1].X + u*v*c[2].X + (1-u)*v*c[3].X
		py := (1-u)*(1-v)*c[0].Y + u*(1-v)*c[1].Y + u*v*c[2].Y + (1-u)*v*c[3].Y
		s := mvc.MapPoint(px, py, 0, 0, pts)
		return src.Bilinear(s.X, s.Y)
	})
	if err != nil {
		return nil, err
	}

	if opts.Sharpen {
		raster.SharpenLaplacian(dst, opts.LaplacianStrength)
	}
	opts.Sink.Report(status.Success, fmt.Sprintf("Document correction applied (%d×%d)", w, h))

	return &Result{
		Raster:        dst,
		Width:         w,
		Height:        h,
		OrderedPoints: pts,
		CornerPoints:  c.Points(),
		Metadata: Metadata{
			Method:   MethodDocumentWarp,
			IsConvex: geometry.IsConvex(pts),
		},
	}, nil
}

// unit maps i in [0, n) to [0, 1]; a single pixel sits at 0.5.
func unit(i, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	return float64(i) / float64(n-1)
}

// constrainedHomography fits a homography to the largest-area quad and pulls
// the leftover points onto the nearest rectangle edge.
func constrainedHomography(src *raster.Buffer, points []geometry.Point2D, opts Options) (*Result, error) {
	sel := corners.SelectCorners(points)
	q := sel.Corners

	top, right := q[0].Distance(q[1]), q[1].Distance(q[2])
	bottom, left := q[2].Distance(q[3]), q[3].Distance(q[0])
	w := max(minOutputSide, int(math.Round((top+bottom)/2)))
	h := max(minOutputSide, int(math.Round((left+right)/2)))
	fw, fh := float64(w), float64(h)

	fwd := homography.SolveNullSpace(q, geometry.RectQuad(fw, fh))
	inv := fwd.Inverse()
	constraints := corners.BuildConstraints(points, sel, fw, fh)
	logging.Logger().Debug("rectify: corner selection",
		"corners", sel.CornerIndex, "excluded", sel.Excluded, "area", sel.Area,
		"trials", sel.Trials, "constraints", len(constraints))

	dst := raster.NewBuffer(w, h)
	prog := newProgress(opts.Sink, opts.progressEvery(HomographyProgressEvery), w*h)
	err := render(dst, opts.Workers, prog, func(x, y int) color.RGBA {
		s := corners.ApplyConstrainedMapping(float64(x), float64(y), inv, fwd, constraints, fw, fh)
		return src.Bilinear(s.X, s.Y)
	})
	if err != nil {
		return nil, err
	}

	if opts.Sharpen {
		raster.SharpenUnsharp(dst, opts.UnsharpStrength)
	}
	opts.Sink.Report(status.Success,
		fmt.Sprintf("Constrained correction applied (%d×%d, %d edge constraints)", w, h, len(constraints)))

	return &Result{
		Raster:        dst,
		Width:         w,
		Height:        h,
		OrderedPoints: points,
		CornerPoints:  q.Points(),
		Constraints:   constraints,
		Metadata: Metadata{
			Method:   MethodConstrainedHomography,
			IsConvex: geometry.IsConvex(points),
		},
	}, nil
}
