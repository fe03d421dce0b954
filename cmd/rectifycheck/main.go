// Command rectifycheck prints the intermediate geometry of a correction:
// point ordering, corner selection, edge constraints and homography residuals.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"doc-rectifier/internal/corners"
	"doc-rectifier/internal/cvwarp"
	"doc-rectifier/internal/homography"
	"doc-rectifier/internal/mvc"
	"doc-rectifier/internal/raster"
	"doc-rectifier/internal/rectangle"
	"doc-rectifier/internal/rectify"
	"doc-rectifier/pkg/geometry"
)

func main() {
	pointsArg := flag.String("points", "", "Polygon as x,y;x,y;... (4 or more)")
	imagePath := flag.String("image", "", "Optional page; runs the full correction and reports timing")
	compareCV := flag.Bool("cv", false, "With -image, compare the 4-corner warp against OpenCV")
	flag.Parse()

	pts, err := geometry.ParsePoints(*pointsArg)
	if err != nil || len(pts) < rectify.MinPoints {
		fmt.Println("Usage: rectifycheck -points x,y;x,y;x,y;x,y[;...] [-image page] [-cv]")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid points: %v\n", err)
		}
		os.Exit(1)
	}

	ordered := geometry.OrderFromTopLeft(pts)
	fmt.Printf("=== Ordering ===\n")
	for i, p := range ordered {
		fmt.Printf("  %d: (%.1f, %.1f)\n", i, p.X, p.Y)
	}
	fmt.Printf("Convex: %v  Area: %.1f px²\n", geometry.IsConvex(ordered), geometry.PolygonArea(ordered))

	fmt.Printf("\n=== Mesh estimate ===\n")
	est := rectangle.EstimateFor(geometry.SortClockwise(pts))
	fmt.Printf("Policy: %s  Size: %.1f x %.1f\n", est.Policy, est.Width, est.Height)

	fmt.Printf("\n=== Corner selection ===\n")
	sel := corners.SelectCorners(ordered)
	fmt.Printf("Corners: %v  Excluded: %v  Area: %.1f px²  Trials: %d\n",
		sel.CornerIndex, sel.Excluded, sel.Area, sel.Trials)

	w, h := quadSize(sel.Corners)
	rect := geometry.RectQuad(w, h)
	fwd := homography.SolveNullSpace(sel.Corners, rect)
	exact := homography.SolveCorners(sel.Corners, rect)
	fmt.Printf("Output: %.0f x %.0f\n", w, h)
	fmt.Printf("Residual (null space): %.2e px\n", fwd.Residual(sel.Corners.Points(), rect.Points()))
	fmt.Printf("Residual (h33 = 1):    %.2e px\n", exact.Residual(sel.Corners.Points(), rect.Points()))
	fmt.Printf("Round trip error:      %.2e px\n", roundTrip(fwd, sel.Corners))

	constraints := corners.BuildConstraints(ordered, sel, w, h)
	if len(constraints) > 0 {
		fmt.Printf("\nEdge constraints:\n")
		for _, c := range constraints {
			fmt.Printf("  (%.1f, %.1f) -> edge %d t=%.3f dst=(%.1f, %.1f) off-edge %.1f px\n",
				c.Src.X, c.Src.Y, c.Edge, c.Param, c.Dst.X, c.Dst.Y, c.Distance)
		}

		src, dst := destinations(ordered, sel, constraints, rect)
		fmt.Printf("Corner homography over all points:  residual %.2f px\n", fwd.Residual(src, dst))
		if ls, err := homography.SolveLeastSquares(src, dst); err == nil {
			fmt.Printf("Least squares fit over all points:  residual %.2f px\n", ls.Residual(src, dst))
		}
	}

	fmt.Printf("\nMVC weights at the mesh center:\n")
	clockwise := geometry.SortClockwise(pts)
	center := geometry.Centroid(clockwise)
	for i, w := range mvc.Weights(center.X, center.Y, clockwise) {
		fmt.Printf("  (%.1f, %.1f) %.4f\n", clockwise[i].X, clockwise[i].Y, w)
	}

	if *imagePath == "" {
		return
	}

	src, err := raster.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n=== Correction (%dx%d source) ===\n", src.Buffer.Width, src.Buffer.Height)
	for _, s := range rectify.Strategies() {
		opts := rectify.DefaultOptions()
		opts.Strategy = s
		res, err := rectify.Correct(src.Buffer, pts, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", s, err)
			continue
		}
		fmt.Printf("%-24s %-24s %5dx%-5d %s\n", s, res.Metadata.Method, res.Width, res.Height, res.Metadata.Elapsed)
	}

	if *compareCV {
		compareWithOpenCV(src.Buffer, sel.Corners, int(w), int(h))
	}
}

// compareWithOpenCV warps the selected quad with both implementations and
// reports the mean absolute channel difference.
func compareWithOpenCV(src *raster.Buffer, quad geometry.Quad, w, h int) {
	fmt.Printf("\n=== OpenCV comparison ===\n")
	cvH := cvwarp.Transform(quad, w, h).Normalize()
	ours := homography.SolveCorners(quad, geometry.RectQuad(float64(w), float64(h)))
	var maxDiff float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			maxDiff = math.Max(maxDiff, math.Abs(cvH[i][j]-ours[i][j]))
		}
	}
	fmt.Printf("Max matrix entry difference: %.2e\n", maxDiff)

	cv, err := cvwarp.Warp(src, ours, w, h)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenCV warp failed: %v\n", err)
		return
	}
	inv := ours.Inverse()
	var total float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			a := src.Bilinear(p.X, p.Y)
			b := cv.At(x, y)
			total += math.Abs(float64(a.R)-float64(b.R)) +
				math.Abs(float64(a.G)-float64(b.G)) +
				math.Abs(float64(a.B)-float64(b.B))
		}
	}
	fmt.Printf("Mean channel difference vs OpenCV: %.3f\n", total/float64(3*w*h))
}

func quadSize(q geometry.Quad) (float64, float64) {
	w := math.Round((q[0].Distance(q[1]) + q[2].Distance(q[3])) / 2)
	h := math.Round((q[1].Distance(q[2]) + q[3].Distance(q[0])) / 2)
	return math.Max(10, w), math.Max(10, h)
}

func roundTrip(m homography.Matrix, q geometry.Quad) float64 {
	inv := m.Inverse()
	var worst float64
	for _, p := range q {
		worst = math.Max(worst, inv.Apply(m.Apply(p)).Distance(p))
	}
	return worst
}

// destinations pairs every ordered point with where the rectangle wants it:
// chosen corners go to the rectangle corners, leftovers to their edge positions.
func destinations(points []geometry.Point2D, sel corners.Selection, constraints []corners.EdgeConstraint, rect geometry.Quad) ([]geometry.Point2D, []geometry.Point2D) {
	var src, dst []geometry.Point2D
	for k, i := range sel.CornerIndex {
		src = append(src, points[i])
		dst = append(dst, rect[k])
	}
	for _, c := range constraints {
		src = append(src, c.Src)
		dst = append(dst, c.Dst)
	}
	return src, dst
}
