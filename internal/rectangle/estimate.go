// Package rectangle estimates the output rectangle and an intermediate quad
// for the mesh warp from a polygon of document points.
package rectangle

import (
	"math"
	"sort"

	"doc-rectifier/pkg/geometry"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minSide is the smallest width or height reported by the edge-averaging policies.
const minSide = 10

// Policy names the estimation rule that produced an Estimate.
type Policy string

const (
	PolicyQuad       Policy = "quad"
	PolicyBent       Policy = "bent-document"
	PolicyPointCloud Policy = "pca-box"
)

// Estimate is the output size and the four intermediate mesh corners
// (TL, TR, BR, BL) between the destination rectangle and the source polygon.
type Estimate struct {
	Width   float64
	Height  float64
	Corners geometry.Quad
	Policy  Policy
}

// EstimateFor dispatches on the number of points: four points are averaged as a
// quad, six points are treated as a bent page, anything else gets a PCA box.
// Points are expected in clockwise order.
func EstimateFor(points []geometry.Point2D) Estimate {
	switch len(points) {
	case 4:
		return FromQuad(points)
	case 6:
		return FromBentDocument(points)
	default:
		return FromPointCloud(points)
	}
}

// FromQuad averages opposite edge lengths and keeps the input as mesh corners.
func FromQuad(points []geometry.Point2D) Estimate {
	var q geometry.Quad
	copy(q[:], points)

	var edges [4]float64
	for i := range edges {
		a, b := q.Edge(i)
		edges[i] = a.Distance(b)
	}
	return Estimate{
		Width:   math.Max((edges[0]+edges[2])/2, minSide),
		Height:  math.Max((edges[1]+edges[3])/2, minSide),
		Corners: q,
		Policy:  PolicyQuad,
	}
}

// FromBentDocument keeps the four points farthest from the centroid as
// corners, restores their input order, sorts them clockwise and averages
// both pairs of opposite edges.
func FromBentDocument(points []geometry.Point2D) Estimate {
	c := geometry.Centroid(points)

	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return points[idx[a]].Distance(c) > points[idx[b]].Distance(c)
	})
	top := append([]int(nil), idx[:4]...)
	sort.Ints(top)

	chosen := make([]geometry.Point2D, 4)
	for i, k := range top {
		chosen[i] = points[k]
	}
	ordered := geometry.SortClockwise(chosen)

	var q geometry.Quad
	copy(q[:], ordered)

	w1 := q[1].Distance(q[0])
	w2 := q[2].Distance(q[3])
	h1 := q[3].Distance(q[0])
	h2 := q[2].Distance(q[1])

	return Estimate{
		Width:   math.Max((w1+w2)/2, minSide),
		Height:  math.Max((h1+h2)/2, minSide),
		Corners: q,
		Policy:  PolicyBent,
	}
}

// FromPointCloud fits an oriented bounding box along the principal axis of
// the points. The box corners are returned TL, TR, BR, BL in the rotated frame.
func FromPointCloud(points []geometry.Point2D) Estimate {
	if len(points) == 0 {
		return Estimate{Policy: PolicyPointCloud}
	}
	c := geometry.Centroid(points)
	angle := PrincipalAngle(points)

	// back maps the rotated frame into image space; fwd is its inverse.
	back := geometry.Translation(c.X, c.Y).Compose(geometry.Rotation(angle))
	fwd, _ := back.Inverse()

	rotated := make([]geometry.Point2D, len(points))
	for i, p := range points {
		rotated[i] = fwd.Apply(p)
	}
	box := geometry.BoundingBox(rotated)

	var q geometry.Quad
	for i, p := range []geometry.Point2D{
		{X: box.X, Y: box.Y},
		{X: box.X + box.Width, Y: box.Y},
		{X: box.X + box.Width, Y: box.Y + box.Height},
		{X: box.X, Y: box.Y + box.Height},
	} {
		q[i] = back.Apply(p)
	}

	return Estimate{
		Width:   box.Width,
		Height:  box.Height,
		Corners: q,
		Policy:  PolicyPointCloud,
	}
}

// PrincipalAngle returns 0.5*atan2(2*sxy, sxx-syy) from the covariance of the
// points, the orientation of their major axis in radians.
func PrincipalAngle(points []geometry.Point2D) float64 {
	if len(points) < 2 {
		return 0
	}
	data := mat.NewDense(len(points), 2, nil)
	for i, p := range points {
		data.Set(i, 0, p.X)
		data.Set(i, 1, p.Y)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)
	return 0.5 * math.Atan2(2*cov.At(0, 1), cov.At(0, 0)-cov.At(1, 1))
}
