// Package mvc locates points relative to an arbitrary simple polygon using
// mean-value (generalized barycentric) coordinates.
package mvc

import (
	"math"

	"doc-rectifier/internal/logging"
	"doc-rectifier/pkg/geometry"
)

const (
	// hitRadius is the distance within which the sample snaps to a vertex.
	hitRadius = 1e-6
	// minWeightSum is the total weight below which the polygon centroid is used.
	minWeightSum = 1e-10
)

// MapPoint computes the mean-value weights of (x, y) with respect to polygon
// and returns the weighted sum of the polygon vertices. The result lies in the
// polygon's own coordinate space and serves as a proxy sampling location.
//
// width and height are accepted for call compatibility and are not used.
func MapPoint(x, y, width, height float64, polygon []geometry.Point2D) geometry.Point2D {
	_, _ = width, height

	if len(polygon) < 3 {
		return geometry.Point2D{X: x, Y: y}
	}

	w, hit, sum := rawWeights(x, y, polygon)
	if hit >= 0 {
		return polygon[hit]
	}
	if sum < minWeightSum {
		logging.Logger().Debug("mvc: weight sum vanished, using centroid", "x", x, "y", y)
		return geometry.Centroid(polygon)
	}

	var out geometry.Point2D
	for i, v := range polygon {
		k := w[i] / sum
		out.X += v.X * k
		out.Y += v.Y * k
	}
	return out
}

// Weights returns the normalized mean-value weights of (x, y) for polygon,
// or nil when the polygon has fewer than three vertices. A vertex hit yields
// a one-hot vector; a vanishing sum yields uniform weights.
func Weights(x, y float64, polygon []geometry.Point2D) []float64 {
	n := len(polygon)
	if n < 3 {
		return nil
	}

	w, hit, sum := rawWeights(x, y, polygon)
	if hit >= 0 {
		out := make([]float64, n)
		out[hit] = 1
		return out
	}
	for i := range w {
		if sum < minWeightSum {
			w[i] = 1 / float64(n)
		} else {
			w[i] /= sum
		}
	}
	return w
}

// rawWeights returns the unnormalized tangent-half-angle weights and their sum.
// hit is the index of a vertex coinciding with (x, y), or -1.
func rawWeights(x, y float64, polygon []geometry.Point2D) (w []float64, hit int, sum float64) {
	n := len(polygon)
	dx := make([]float64, n)
	dy := make([]float64, n)
	r := make([]float64, n)
	for i, v := range polygon {
		dx[i] = v.X - x
		dy[i] = v.Y - y
		r[i] = math.Hypot(dx[i], dy[i])
		if r[i] < hitRadius {
			return nil, i, 0
		}
	}

	w = make([]float64, n)
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		next := (i + 1) % n

		// Clamped: rounding can push the cosine just outside [-1, 1].
		cosA := clamp((dx[i]*dx[next]+dy[i]*dy[next])/(r[i]*r[next]), -1, 1)
		cosB := clamp((dx[prev]*dx[i]+dy[prev]*dy[i])/(r[prev]*r[i]), -1, 1)

		w[i] = (math.Tan(math.Acos(cosA)*0.5) + math.Tan(math.Acos(cosB)*0.5)) / r[i]
		sum += w[i]
	}
	return w, -1, sum
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
