// Package corners picks the four document corners out of a larger point set
// and turns the remaining points into edge constraints.
package corners

import (
	"doc-rectifier/pkg/geometry"

	"gonum.org/v1/gonum/stat/combin"
)

// MaxExhaustive is the largest point count searched over every 4-combination.
// Larger sets are first reduced to their convex hull.
const MaxExhaustive = 12

// Selection is the result of corner selection.
type Selection struct {
	Corners     geometry.Quad // in the relative order of the input
	CornerIndex [4]int        // indices into the input slice
	Excluded    []int         // input indices not chosen, ascending
	Area        float64
	Trials      int // number of candidate quads evaluated
}

// SelectCorners chooses the four points spanning the largest quadrilateral.
// Candidates keep their relative input order, so the input should already be
// ordered around the polygon. On exact ties the first candidate found wins.
//
//   - n == 4: the input itself
//   - n == 5: leave-one-out, excluding index 0..4 in turn
//   - n == 6: exclude every pair (i < j) in lexicographic order
//   - otherwise: every 4-combination in lexicographic order
//
// Sets larger than MaxExhaustive are searched over hull vertices only.
func SelectCorners(points []geometry.Point2D) Selection {
	n := len(points)
	switch {
	case n < 4:
		return Selection{}
	case n == 4:
		return newSelection(points, [4]int{0, 1, 2, 3}, 1)
	case n == 5:
		return leaveOneOut(points)
	case n == 6:
		return leaveTwoOut(points)
	case n > MaxExhaustive:
		return hullSearch(points)
	default:
		return exhaustive(points, allIndices(n))
	}
}

func leaveOneOut(points []geometry.Point2D) Selection {
	best := Selection{Area: -1}
	trials := 0
	for skip := 0; skip < 5; skip++ {
		var idx [4]int
		k := 0
		for i := 0; i < 5; i++ {
			if i != skip {
				idx[k] = i
				k++
			}
		}
		trials++
		best = keepLarger(best, points, idx)
	}
	best.Trials = trials
	return best
}

func leaveTwoOut(points []geometry.Point2D) Selection {
	best := Selection{Area: -1}
	trials := 0
	for a := 0; a < 6; a++ {
		for b := a + 1; b < 6; b++ {
			var idx [4]int
			k := 0
			for i := 0; i < 6; i++ {
				if i != a && i != b {
					idx[k] = i
					k++
				}
			}
			trials++
			best = keepLarger(best, points, idx)
		}
	}
	best.Trials = trials
	return best
}

// exhaustive evaluates every 4-combination of the candidate indices.
func exhaustive(points []geometry.Point2D, candidates []int) Selection {
	best := Selection{Area: -1}
	trials := 0
	gen := combin.NewCombinationGenerator(len(candidates), 4)
	combo := make([]int, 4)
	for gen.Next() {
		gen.Combination(combo)
		idx := [4]int{candidates[combo[0]], candidates[combo[1]], candidates[combo[2]], candidates[combo[3]]}
		trials++
		best = keepLarger(best, points, idx)
	}
	best.Trials = trials
	return best
}

// hullSearch restricts the exhaustive search to convex hull vertices. The
// largest inscribed quadrilateral always has its corners on the hull.
func hullSearch(points []geometry.Point2D) Selection {
	hull := geometry.ConvexHull(points)
	onHull := make(map[geometry.Point2D]bool, len(hull))
	for _, p := range hull {
		onHull[p] = true
	}
	var candidates []int
	for i, p := range points {
		if onHull[p] {
			candidates = append(candidates, i)
			delete(onHull, p)
		}
	}
	if len(candidates) < 4 {
		candidates = allIndices(len(points))
	}
	return exhaustive(points, candidates)
}

func keepLarger(best Selection, points []geometry.Point2D, idx [4]int) Selection {
	quad := []geometry.Point2D{points[idx[0]], points[idx[1]], points[idx[2]], points[idx[3]]}
	area := geometry.QuadArea(quad)
	if area > best.Area {
		return newSelection(points, idx, 0)
	}
	return best
}

func newSelection(points []geometry.Point2D, idx [4]int, trials int) Selection {
	sel := Selection{CornerIndex: idx, Trials: trials}
	chosen := make(map[int]bool, 4)
	for k, i := range idx {
		sel.Corners[k] = points[i]
		chosen[i] = true
	}
	for i := range points {
		if !chosen[i] {
			sel.Excluded = append(sel.Excluded, i)
		}
	}
	sel.Area = sel.Corners.Area()
	return sel
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
