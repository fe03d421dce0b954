package geometry

import (
	"math"
	"sort"
)

// convexTolerance is the cross-product magnitude below which a turn is treated as straight.
const convexTolerance = 1e-10

// SortClockwise orders points by their angle around the centroid, ascending
// atan2. In image coordinates (y down) that is a clockwise walk starting from
// the left. Points with equal angles keep their input order.
func SortClockwise(points []Point2D) []Point2D {
	c := Centroid(points)
	type keyed struct {
		p     Point2D
		angle float64
	}
	ks := make([]keyed, len(points))
	for i, p := range points {
		ks[i] = keyed{p: p, angle: math.Atan2(p.Y-c.Y, p.X-c.X)}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].angle < ks[j].angle })

	out := make([]Point2D, len(ks))
	for i, k := range ks {
		out[i] = k.p
	}
	return out
}

// OrderFromTopLeft sorts points clockwise and rotates the sequence so that it
// starts at the point closest to the image origin.
func OrderFromTopLeft(points []Point2D) []Point2D {
	sorted := SortClockwise(points)
	if len(sorted) == 0 {
		return sorted
	}

	start := 0
	minDist := math.Inf(1)
	for i, p := range sorted {
		d := p.X*p.X + p.Y*p.Y
		if d < minDist {
			minDist = d
			start = i
		}
	}

	out := make([]Point2D, len(sorted))
	for i := range sorted {
		out[i] = sorted[(start+i)%len(sorted)]
	}
	return out
}

// QuadArea returns the absolute shoelace area of four points taken in order.
// Collinear or coincident corners give an area of (nearly) zero.
func QuadArea(points []Point2D) float64 {
	if len(points) > 4 {
		points = points[:4]
	}
	return PolygonArea(points)
}

// PolygonArea returns the absolute shoelace area of a polygon.
func PolygonArea(points []Point2D) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return math.Abs(sum) / 2
}

// IsConvex returns true if the polygon vertices form a convex polygon.
// Nearly straight turns are ignored; a bowtie is reported as non-convex.
func IsConvex(polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	var sign int

	for i := 0; i < n; i++ {
		p1 := polygon[i]
		p2 := polygon[(i+1)%n]
		p3 := polygon[(i+2)%n]

		cross := (p2.X-p1.X)*(p3.Y-p2.Y) - (p2.Y-p1.Y)*(p3.X-p2.X)
		if math.Abs(cross) <= convexTolerance {
			continue
		}

		currentSign := 1
		if cross < 0 {
			currentSign = -1
		}
		if sign == 0 {
			sign = currentSign
		} else if currentSign != sign {
			return false
		}
	}

	return true
}

// EdgeParameter returns the clamped projection parameter t of p onto the
// segment a-b, where t=0 is a and t=1 is b. A zero-length segment yields 0.5.
func EdgeParameter(p, a, b Point2D) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return 0.5
	}
	t := p.Sub(a).Dot(ab) / lenSq
	return math.Max(0, math.Min(1, t))
}

// PointToSegmentDistance returns the distance from p to the closest point of segment a-b.
func PointToSegmentDistance(p, a, b Point2D) float64 {
	ab := b.Sub(a)
	if ab.Dot(ab) == 0 {
		return p.Distance(a)
	}
	t := EdgeParameter(p, a, b)
	return p.Distance(a.Lerp(b, t))
}

// ConvexHull computes the convex hull of a set of points using Graham scan.
// Collinear boundary points are dropped.
func ConvexHull(points []Point2D) []Point2D {
	if len(points) < 3 {
		return points
	}

	// Make a copy to avoid modifying the input
	pts := make([]Point2D, len(points))
	copy(pts, points)

	// Find the point with lowest y (and leftmost if tied)
	lowest := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[lowest].Y ||
			(pts[i].Y == pts[lowest].Y && pts[i].X < pts[lowest].X) {
			lowest = i
		}
	}

	pts[0], pts[lowest] = pts[lowest], pts[0]
	pivot := pts[0]

	sorted := make([]Point2D, len(pts)-1)
	copy(sorted, pts[1:])
	sort.SliceStable(sorted, func(i, j int) bool {
		cross := crossProduct(pivot, sorted[i], sorted[j])
		if cross != 0 {
			return cross > 0
		}
		return distSq(pivot, sorted[i]) < distSq(pivot, sorted[j])
	})

	hull := []Point2D{pivot}
	for _, p := range sorted {
		for len(hull) > 1 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return hull
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// distSq computes the squared distance between two points.
func distSq(a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
