// Package geometry provides basic geometric types used throughout the rectifier.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Dot returns the dot product of p and other treated as vectors.
func (p Point2D) Dot(other Point2D) float64 {
	return p.X*other.X + p.Y*other.Y
}

// Lerp interpolates between p (t=0) and other (t=1).
func (p Point2D) Lerp(other Point2D, t float64) Point2D {
	return Point2D{X: p.X + (other.X-p.X)*t, Y: p.Y + (other.Y-p.Y)*t}
}

// Quad is four points ordered top-left, top-right, bottom-right, bottom-left.
type Quad [4]Point2D

// Points returns the quad corners as a slice.
func (q Quad) Points() []Point2D {
	return []Point2D{q[0], q[1], q[2], q[3]}
}

// Area returns the absolute shoelace area of the quad.
func (q Quad) Area() float64 {
	return QuadArea(q[:])
}

// Edge returns the endpoints of edge i (0=top, 1=right, 2=bottom, 3=left).
func (q Quad) Edge(i int) (Point2D, Point2D) {
	return q[i%4], q[(i+1)%4]
}

// RectQuad returns the quad of an axis-aligned rectangle anchored at the origin.
func RectQuad(width, height float64) Quad {
	return Quad{
		{X: 0, Y: 0},
		{X: width, Y: 0},
		{X: width, Y: height},
		{X: 0, Y: height},
	}
}

// Rect is an axis-aligned box with its origin at the top-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Centroid is the mean of points, or the origin for an empty set.
func Centroid(points []Point2D) Point2D {
	var sum Point2D
	for _, p := range points {
		sum = sum.Add(p)
	}
	if len(points) == 0 {
		return sum
	}
	n := float64(len(points))
	return Point2D{X: sum.X / n, Y: sum.Y / n}
}

// BoundingBox is the smallest Rect containing every point.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = Point2D{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y)}
		hi = Point2D{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y)}
	}
	return Rect{X: lo.X, Y: lo.Y, Width: hi.X - lo.X, Height: hi.Y - lo.Y}
}
