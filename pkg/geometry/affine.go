package geometry

import "math"

// AffineTransform maps (x, y) to (A·x + B·y + TX, C·x + D·y + TY). It rotates
// point clouds into and out of their principal frame.
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Translation moves points by (tx, ty).
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// Rotation turns points about the origin, from +X toward +Y.
func Rotation(radians float64) AffineTransform {
	sin, cos := math.Sincos(radians)
	return AffineTransform{A: cos, B: -sin, C: sin, D: cos}
}

func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns t after other: t.Compose(o).Apply(p) == t.Apply(o.Apply(p)).
func (t AffineTransform) Compose(o AffineTransform) AffineTransform {
	return AffineTransform{
		A: t.A*o.A + t.B*o.C, B: t.A*o.B + t.B*o.D, TX: t.A*o.TX + t.B*o.TY + t.TX,
		C: t.C*o.A + t.D*o.C, D: t.C*o.B + t.D*o.D, TY: t.C*o.TX + t.D*o.TY + t.TY,
	}
}

// Inverse reports false when the linear part is singular.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-10 {
		return AffineTransform{}, false
	}
	a, b, c, d := t.D/det, -t.B/det, -t.C/det, t.A/det
	return AffineTransform{
		A: a, B: b, TX: -(a*t.TX + b*t.TY),
		C: c, D: d, TY: -(c*t.TX + d*t.TY),
	}, true
}
