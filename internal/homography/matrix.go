// Package homography estimates and applies 3x3 projective transforms between
// planes from point correspondences.
package homography

import (
	"math"

	"doc-rectifier/internal/logging"
	"doc-rectifier/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

const (
	// singularDet is the determinant magnitude below which a matrix is not inverted.
	singularDet = 1e-10
	// minW is the homogeneous w magnitude below which Apply returns its input.
	minW = 1e-10
)

// Matrix is a 3x3 homography, row-major, defined up to scale.
type Matrix [3][3]float64

// Identity returns the identity homography.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// FromVector builds a matrix from the nine entries h11..h33.
func FromVector(h [9]float64) Matrix {
	return Matrix{
		{h[0], h[1], h[2]},
		{h[3], h[4], h[5]},
		{h[6], h[7], h[8]},
	}
}

// Vector returns the nine entries in row-major order.
func (m Matrix) Vector() [9]float64 {
	return [9]float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	}
}

// Apply maps p through the homography with a projective divide.
// If the homogeneous w is nearly zero, p is returned unchanged.
func (m Matrix) Apply(p geometry.Point2D) geometry.Point2D {
	w := m[2][0]*p.X + m[2][1]*p.Y + m[2][2]
	if math.Abs(w) < minW {
		return p
	}
	return geometry.Point2D{
		X: (m[0][0]*p.X + m[0][1]*p.Y + m[0][2]) / w,
		Y: (m[1][0]*p.X + m[1][1]*p.Y + m[1][2]) / w,
	}
}

// Det returns the determinant.
func (m Matrix) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Inverse returns the closed-form cofactor inverse. The singularity test runs
// on the h33 = 1 form, so the result does not depend on the scale the solver
// left the matrix in. A nearly singular matrix yields the identity so that
// callers degrade to an unwarped passthrough.
func (m Matrix) Inverse() Matrix {
	s := 1.0
	if math.Abs(m[2][2]) >= minW {
		s = m[2][2]
	}
	n := m.Scale(1 / s)
	det := n.Det()
	if math.Abs(det) < singularDet {
		logging.Logger().Debug("homography: singular matrix, using identity", "det", det)
		return Identity()
	}
	// inv(m) = inv(n) / s
	inv := 1 / (det * s)
	return Matrix{
		{
			(n[1][1]*n[2][2] - n[1][2]*n[2][1]) * inv,
			(n[0][2]*n[2][1] - n[0][1]*n[2][2]) * inv,
			(n[0][1]*n[1][2] - n[0][2]*n[1][1]) * inv,
		},
		{
			(n[1][2]*n[2][0] - n[1][0]*n[2][2]) * inv,
			(n[0][0]*n[2][2] - n[0][2]*n[2][0]) * inv,
			(n[0][2]*n[1][0] - n[0][0]*n[1][2]) * inv,
		},
		{
			(n[1][0]*n[2][1] - n[1][1]*n[2][0]) * inv,
			(n[0][1]*n[2][0] - n[0][0]*n[2][1]) * inv,
			(n[0][0]*n[1][1] - n[0][1]*n[1][0]) * inv,
		},
	}
}

// Scale multiplies every entry by f. The homography it describes is unchanged.
func (m Matrix) Scale(f float64) Matrix {
	var out Matrix
	for i := range m {
		for j := range m[i] {
			out[i][j] = m[i][j] * f
		}
	}
	return out
}

// Mul returns m * other, so that (m*other).Apply(p) == m.Apply(other.Apply(p)).
func (m Matrix) Mul(other Matrix) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += m[i][k] * other[k][j]
			}
		}
	}
	return out
}

// Normalize scales the matrix so that h33 is 1. Matrices with h33 near zero are returned as is.
func (m Matrix) Normalize() Matrix {
	if math.Abs(m[2][2]) < minW {
		return m
	}
	return m.Scale(1 / m[2][2])
}

// Dense returns the matrix as a gonum Dense.
func (m Matrix) Dense() *mat.Dense {
	v := m.Vector()
	return mat.NewDense(3, 3, v[:])
}

// Residual returns the mean reprojection error of src mapped onto dst.
func (m Matrix) Residual(src, dst []geometry.Point2D) float64 {
	n := min(len(src), len(dst))
	if n == 0 {
		return math.Inf(1)
	}
	var total float64
	for i := 0; i < n; i++ {
		total += m.Apply(src[i]).Distance(dst[i])
	}
	return total / float64(n)
}
