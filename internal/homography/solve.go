package homography

import (
	"fmt"
	"math"

	"doc-rectifier/internal/logging"
	"doc-rectifier/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// pivotEpsilon is the smallest pivot magnitude accepted during elimination.
const pivotEpsilon = 1e-12

// SolveCorners computes the homography mapping src[i] to dst[i] by solving the
// 8x8 system A*h = b for h11..h32 with h33 fixed to 1. Gaussian elimination
// with partial pivoting is used; a vanishing pivot yields the identity.
func SolveCorners(src, dst geometry.Quad) Matrix {
	var a [8][9]float64 // augmented [A | b]
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		r := 2 * i
		a[r] = [9]float64{x, y, 1, 0, 0, 0, -u * x, -u * y, u}
		a[r+1] = [9]float64{0, 0, 0, x, y, 1, -v * x, -v * y, v}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < pivotEpsilon {
			logging.Logger().Debug("homography: degenerate corner system", "column", col)
			return Identity()
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < 8; r++ {
			f := a[r][col] / a[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	var h [9]float64
	for i := 7; i >= 0; i-- {
		s := a[i][8]
		for j := i + 1; j < 8; j++ {
			s -= a[i][j] * h[j]
		}
		h[i] = s / a[i][i]
	}
	h[8] = 1

	return FromVector(h)
}

// dltRows returns the homogeneous 8x9 DLT system for four correspondences.
func dltRows(src, dst geometry.Quad) [8][9]float64 {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -u * x, -u * y, -u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -v * x, -v * y, -v}
	}
	return a
}

// SolveNullSpace computes the homography mapping src[i] to dst[i] as the null
// space of the homogeneous 8x9 DLT system. The system is reduced to row-echelon
// form with partial pivoting, the first non-pivot column is fixed to 1, and the
// pivot variables are back-substituted. The result is scaled so that its
// largest-magnitude entry has magnitude 1.
//
// Nearly collinear correspondences can drop the rank below 8; the first free
// column is still chosen, which may not be the geometrically meaningful one.
func SolveNullSpace(src, dst geometry.Quad) Matrix {
	return FromVector(nullVector(dltRows(src, dst)))
}

func nullVector(a [8][9]float64) [9]float64 {
	var pivotCols []int
	row := 0
	for col := 0; col < 9 && row < 8; col++ {
		pivot := row
		for r := row + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < pivotEpsilon {
			continue
		}
		a[row], a[pivot] = a[pivot], a[row]

		for r := row + 1; r < 8; r++ {
			f := a[r][col] / a[row][col]
			if f == 0 {
				continue
			}
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[row][c]
			}
		}
		pivotCols = append(pivotCols, col)
		row++
	}

	isPivot := [9]bool{}
	for _, c := range pivotCols {
		isPivot[c] = true
	}
	free := -1
	for c := 0; c < 9; c++ {
		if !isPivot[c] {
			free = c
			break
		}
	}

	var h [9]float64
	if free < 0 {
		h[8] = 1
		return h
	}
	if len(pivotCols) < 8 {
		logging.Logger().Debug("homography: rank-deficient DLT system", "rank", len(pivotCols), "free", free)
	}
	h[free] = 1

	for r := len(pivotCols) - 1; r >= 0; r-- {
		c := pivotCols[r]
		s := 0.0
		for j := c + 1; j < 9; j++ {
			s += a[r][j] * h[j]
		}
		h[c] = -s / a[r][c]
	}

	maxAbs := 0.0
	for _, v := range h {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	if maxAbs > 0 {
		for i := range h {
			h[i] /= maxAbs
		}
	}
	return h
}

// SolveLeastSquares fits a homography with h33 = 1 to four or more
// correspondences by solving the over-determined DLT system with a QR
// decomposition.
func SolveLeastSquares(src, dst []geometry.Point2D) (Matrix, error) {
	if len(src) != len(dst) {
		return Identity(), fmt.Errorf("point count mismatch: %d vs %d", len(src), len(dst))
	}
	n := len(src)
	if n < 4 {
		return Identity(), fmt.Errorf("need at least 4 points, got %d", n)
	}

	A := mat.NewDense(n*2, 8, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -u*x)
		A.Set(i*2, 7, -u*y)
		B.SetVec(i*2, u)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -v*x)
		A.Set(i*2+1, 7, -v*y)
		B.SetVec(i*2+1, v)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return Identity(), fmt.Errorf("least squares solve failed: %w", err)
	}

	var h [9]float64
	for i := 0; i < 8; i++ {
		h[i] = params.AtVec(i)
	}
	h[8] = 1
	return FromVector(h), nil
}
