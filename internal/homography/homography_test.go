package homography

import (
	"math"
	"testing"

	"doc-rectifier/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var (
	skewed = geometry.Quad{{X: 12, Y: 8}, {X: 210, Y: 25}, {X: 190, Y: 160}, {X: 30, Y: 140}}
	target = geometry.RectQuad(200, 150)
)

func assertPointNear(t *testing.T, want, got geometry.Point2D, tol float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x of %v", want)
	assert.InDelta(t, want.Y, got.Y, tol, "y of %v", want)
}

func TestSolvers_MapCorners(t *testing.T) {
	solvers := map[string]func(src, dst geometry.Quad) Matrix{
		"corners":    SolveCorners,
		"null space": SolveNullSpace,
	}
	for name, solve := range solvers {
		t.Run(name, func(t *testing.T) {
			h := solve(skewed, target)
			for i := range skewed {
				assertPointNear(t, target[i], h.Apply(skewed[i]), 1e-6)
			}
		})
	}
}

func TestSolvers_Agree(t *testing.T) {
	a := SolveCorners(skewed, target)
	b := SolveNullSpace(skewed, target).Normalize()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, a[i][j], b[i][j], 1e-9, "entry %d,%d", i, j)
		}
	}
}

func TestNullSpace_MaxAbsNormalized(t *testing.T) {
	h := SolveNullSpace(skewed, target).Vector()
	maxAbs := 0.0
	for _, v := range h {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	assert.InDelta(t, 1.0, maxAbs, 1e-12)
}

func TestRoundTrip_InteriorPoints(t *testing.T) {
	fwd := SolveNullSpace(skewed, target)
	inv := fwd.Inverse()
	for _, p := range []geometry.Point2D{{X: 50, Y: 50}, {X: 100, Y: 80}, {X: 150, Y: 120}, {X: 40, Y: 130}, {X: 180, Y: 40}} {
		assertPointNear(t, p, inv.Apply(fwd.Apply(p)), 1e-6)
	}
}

func TestRoundTrip_FarFromOrigin(t *testing.T) {
	page := geometry.RectQuad(920, 1190)
	for _, off := range []float64{0, 1500, 3000, 8000} {
		src := geometry.Quad{
			{X: off + 12, Y: off + 30},
			{X: off + 940, Y: off + 8},
			{X: off + 925, Y: off + 1210},
			{X: off + 4, Y: off + 1180},
		}
		fwd := SolveNullSpace(src, page)
		inv := fwd.Inverse()
		require.NotEqual(t, Identity(), inv, "offset %v", off)

		for _, p := range append(src.Points(), geometry.Point2D{X: off + 470, Y: off + 600}) {
			assertPointNear(t, p, inv.Apply(fwd.Apply(p)), 1e-6)
		}
		for i := range page {
			assertPointNear(t, src[i], inv.Apply(page[i]), 1e-6)
		}
	}
}

func TestInverse_ScaleInvariant(t *testing.T) {
	h := SolveCorners(skewed, target)
	for _, f := range []float64{1e-6, 1e-3, 1, 1e4} {
		got := h.Scale(f).Inverse().Normalize()
		want := h.Inverse().Normalize()
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				assert.InDelta(t, want[i][j], got[i][j], 1e-9, "scale %v entry %d,%d", f, i, j)
			}
		}
	}
}

func TestInverse_MatchesGonum(t *testing.T) {
	h := SolveCorners(skewed, target)
	var want mat.Dense
	require.NoError(t, want.Inverse(h.Dense()))

	got := h.Inverse()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want.At(i, j), got[i][j], 1e-9)
		}
	}
}

func TestInverse_SingularFallsBackToIdentity(t *testing.T) {
	singular := Matrix{{1, 2, 3}, {2, 4, 6}, {0, 0, 1}}
	assert.Equal(t, Identity(), singular.Inverse())
}

func TestApply_ZeroW(t *testing.T) {
	m := Matrix{{1, 0, 5}, {0, 1, 5}, {1, 0, 0}}
	p := geometry.Point2D{X: 0, Y: 3}
	assert.Equal(t, p, m.Apply(p))
}

func TestMul_Composition(t *testing.T) {
	a := SolveCorners(skewed, target)
	b := SolveCorners(target, geometry.RectQuad(400, 300))
	p := geometry.Point2D{X: 77, Y: 66}
	assertPointNear(t, b.Apply(a.Apply(p)), b.Mul(a).Apply(p), 1e-9)
}

func TestSolveCorners_DegenerateGivesIdentity(t *testing.T) {
	same := geometry.Quad{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}}
	assert.Equal(t, Identity(), SolveCorners(same, target))
}

func TestSolveNullSpace_NearDegenerateStaysFinite(t *testing.T) {
	cases := map[string]geometry.Quad{
		"collinear":      {{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30}},
		"near collinear": {{X: 0, Y: 0}, {X: 100, Y: 1e-7}, {X: 200, Y: 0}, {X: 300, Y: 2e-7}},
		"coincident":     {{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}},
		"three in line":  {{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 100, Y: 0}, {X: 50, Y: 80}},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			h := SolveNullSpace(src, target)
			for _, v := range h.Vector() {
				require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "entry %v", v)
			}
			q := h.Apply(geometry.Point2D{X: 10, Y: 10})
			assert.False(t, math.IsNaN(q.X) || math.IsNaN(q.Y))
		})
	}
}

func TestSolveLeastSquares(t *testing.T) {
	exact := SolveCorners(skewed, target)

	t.Run("four points match exact solve", func(t *testing.T) {
		h, err := SolveLeastSquares(skewed.Points(), target.Points())
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				assert.InDelta(t, exact[i][j], h[i][j], 1e-8)
			}
		}
	})

	t.Run("extra consistent points", func(t *testing.T) {
		src := skewed.Points()
		dst := target.Points()
		for _, p := range []geometry.Point2D{{X: 100, Y: 90}, {X: 60, Y: 40}} {
			src = append(src, p)
			dst = append(dst, exact.Apply(p))
		}
		h, err := SolveLeastSquares(src, dst)
		require.NoError(t, err)
		assert.Less(t, h.Residual(src, dst), 1e-6)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := SolveLeastSquares(skewed.Points()[:3], target.Points()[:3])
		assert.Error(t, err)
		_, err = SolveLeastSquares(skewed.Points(), target.Points()[:3])
		assert.Error(t, err)
	})
}

func TestResidual_Empty(t *testing.T) {
	assert.True(t, math.IsInf(Identity().Residual(nil, nil), 1))
}
