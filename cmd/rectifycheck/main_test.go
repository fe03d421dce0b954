package main

import (
	"testing"

	"doc-rectifier/internal/corners"
	"doc-rectifier/internal/homography"
	"doc-rectifier/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinations_MeasureOffEdgePoints(t *testing.T) {
	// Top edge bows 10 px above the corner line at its midpoint.
	pts := geometry.OrderFromTopLeft([]geometry.Point2D{
		{X: 50, Y: 50}, {X: 150, Y: 40}, {X: 250, Y: 50}, {X: 250, Y: 150}, {X: 50, Y: 150},
	})
	sel := corners.SelectCorners(pts)
	rect := geometry.RectQuad(200, 100)
	constraints := corners.BuildConstraints(pts, sel, 200, 100)
	require.Len(t, constraints, 1)

	src, dst := destinations(pts, sel, constraints, rect)
	require.Len(t, src, 5)
	require.Len(t, dst, 5)
	assert.Equal(t, geometry.Point2D{X: 150, Y: 40}, src[4])
	assert.InDelta(t, 100, dst[4].X, 1e-9)
	assert.InDelta(t, 0, dst[4].Y, 1e-9)

	fwd := homography.SolveNullSpace(sel.Corners, rect)
	assert.InDelta(t, 2.0, fwd.Residual(src, dst), 1e-6, "10 px miss averaged over 5 points")

	ls, err := homography.SolveLeastSquares(src, dst)
	require.NoError(t, err)
	assert.Greater(t, ls.Residual(src, dst), 0.0)
	assert.Less(t, ls.Residual(src, dst), 10.0)
}

func TestQuadSize(t *testing.T) {
	w, h := quadSize(geometry.Quad{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 0, Y: 100}})
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 100.0, h)

	w, h = quadSize(geometry.Quad{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}})
	assert.Equal(t, 10.0, w)
	assert.Equal(t, 10.0, h)
}
