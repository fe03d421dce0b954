package rectangle

import (
	"math"
	"testing"

	"doc-rectifier/pkg/geometry"

	"github.com/stretchr/testify/assert"
)

func boxPoints() []geometry.Point2D {
	// corners and edge midpoints of a 200x100 box, clockwise from top-left
	return []geometry.Point2D{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 50},
		{X: 200, Y: 100}, {X: 100, Y: 100}, {X: 0, Y: 100}, {X: 0, Y: 50},
	}
}

func TestEstimateFor_Dispatch(t *testing.T) {
	quad := []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50}}
	assert.Equal(t, PolicyQuad, EstimateFor(quad).Policy)
	assert.Equal(t, PolicyBent, EstimateFor(boxPoints()[:6]).Policy)
	assert.Equal(t, PolicyPointCloud, EstimateFor(boxPoints()[:5]).Policy)
	assert.Equal(t, PolicyPointCloud, EstimateFor(boxPoints()).Policy)
}

func TestFromQuad(t *testing.T) {
	e := FromQuad([]geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50}})
	assert.InDelta(t, 100.0, e.Width, 1e-12)
	assert.InDelta(t, 50.0, e.Height, 1e-12)
	assert.Equal(t, geometry.Quad{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50}}, e.Corners)

	trapezoid := FromQuad([]geometry.Point2D{{X: 10, Y: 0}, {X: 90, Y: 0}, {X: 100, Y: 60}, {X: 0, Y: 60}})
	assert.InDelta(t, 90.0, trapezoid.Width, 1e-12)

	tiny := FromQuad([]geometry.Point2D{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 3}, {X: 0, Y: 3}})
	assert.Equal(t, 10.0, tiny.Width)
	assert.Equal(t, 10.0, tiny.Height)
}

func TestFromBentDocument(t *testing.T) {
	pts := []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 6}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 100, Y: 94}, {X: 0, Y: 100}}
	e := FromBentDocument(pts)
	assert.Equal(t, geometry.Quad{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 0, Y: 100}}, e.Corners)
	assert.InDelta(t, 200.0, e.Width, 1e-12)
	assert.InDelta(t, 100.0, e.Height, 1e-12)
}

func TestFromPointCloud_AxisAligned(t *testing.T) {
	e := FromPointCloud(boxPoints())
	assert.InDelta(t, 200.0, e.Width, 1e-9)
	assert.InDelta(t, 100.0, e.Height, 1e-9)
	want := geometry.Quad{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 0, Y: 100}}
	for i := range want {
		assert.InDelta(t, want[i].X, e.Corners[i].X, 1e-9)
		assert.InDelta(t, want[i].Y, e.Corners[i].Y, 1e-9)
	}
}

func TestFromPointCloud_Rotated(t *testing.T) {
	rot := geometry.Translation(40, 70).Compose(geometry.Rotation(math.Pi / 6))
	var pts []geometry.Point2D
	for _, p := range boxPoints() {
		pts = append(pts, rot.Apply(p))
	}

	assert.InDelta(t, math.Pi/6, PrincipalAngle(pts), 1e-9)

	e := FromPointCloud(pts)
	assert.InDelta(t, 200.0, e.Width, 1e-9)
	assert.InDelta(t, 100.0, e.Height, 1e-9)
	assert.InDelta(t, 20000.0, e.Corners.Area(), 1e-6)
	assert.True(t, geometry.IsConvex(e.Corners.Points()))
}

func TestPrincipalAngle_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, PrincipalAngle(nil))
	assert.Equal(t, 0.0, PrincipalAngle([]geometry.Point2D{{X: 3, Y: 4}}))
}
