package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortClockwise(t *testing.T) {
	pts := []Point2D{{100, 100}, {0, 0}, {0, 100}, {100, 0}}
	got := SortClockwise(pts)
	want := []Point2D{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	assert.Equal(t, want, got)

	// input untouched
	assert.Equal(t, Point2D{100, 100}, pts[0])
}

func TestSortClockwise_StableOnTies(t *testing.T) {
	// Two points on the same ray from the centroid keep input order.
	pts := []Point2D{{2, 0}, {4, 0}, {-3, 0}, {0, 3}, {0, -3}}
	got := SortClockwise(pts)
	var ray []Point2D
	for _, p := range got {
		if p.Y == 0 && p.X > 0 {
			ray = append(ray, p)
		}
	}
	assert.Equal(t, []Point2D{{2, 0}, {4, 0}}, ray)
}

func TestOrderFromTopLeft(t *testing.T) {
	pts := []Point2D{{110, 95}, {12, 105}, {105, 8}, {5, 10}}
	got := OrderFromTopLeft(pts)
	want := []Point2D{{5, 10}, {105, 8}, {110, 95}, {12, 105}}
	assert.Equal(t, want, got)
	assert.Empty(t, OrderFromTopLeft(nil))
}

func TestQuadArea(t *testing.T) {
	quad := []Point2D{{0, 0}, {10, 0}, {10, 5}, {0, 5}}
	assert.InDelta(t, 50.0, QuadArea(quad), 1e-12)

	t.Run("rotation invariant", func(t *testing.T) {
		for r := 0; r < 4; r++ {
			rot := append(append([]Point2D{}, quad[r:]...), quad[:r]...)
			assert.InDelta(t, 50.0, QuadArea(rot), 1e-12)
		}
	})

	t.Run("reversal invariant", func(t *testing.T) {
		rev := []Point2D{quad[3], quad[2], quad[1], quad[0]}
		assert.InDelta(t, 50.0, QuadArea(rev), 1e-12)
	})

	t.Run("collinear", func(t *testing.T) {
		assert.InDelta(t, 0.0, QuadArea([]Point2D{{0, 0}, {1, 1}, {2, 2}, {3, 3}}), 1e-12)
		assert.InDelta(t, 0.0, QuadArea([]Point2D{{0, 0}, {0, 0}, {5, 0}, {5, 0}}), 1e-12)
	})
}

func TestIsConvex(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point2D
		want bool
	}{
		{"rectangle", []Point2D{{0, 0}, {10, 0}, {10, 5}, {0, 5}}, true},
		{"reversed rectangle", []Point2D{{0, 5}, {10, 5}, {10, 0}, {0, 0}}, true},
		{"bowtie", []Point2D{{0, 0}, {10, 10}, {10, 0}, {0, 10}}, false},
		{"concave dart", []Point2D{{0, 0}, {10, 0}, {3, 3}, {0, 10}}, false},
		{"collinear vertex ignored", []Point2D{{0, 0}, {5, 0}, {10, 0}, {10, 10}, {0, 10}}, true},
		{"two points", []Point2D{{0, 0}, {1, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConvex(tt.pts))
		})
	}
}

func TestPointToSegmentDistance(t *testing.T) {
	a, b := Point2D{0, 0}, Point2D{10, 0}
	assert.InDelta(t, 3.0, PointToSegmentDistance(Point2D{5, 3}, a, b), 1e-12)
	assert.InDelta(t, 5.0, PointToSegmentDistance(Point2D{-3, 4}, a, b), 1e-12)
	assert.InDelta(t, 5.0, PointToSegmentDistance(Point2D{13, 4}, a, b), 1e-12)
	assert.InDelta(t, 5.0, PointToSegmentDistance(Point2D{3, 4}, a, a), 1e-12)
}

func TestEdgeParameter(t *testing.T) {
	a, b := Point2D{0, 0}, Point2D{10, 0}
	assert.InDelta(t, 0.5, EdgeParameter(Point2D{5, 7}, a, b), 1e-12)
	assert.Equal(t, 0.0, EdgeParameter(Point2D{-5, 1}, a, b))
	assert.Equal(t, 1.0, EdgeParameter(Point2D{50, 1}, a, b))
	assert.Equal(t, 0.5, EdgeParameter(Point2D{3, 3}, a, a))
}

func TestConvexHull(t *testing.T) {
	pts := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {5, 5}, {5, 0}}
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	assert.InDelta(t, 100.0, PolygonArea(hull), 1e-9)
	assert.NotContains(t, hull, Point2D{5, 5})
}

func TestAffineRotationRoundTrip(t *testing.T) {
	back := Translation(3, 4).Compose(Rotation(math.Pi / 6))
	fwd, ok := back.Inverse()
	require.True(t, ok)
	p := Point2D{7, -2}
	q := back.Apply(fwd.Apply(p))
	assert.InDelta(t, p.X, q.X, 1e-9)
	assert.InDelta(t, p.Y, q.Y, 1e-9)
}

func TestParsePoints(t *testing.T) {
	pts, err := ParsePoints(" 10,20 ; 30.5,40;50 , 60;")
	require.NoError(t, err)
	assert.Equal(t, []Point2D{{X: 10, Y: 20}, {X: 30.5, Y: 40}, {X: 50, Y: 60}}, pts)

	pts, err = ParsePoints("")
	require.NoError(t, err)
	assert.Nil(t, pts)

	for _, bad := range []string{"1,2,3", "a,1", "1,b", "12"} {
		_, err := ParsePoints(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatPoints_RoundTrip(t *testing.T) {
	pts := []Point2D{{X: 1.25, Y: 2}, {X: 300, Y: 0.5}}
	got, err := ParsePoints(FormatPoints(pts))
	require.NoError(t, err)
	assert.Equal(t, pts, got)
}
