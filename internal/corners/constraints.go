package corners

import (
	"math"

	"doc-rectifier/internal/homography"
	"doc-rectifier/pkg/geometry"
)

// Edge indices of the destination rectangle.
const (
	EdgeTop = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

const (
	// influenceFraction of min(width, height) bounds how far a constraint reaches.
	influenceFraction = 0.25
	// falloff scales squared distance in the inverse-distance weight.
	falloff = 1000.0
	// blendGain scales the total weight into the blend factor.
	blendGain = 0.5
)

// EdgeConstraint binds a leftover source point to a parametric position on
// one edge of the destination rectangle.
type EdgeConstraint struct {
	Src      geometry.Point2D `json:"src"`
	Dst      geometry.Point2D `json:"dst"`
	Edge     int              `json:"edge"`
	Param    float64          `json:"param"`
	Distance float64          `json:"distance"` // source distance to the chosen quad edge
}

// BuildConstraints projects every point excluded by sel onto its nearest edge
// of the selected quad and places it on the matching edge of a width x height
// rectangle. Bottom and left edges run backwards so the winding stays
// consistent with the quad order TL, TR, BR, BL.
func BuildConstraints(points []geometry.Point2D, sel Selection, width, height float64) []EdgeConstraint {
	if len(sel.Excluded) == 0 {
		return nil
	}

	out := make([]EdgeConstraint, 0, len(sel.Excluded))
	for _, idx := range sel.Excluded {
		p := points[idx]

		edge := 0
		best := math.Inf(1)
		for e := 0; e < 4; e++ {
			a, b := sel.Corners.Edge(e)
			if d := geometry.PointToSegmentDistance(p, a, b); d < best {
				best = d
				edge = e
			}
		}
		a, b := sel.Corners.Edge(edge)
		t := geometry.EdgeParameter(p, a, b)

		out = append(out, EdgeConstraint{
			Src:      p,
			Dst:      edgePoint(edge, t, width, height),
			Edge:     edge,
			Param:    t,
			Distance: best,
		})
	}
	return out
}

func edgePoint(edge int, t, width, height float64) geometry.Point2D {
	switch edge {
	case EdgeTop:
		return geometry.Point2D{X: t * width, Y: 0}
	case EdgeRight:
		return geometry.Point2D{X: width, Y: t * height}
	case EdgeBottom:
		return geometry.Point2D{X: (1 - t) * width, Y: height}
	default:
		return geometry.Point2D{X: 0, Y: (1 - t) * height}
	}
}

// ApplyConstrainedMapping maps destination pixel (x, y) back into the source.
// The base position comes from the inverse homography; constraints whose
// destination lies within the influence radius pull it by a weighted average
// of their residuals (where fwd sends Src versus where Dst says it belongs).
func ApplyConstrainedMapping(x, y float64, inv, fwd homography.Matrix, constraints []EdgeConstraint, width, height float64) geometry.Point2D {
	pixel := geometry.Point2D{X: x, Y: y}
	base := inv.Apply(pixel)
	if len(constraints) == 0 {
		return base
	}

	radius := influenceFraction * math.Min(width, height)
	var total float64
	var corr geometry.Point2D
	for _, c := range constraints {
		d := pixel.Distance(c.Dst)
		if d >= radius {
			continue
		}
		w := 1 / (1 + d*d/falloff)
		residual := fwd.Apply(c.Src).Sub(c.Dst)
		corr = corr.Add(residual.Scale(w))
		total += w
	}
	if total == 0 {
		return base
	}

	blend := math.Min(1, total*blendGain)
	return base.Sub(corr.Scale(blend / total))
}
