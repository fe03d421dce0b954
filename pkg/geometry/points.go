package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePoints reads "x,y;x,y;..." (whitespace allowed around separators).
func ParsePoints(s string) ([]Point2D, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var pts []Point2D
	for i, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("point %d: %q is not x,y", i+1, pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: bad x: %w", i+1, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: bad y: %w", i+1, err)
		}
		pts = append(pts, Point2D{X: x, Y: y})
	}
	return pts, nil
}

// FormatPoints is the inverse of ParsePoints.
func FormatPoints(pts []Point2D) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}
