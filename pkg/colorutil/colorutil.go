// Package colorutil provides shared color utilities for the rectifier.
package colorutil

import (
	"image/color"
	"math"
)

// Common colors used throughout the application.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// ClampByte rounds v to the nearest integer and clamps it into [0, 255].
func ClampByte(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
