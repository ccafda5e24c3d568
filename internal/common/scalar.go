package common

import "math"

// Clamp restricts v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v >= lo {
		return v
	}
	return lo
}

// Lerp blends a toward b by t without clamping t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// WrapDegrees maps an angle into [0, 360).
func WrapDegrees(deg float64) float64 {
	w := math.Mod(deg, 360)
	if w < 0 {
		w += 360
	}
	return w
}

// LerpAngle blends a toward b by t along the shortest arc, in degrees.
func LerpAngle(a, b, t float64) float64 {
	delta := WrapDegrees(b - a)
	if delta > 180 {
		delta -= 360
	}
	return a + delta*t
}
