package common

import "math"

// Vec2 represents a 2D vector.
// Used for stick input and top-down (X/Z) coordinates.
type Vec2 struct {
	X, Y float64
}

// Add adds two vectors.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts other from v.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale multiplies the vector by a scalar.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and other.
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Len returns the length (magnitude) of the vector.
func (v Vec2) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns a unit vector in the same direction.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// AngleDeg returns the counter-clockwise angle from +X in degrees, in (-180, 180].
func (v Vec2) AngleDeg() float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}
