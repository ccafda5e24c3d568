// Package terrain provides the ground the wheels probe against and the
// routes the autopilot follows. Ground is Y-up; routes live on the X/Z plane.
package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane is flat ground at a fixed height.
type Plane struct {
	Height float64
}

// Probe intersects the ray with the plane. An origin at or below the surface
// reports distance 0 so a sunk wheel reads as fully compressed.
func (p Plane) Probe(origin, direction mgl64.Vec3, maxDistance float64) (float64, bool) {
	above := origin.Y() - p.Height
	if above <= 0 {
		return 0, true
	}
	if direction.Y() >= 0 {
		return 0, false
	}
	t := above / -direction.Y()
	if t > maxDistance || math.IsNaN(t) {
		return 0, false
	}
	return t, true
}

// HeightAt implements Surface.
func (p Plane) HeightAt(x, z float64) (float64, bool) {
	return p.Height, true
}

// Surface is ground that can answer height queries. Used for spawning.
type Surface interface {
	HeightAt(x, z float64) (float64, bool)
}
