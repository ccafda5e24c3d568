package terrain

import (
	"math"
	"vehicle-dynamics/internal/common"
)

// Waypoint is a point on a route centreline, in X/Z.
type Waypoint struct {
	ID       int
	Position common.Vec2 // world (x, z)
	Normal   common.Vec2 // unit vector to the right of the travel direction
	Width    float64
	Distance float64 // distance from the first waypoint
}

// Route is a closed loop of waypoints.
type Route struct {
	Waypoints []Waypoint
	TotalLen  float64
}

// NewRoute builds a closed route through points with cumulative distances and normals.
func NewRoute(points []common.Vec2, width float64) *Route {
	r := &Route{Waypoints: make([]Waypoint, len(points))}
	dist := 0.0
	for i, p := range points {
		if i > 0 {
			dist += p.Sub(points[i-1]).Len()
		}
		r.Waypoints[i] = Waypoint{ID: i, Position: p, Width: width, Distance: dist}
	}
	if n := len(points); n > 1 {
		r.TotalLen = dist + points[0].Sub(points[n-1]).Len()
	}
	r.recomputeNormals()
	return r
}

// NewLoopRoute samples an ellipse centred on the origin. Waypoint 0 is at (0, radiusZ)
// heading toward +X.
func NewLoopRoute(radiusX, radiusZ float64, samples int, width float64) *Route {
	samples = max(samples, 3)
	points := make([]common.Vec2, samples)
	for i := range points {
		a := 2 * math.Pi * float64(i) / float64(samples)
		points[i] = common.Vec2{X: radiusX * math.Sin(a), Y: radiusZ * math.Cos(a)}
	}
	return NewRoute(points, width)
}

func (r *Route) recomputeNormals() {
	n := len(r.Waypoints)
	if n < 2 {
		return
	}
	for i := range r.Waypoints {
		prev := r.Waypoints[(i-1+n)%n]
		next := r.Waypoints[(i+1)%n]
		d := next.Position.Sub(prev.Position)
		// right of (dx, dz) with Y up is (dz, -dx)
		if normal := (common.Vec2{X: d.Y, Y: -d.X}).Normalize(); normal != (common.Vec2{}) {
			r.Waypoints[i].Normal = normal
		}
	}
}

// ClosestWaypoint finds the waypoint closest to the given position.
// Returns -1 for an empty route.
func (r *Route) ClosestWaypoint(pos common.Vec2) (Waypoint, int) {
	minDistSq := math.MaxFloat64
	closestIdx := -1
	for i, wp := range r.Waypoints {
		d := pos.Sub(wp.Position)
		if distSq := d.Dot(d); distSq < minDistSq {
			minDistSq = distSq
			closestIdx = i
		}
	}
	if closestIdx == -1 {
		return Waypoint{}, -1
	}
	return r.Waypoints[closestIdx], closestIdx
}

// At returns waypoint i, wrapping around the loop.
func (r *Route) At(i int) Waypoint {
	n := len(r.Waypoints)
	return r.Waypoints[((i%n)+n)%n]
}

// Direction is the unit travel direction at waypoint i.
func (r *Route) Direction(i int) common.Vec2 {
	n := r.At(i).Normal
	return common.Vec2{X: -n.Y, Y: n.X}
}

// Offset converts a position to route coordinates: s is progress along the
// route, d the lateral offset (positive = right of centre).
func (r *Route) Offset(pos common.Vec2) (s, d float64) {
	wp, idx := r.ClosestWaypoint(pos)
	if idx < 0 {
		return 0, 0
	}
	rel := pos.Sub(wp.Position)
	return wp.Distance, rel.Dot(wp.Normal)
}
