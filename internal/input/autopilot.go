package input

import (
	"math"
	"vehicle-dynamics/internal/common"
	"vehicle-dynamics/internal/physics"
	"vehicle-dynamics/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is the part of a body the autopilot looks at.
type Pose interface {
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
	Velocity() mgl64.Vec3
}

// Autopilot drives a route: it aims at a waypoint ahead of the closest one
// and holds a target speed with a proportional throttle.
type Autopilot struct {
	Route       *terrain.Route
	Body        Pose
	Lookahead   int     // waypoints
	TargetSpeed float64 // m/s
	SteerGain   float64 // steer per radian of heading error
	SpeedGain   float64 // throttle per m/s of speed error
}

// NewAutopilot returns an autopilot with moderate gains.
func NewAutopilot(route *terrain.Route, body Pose, targetSpeed float64) *Autopilot {
	return &Autopilot{
		Route:       route,
		Body:        body,
		Lookahead:   3,
		TargetSpeed: targetSpeed,
		SteerGain:   2,
		SpeedGain:   0.5,
	}
}

func (a *Autopilot) ReadInput() physics.Controls {
	if a.Route == nil || len(a.Route.Waypoints) == 0 {
		return physics.Controls{Brake: 1}
	}
	pos, rot := a.Body.Position(), a.Body.Rotation()
	_, idx := a.Route.ClosestWaypoint(common.Vec2{X: pos.X(), Y: pos.Z()})
	target := a.Route.At(idx + a.Lookahead).Position

	local := rot.Inverse().Rotate(mgl64.Vec3{target.X - pos.X(), 0, target.Y - pos.Z()})
	headingErr := math.Atan2(local.X(), local.Z())

	forward := a.Body.Velocity().Dot(rot.Rotate(physics.AxisForward))
	speedErr := a.TargetSpeed - forward

	return physics.Controls{
		Gas:   common.Clamp(speedErr*a.SpeedGain, 0, 1),
		Brake: common.Clamp(-speedErr*a.SpeedGain, 0, 1),
		Steer: common.Clamp(headingErr*a.SteerGain, -1, 1),
	}
}
