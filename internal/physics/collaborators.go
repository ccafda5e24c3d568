package physics

import (
	"vehicle-dynamics/internal/common"

	"github.com/go-gl/mathgl/mgl64"
)

// GroundProbe casts a ray against the world.
// Implementations used with Tuning.ParallelWheels must be safe for concurrent calls.
type GroundProbe interface {
	// Probe returns the hit distance along direction, at most maxDistance.
	// ok is false when nothing was hit; that is the airborne case, not an error.
	Probe(origin, direction mgl64.Vec3, maxDistance float64) (distance float64, ok bool)
}

// Body is the rigid body owned by the host physics engine.
// The vehicle only injects forces and reads velocities back.
type Body interface {
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
	Velocity() mgl64.Vec3
	// PointVelocity is the world-space velocity of a world-space point on the body.
	PointVelocity(point mgl64.Vec3) mgl64.Vec3
	// ApplyForceAtPoint adds a world-space force at a world-space point.
	// The engine derives the torque from the offset.
	ApplyForceAtPoint(force, point mgl64.Vec3)
}

// Controls are the normalized driver inputs for one tick.
type Controls struct {
	Gas   float64 // [-1, 1]
	Brake float64 // [0, 1]
	Steer float64 // [-1, 1], positive turns right
}

// Clamped returns c with every axis forced into its range.
func (c Controls) Clamped() Controls {
	return Controls{
		Gas:   common.Clamp(c.Gas, -1, 1),
		Brake: common.Clamp(c.Brake, 0, 1),
		Steer: common.Clamp(c.Steer, -1, 1),
	}
}

// InputSource supplies driver input once per tick (keyboard, VR rig, autopilot...).
type InputSource interface {
	ReadInput() Controls
}
