package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Role flags what a wheel does besides carrying load.
// Front-, rear- and all-wheel drive layouts are just different role assignments.
type Role uint8

const (
	RoleSteer Role = 1 << iota
	RoleMotor
)

// Has reports whether every flag in r2 is set.
func (r Role) Has(r2 Role) bool {
	return r&r2 == r2
}

func (r Role) String() string {
	switch r {
	case 0:
		return "free"
	case RoleSteer:
		return "steer"
	case RoleMotor:
		return "motor"
	case RoleSteer | RoleMotor:
		return "steer+motor"
	default:
		return "unknown"
	}
}

// Body-local axes. Right = Up x Forward.
var (
	AxisRight   = mgl64.Vec3{1, 0, 0}
	AxisUp      = mgl64.Vec3{0, 1, 0}
	AxisForward = mgl64.Vec3{0, 0, 1}
)

// WheelSpec describes one wheel at construction time.
type WheelSpec struct {
	Name  string
	Mount mgl64.Vec3 // body-local position
	Roles Role
}

// Frame is a wheel's world position and orientation basis for one tick.
type Frame struct {
	Position mgl64.Vec3
	Right    mgl64.Vec3
	Up       mgl64.Vec3
	Forward  mgl64.Vec3
}

// WheelState is the per-wheel telemetry of the last tick.
type WheelState struct {
	Frame        Frame
	Contact      bool
	Distance     float64
	Suspension   float64
	Grip         float64
	Lateral      float64
	Longitudinal float64
	Force        mgl64.Vec3
}

// Wheel is a mounted tire. Geometry is fixed except the steer angle.
type Wheel struct {
	Name  string
	Mount mgl64.Vec3
	Roles Role

	steerAngle float64 // degrees, local yaw
	state      WheelState
}

func newWheel(spec WheelSpec) *Wheel {
	return &Wheel{Name: spec.Name, Mount: spec.Mount, Roles: spec.Roles}
}

// SteerAngle returns the local yaw in degrees applied on the last tick.
func (w *Wheel) SteerAngle() float64 {
	return w.steerAngle
}

// State returns the telemetry of the last tick.
func (w *Wheel) State() WheelState {
	return w.state
}

// frame places the wheel in the world from the body pose.
func (w *Wheel) frame(bodyPos mgl64.Vec3, bodyRot mgl64.Quat) Frame {
	orient := bodyRot
	if w.steerAngle != 0 {
		orient = bodyRot.Mul(mgl64.QuatRotate(mgl64.DegToRad(w.steerAngle), AxisUp))
	}
	return Frame{
		Position: bodyPos.Add(bodyRot.Rotate(w.Mount)),
		Right:    orient.Rotate(AxisRight),
		Up:       orient.Rotate(AxisUp),
		Forward:  orient.Rotate(AxisForward),
	}
}
