// Package sim hosts a vehicle: a minimal rigid body and the fixed-step loop
// that feeds it input, wheel forces and gravity.
package sim

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrMass = errors.New("mass must be positive")

// RigidBody is a box-shaped body integrated with semi-implicit Euler.
// It never sleeps, so wheel forces always reach it.
type RigidBody struct {
	mass        float64
	halfExtents mgl64.Vec3
	invInertia  mgl64.Vec3 // body-space diagonal

	pos     mgl64.Vec3
	rot     mgl64.Quat
	vel     mgl64.Vec3
	angVel  mgl64.Vec3
	force   mgl64.Vec3
	torque  mgl64.Vec3
	damping float64
}

// NewRigidBody creates a solid box of the given mass at the origin.
func NewRigidBody(mass float64, halfExtents mgl64.Vec3) (*RigidBody, error) {
	if !(mass > 0) {
		return nil, fmt.Errorf("%w: %v", ErrMass, mass)
	}
	x2, y2, z2 := halfExtents.X()*halfExtents.X(), halfExtents.Y()*halfExtents.Y(), halfExtents.Z()*halfExtents.Z()
	inertia := mgl64.Vec3{mass * (y2 + z2) / 3, mass * (x2 + z2) / 3, mass * (x2 + y2) / 3}
	var inv mgl64.Vec3
	for i, v := range inertia {
		if v > 0 {
			inv[i] = 1 / v
		}
	}
	return &RigidBody{
		mass:        mass,
		halfExtents: halfExtents,
		invInertia:  inv,
		rot:         mgl64.QuatIdent(),
	}, nil
}

func (b *RigidBody) Position() mgl64.Vec3 { return b.pos }
func (b *RigidBody) Rotation() mgl64.Quat { return b.rot }
func (b *RigidBody) Velocity() mgl64.Vec3 { return b.vel }

// AngularVelocity is in world space, radians per second.
func (b *RigidBody) AngularVelocity() mgl64.Vec3 { return b.angVel }

func (b *RigidBody) Mass() float64 { return b.mass }

func (b *RigidBody) HalfExtents() mgl64.Vec3 { return b.halfExtents }

// SetDamping sets a linear and angular drag rate per second.
func (b *RigidBody) SetDamping(rate float64) { b.damping = max(rate, 0) }

// PointVelocity is v + ω × r.
func (b *RigidBody) PointVelocity(point mgl64.Vec3) mgl64.Vec3 {
	return b.vel.Add(b.angVel.Cross(point.Sub(b.pos)))
}

// ApplyForceAtPoint accumulates the force and its torque about the centre of mass.
func (b *RigidBody) ApplyForceAtPoint(force, point mgl64.Vec3) {
	b.force = b.force.Add(force)
	b.torque = b.torque.Add(point.Sub(b.pos).Cross(force))
}

// Teleport places the body and stops it.
func (b *RigidBody) Teleport(pos mgl64.Vec3, rot mgl64.Quat) {
	b.pos = pos
	b.rot = rot.Normalize()
	b.vel, b.angVel = mgl64.Vec3{}, mgl64.Vec3{}
	b.force, b.torque = mgl64.Vec3{}, mgl64.Vec3{}
}

// SetVelocity overrides the linear velocity.
func (b *RigidBody) SetVelocity(v mgl64.Vec3) { b.vel = v }

// SetAngularVelocity overrides the world-space angular velocity.
func (b *RigidBody) SetAngularVelocity(w mgl64.Vec3) { b.angVel = w }

// Integrate advances the body by dt seconds and clears the accumulators.
func (b *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if dt <= 0 {
		return
	}
	acc := b.force.Mul(1 / b.mass).Add(gravity)
	b.vel = b.vel.Add(acc.Mul(dt))

	r := b.rot.Mat4().Mat3()
	invWorld := r.Mul3(mgl64.Diag3(b.invInertia)).Mul3(r.Transpose())
	b.angVel = b.angVel.Add(invWorld.Mul3x1(b.torque).Mul(dt))

	if b.damping > 0 {
		keep := max(1-b.damping*dt, 0)
		b.vel = b.vel.Mul(keep)
		b.angVel = b.angVel.Mul(keep)
	}

	b.pos = b.pos.Add(b.vel.Mul(dt))
	spin := mgl64.Quat{W: 0, V: b.angVel}.Mul(b.rot).Scale(0.5 * dt)
	b.rot = b.rot.Add(spin).Normalize()

	b.force, b.torque = mgl64.Vec3{}, mgl64.Vec3{}
}
