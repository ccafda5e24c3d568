package sim

import (
	"context"
	"math"
	"testing"
	"time"
	"vehicle-dynamics/internal/physics"
	"vehicle-dynamics/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constInput physics.Controls

func (c constInput) ReadInput() physics.Controls { return physics.Controls(c) }

func testWheels() []physics.WheelSpec {
	return []physics.WheelSpec{
		{Name: "front-left", Mount: mgl64.Vec3{-0.8, -0.3, 1.5}, Roles: physics.RoleSteer},
		{Name: "front-right", Mount: mgl64.Vec3{0.8, -0.3, 1.5}, Roles: physics.RoleSteer},
		{Name: "rear-left", Mount: mgl64.Vec3{-0.8, -0.3, -1.5}, Roles: physics.RoleMotor},
		{Name: "rear-right", Mount: mgl64.Vec3{0.8, -0.3, -1.5}, Roles: physics.RoleMotor},
	}
}

func newTestSim(t *testing.T, in physics.InputSource) *Simulation {
	t.Helper()
	body, err := NewRigidBody(1, mgl64.Vec3{1, 0.25, 2})
	require.NoError(t, err)
	body.Teleport(mgl64.Vec3{0, 1, 0}, mgl64.QuatIdent())

	v, err := physics.NewVehicle(physics.DefaultTuning(), testWheels(), body, terrain.Plane{})
	require.NoError(t, err)
	return New(v, body, in, 20*time.Millisecond)
}

func TestNewRigidBody_RejectsMass(t *testing.T) {
	for _, m := range []float64{0, -1, math.NaN()} {
		_, err := NewRigidBody(m, mgl64.Vec3{1, 1, 1})
		assert.ErrorIs(t, err, ErrMass)
	}
}

func TestRigidBody_FreeFall(t *testing.T) {
	b, err := NewRigidBody(2, mgl64.Vec3{1, 1, 1})
	require.NoError(t, err)
	for range 10 {
		b.Integrate(0.1, Gravity)
	}
	assert.InDelta(t, -9.81, b.Velocity().Y(), 1e-9)
	// semi-implicit Euler: sum of k*g*dt^2 for k = 1..10
	assert.InDelta(t, -9.81*0.01*55, b.Position().Y(), 1e-9)
}

func TestRigidBody_ForceAtCentreDoesNotSpin(t *testing.T) {
	b, err := NewRigidBody(2, mgl64.Vec3{1, 1, 1})
	require.NoError(t, err)
	b.ApplyForceAtPoint(mgl64.Vec3{4, 0, 0}, mgl64.Vec3{})
	b.Integrate(0.5, mgl64.Vec3{})
	assert.InDelta(t, 1.0, b.Velocity().X(), 1e-12)
	assert.Equal(t, mgl64.Vec3{}, b.AngularVelocity())
}

func TestRigidBody_OffsetForceSpins(t *testing.T) {
	b, err := NewRigidBody(3, mgl64.Vec3{1, 1, 1})
	require.NoError(t, err)
	// Push +Z at +X: torque = r x F = (1,0,0) x (0,0,1) = (0,-1,0).
	b.ApplyForceAtPoint(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0})
	b.Integrate(0.1, mgl64.Vec3{})

	// Cube inertia m*(1+1)/3 = 2 on every axis.
	assert.InDelta(t, -0.05, b.AngularVelocity().Y(), 1e-12)
	assert.InDelta(t, 1.0, b.Rotation().Len(), 1e-12)

	// The accumulators are cleared.
	before := b.AngularVelocity()
	b.Integrate(0.1, mgl64.Vec3{})
	assert.True(t, before.ApproxEqual(b.AngularVelocity()))
}

func TestRigidBody_PointVelocity(t *testing.T) {
	b, err := NewRigidBody(1, mgl64.Vec3{1, 1, 1})
	require.NoError(t, err)
	b.Teleport(mgl64.Vec3{5, 0, 0}, mgl64.QuatIdent())
	b.SetVelocity(mgl64.Vec3{0, 0, 2})
	b.SetAngularVelocity(mgl64.Vec3{0, 1, 0})

	// ω × r with r = (0,0,1): (0,1,0) x (0,0,1) = (1,0,0)
	got := b.PointVelocity(mgl64.Vec3{5, 0, 1})
	assert.True(t, got.ApproxEqual(mgl64.Vec3{1, 0, 2}), "got %v", got)
}

func TestRigidBody_YawIntegration(t *testing.T) {
	b, err := NewRigidBody(1, mgl64.Vec3{1, 1, 1})
	require.NoError(t, err)
	b.SetAngularVelocity(mgl64.Vec3{0, math.Pi / 2, 0})
	for range 1000 {
		b.Integrate(0.001, mgl64.Vec3{})
	}
	fwd := b.Rotation().Rotate(physics.AxisForward)
	assert.InDelta(t, 1.0, fwd.X(), 1e-3, "quarter turn about +Y faces +X")
	assert.InDelta(t, 0.0, fwd.Z(), 1e-3)
}

func TestRigidBody_Damping(t *testing.T) {
	b, err := NewRigidBody(1, mgl64.Vec3{1, 1, 1})
	require.NoError(t, err)
	b.SetDamping(0.5)
	b.SetVelocity(mgl64.Vec3{10, 0, 0})
	b.Integrate(0.1, mgl64.Vec3{})
	assert.InDelta(t, 9.5, b.Velocity().X(), 1e-12)
}

func TestSimulation_SettlesOnSuspension(t *testing.T) {
	s := newTestSim(t, constInput{})
	_, err := s.Run(context.Background(), 250)
	require.NoError(t, err)

	f := s.Snapshot()
	// Four springs of 100 carry 9.81 N: 0.0245 compression each.
	assert.InDelta(t, 0.3+0.6-9.81/400, f.Position.Y(), 0.01)
	assert.Less(t, s.Body.Velocity().Len(), 0.05)
	assert.Equal(t, 4, f.Telemetry.Contacts)
	assert.Equal(t, uint64(250), f.Tick)
	assert.Equal(t, 5*time.Second, f.Elapsed)
}

func TestSimulation_DrivesForward(t *testing.T) {
	s := newTestSim(t, constInput{})
	_, err := s.Run(context.Background(), 50)
	require.NoError(t, err)

	s.Input = constInput{Gas: 1}
	s.Vehicle.SetAutomaticGear(physics.Driving)
	_, err = s.Run(context.Background(), 100)
	require.NoError(t, err)

	f := s.Snapshot()
	assert.Greater(t, s.Body.Velocity().Z(), 1.0)
	assert.Greater(t, f.Position.Z(), 1.0)
	assert.Greater(t, f.Position.Y(), 0.5, "still riding on the wheels")
	assert.Equal(t, physics.Driving, f.Telemetry.Mode)
	assert.InDelta(t, 0.0, f.Position.X(), 0.05, "straight line")
}

func TestSimulation_ReverseBacksUp(t *testing.T) {
	s := newTestSim(t, constInput{Gas: 1})
	s.Vehicle.SetAutomaticGear(physics.Reverse)
	_, err := s.Run(context.Background(), 150)
	require.NoError(t, err)
	assert.Less(t, s.Body.Velocity().Z(), -0.5)
	assert.Equal(t, 1, s.Vehicle.Gear())
}

func TestSimulation_RunHonoursCancellation(t *testing.T) {
	s := newTestSim(t, constInput{})
	ctx, cancel := context.WithCancel(context.Background())

	s.OnTick(func(f Frame) {
		if f.Tick == 7 {
			cancel()
		}
	})
	n, err := s.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 7, n)
	assert.Equal(t, uint64(7), s.Ticks())
}

func TestSimulation_HooksSeeEveryTick(t *testing.T) {
	s := newTestSim(t, constInput{Steer: 0.5})
	var seen []uint64
	s.OnTick(func(f Frame) {
		seen = append(seen, f.Tick)
		assert.Equal(t, 0.5, f.Controls.Steer)
	})
	_, err := s.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, seen)
}

func TestSimulation_Respawn(t *testing.T) {
	s := newTestSim(t, constInput{Gas: 1})
	s.Vehicle.SetAutomaticGear(physics.Driving)
	_, err := s.Run(context.Background(), 100)
	require.NoError(t, err)

	rot := mgl64.QuatRotate(math.Pi, physics.AxisUp)
	s.Respawn(mgl64.Vec3{3, 2, 1}, rot)

	f := s.Snapshot()
	assert.Equal(t, mgl64.Vec3{3, 2, 1}, f.Position)
	assert.Equal(t, mgl64.Vec3{}, s.Body.Velocity())
	assert.Equal(t, physics.Parking, s.Vehicle.AutomaticGear())
	assert.InDelta(t, 180.0, f.Heading(), 1e-9)
}

func TestSpawnPose(t *testing.T) {
	route := terrain.NewLoopRoute(40, 20, 32, 6)
	pos, rot := SpawnPose(route, terrain.Plane{Height: 2}, 0, 1)
	assert.True(t, pos.ApproxEqual(mgl64.Vec3{0, 3, 20}), "got %v", pos)
	assert.InDelta(t, 90.0, Frame{Rotation: rot}.Heading(), 1e-6)

	pos, rot = SpawnPose(nil, terrain.Plane{}, 0, 1)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, pos)
	assert.Equal(t, mgl64.QuatIdent(), rot)
}
