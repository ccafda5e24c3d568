package sim

import (
	"context"
	"math"
	"sync"
	"time"
	"vehicle-dynamics/internal/common"
	"vehicle-dynamics/internal/physics"
	"vehicle-dynamics/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
)

// Gravity is the default downward acceleration.
var Gravity = mgl64.Vec3{0, -9.81, 0}

// Frame is what one tick produced.
type Frame struct {
	Tick      uint64
	Elapsed   time.Duration
	Position  mgl64.Vec3
	Rotation  mgl64.Quat
	Controls  physics.Controls
	Telemetry physics.Telemetry
}

// Heading is the yaw in degrees, 0 facing +Z, 90 facing +X.
func (f Frame) Heading() float64 {
	fwd := f.Rotation.Rotate(physics.AxisForward)
	return common.WrapDegrees(mgl64.RadToDeg(math.Atan2(fwd.X(), fwd.Z())))
}

// Simulation steps one vehicle on one body at a fixed rate.
type Simulation struct {
	mu sync.RWMutex

	Vehicle *physics.Vehicle
	Body    *RigidBody
	Input   physics.InputSource
	Gravity mgl64.Vec3
	Step    time.Duration

	ticks uint64
	last  Frame
	hooks []func(Frame)
}

// New wires a vehicle to its body and input at the given step.
func New(v *physics.Vehicle, body *RigidBody, in physics.InputSource, step time.Duration) *Simulation {
	return &Simulation{
		Vehicle: v,
		Body:    body,
		Input:   in,
		Gravity: Gravity,
		Step:    step,
		last:    Frame{Rotation: body.Rotation(), Position: body.Position()},
	}
}

// OnTick registers fn to run after every tick, on the ticking goroutine.
func (s *Simulation) OnTick(fn func(Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Tick reads input, runs the vehicle and integrates the body once.
func (s *Simulation) Tick() Frame {
	s.mu.Lock()
	in := s.Input.ReadInput()
	s.Vehicle.Update(in)
	s.Body.Integrate(s.Step.Seconds(), s.Gravity)
	s.ticks++
	s.last = Frame{
		Tick:      s.ticks,
		Elapsed:   time.Duration(s.ticks) * s.Step,
		Position:  s.Body.Position(),
		Rotation:  s.Body.Rotation(),
		Controls:  in.Clamped(),
		Telemetry: s.Vehicle.Telemetry(),
	}
	f, hooks := s.last, s.hooks
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(f)
	}
	return f
}

// Run ticks n times, or until ctx is done when n <= 0. Cancellation is
// checked between ticks; the returned count is how many ran.
func (s *Simulation) Run(ctx context.Context, n int) (int, error) {
	done := 0
	for n <= 0 || done < n {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		s.Tick()
		done++
	}
	return done, nil
}

// Snapshot returns the last frame. Safe from any goroutine.
func (s *Simulation) Snapshot() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Ticks returns the number of ticks run.
func (s *Simulation) Ticks() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

// Respawn stops the body at pos facing rot and resets the drivetrain to Parking.
func (s *Simulation) Respawn(pos mgl64.Vec3, rot mgl64.Quat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Body.Teleport(pos, rot)
	s.Vehicle.Reset()
	s.last = Frame{Tick: s.ticks, Elapsed: s.last.Elapsed, Position: pos, Rotation: s.Body.Rotation()}
}

// SpawnPose places a car on waypoint idx of route, clearance above the ground,
// facing the travel direction.
func SpawnPose(route *terrain.Route, ground terrain.Surface, idx int, clearance float64) (mgl64.Vec3, mgl64.Quat) {
	if route == nil || len(route.Waypoints) == 0 {
		h, _ := ground.HeightAt(0, 0)
		return mgl64.Vec3{0, h + clearance, 0}, mgl64.QuatIdent()
	}
	wp := route.At(idx)
	dir := route.Direction(idx)
	h, _ := ground.HeightAt(wp.Position.X, wp.Position.Y)
	yaw := math.Atan2(dir.X, dir.Y)
	return mgl64.Vec3{wp.Position.X, h + clearance, wp.Position.Y}, mgl64.QuatRotate(yaw, physics.AxisUp)
}
