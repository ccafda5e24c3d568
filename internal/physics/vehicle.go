// Package physics is the per-tick vehicle force model: suspension, tire grip,
// drivetrain and the aggregation of all three into one force per wheel.
//
// The package never integrates motion. Each Update reads velocities from a
// Body, probes the ground under every wheel and applies the resulting forces
// back to the Body at the wheel positions.
package physics

import (
	"errors"
	"fmt"
	"log/slog"
	"vehicle-dynamics/internal/common"

	"golang.org/x/sync/errgroup"
)

// KmhPerMs converts m/s to km/h.
const KmhPerMs = 3.6

// Telemetry is the read-only snapshot handed to HUD, audio and metrics.
type Telemetry struct {
	Speed     float64 // m/s
	RPM       float64 // thousands
	TargetRPM float64
	Mode      GearMode
	Gear      int
	Steer     float64 // [-1, 1]
	Shifts    uint64
	Contacts  int
}

// SpeedKmh returns the speed in km/h.
func (t Telemetry) SpeedKmh() float64 {
	return t.Speed * KmhPerMs
}

// Option configures a Vehicle.
type Option func(*Vehicle)

// WithLogger sets the logger used for shift and mode events.
func WithLogger(l *slog.Logger) Option {
	return func(v *Vehicle) {
		if l != nil {
			v.logger = l
		}
	}
}

// Vehicle aggregates the wheel forces of one car.
type Vehicle struct {
	tuning Tuning
	wheels []*Wheel
	body   Body
	ground GroundProbe
	drive  *DriveTrain
	logger *slog.Logger

	frames []Frame
	states []WheelState
	steer  float64
	last   Telemetry
}

// NewVehicle validates the tuning and builds the wheel pipeline.
func NewVehicle(t Tuning, wheels []WheelSpec, body Body, ground GroundProbe, opts ...Option) (*Vehicle, error) {
	var errs []error
	if err := t.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(wheels) == 0 {
		errs = append(errs, ErrNoWheels)
	}
	if body == nil {
		errs = append(errs, ErrNilBody)
	}
	if ground == nil {
		errs = append(errs, ErrNilGround)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid vehicle: %w", err)
	}

	// Rebuild the curve so a hand-filled GripCurve gets its spline.
	curve, err := NewGripCurve(t.GripCurve.Keys, t.GripCurve.Interpolation)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle: %w", err)
	}
	t.GripCurve = curve
	t.GearRatios = append([]float64(nil), t.GearRatios...)

	v := &Vehicle{
		tuning: t,
		body:   body,
		ground: ground,
		drive:  NewDriveTrain(t),
		logger: slog.New(slog.DiscardHandler),
		frames: make([]Frame, len(wheels)),
		states: make([]WheelState, len(wheels)),
	}
	for _, opt := range opts {
		opt(v)
	}
	for _, spec := range wheels {
		v.wheels = append(v.wheels, newWheel(spec))
	}

	if t.ReverseGear > len(t.GearRatios)-1 {
		v.logger.Warn("reverse gear beyond ratio table, using top gear",
			"reverseGear", t.ReverseGear, "gears", len(t.GearRatios))
	}
	v.last = Telemetry{Mode: Parking}
	return v, nil
}

// Update runs one fixed physics tick.
func (v *Vehicle) Update(in Controls) {
	c := in.Clamped()

	if prev, ok := v.drive.applyPending(); ok && prev != v.drive.Mode() {
		v.logger.Info("gear mode changed", "from", prev, "to", v.drive.Mode())
	}

	v.steer = c.Steer
	for _, w := range v.wheels {
		if w.Roles.Has(RoleSteer) {
			w.steerAngle = v.tuning.MaxSteerAngle * c.Steer
		}
	}

	speed := v.body.Velocity().Len()
	rpm := v.drive.UpdateRPM(speed)

	pos, rot := v.body.Position(), v.body.Rotation()
	for i, w := range v.wheels {
		v.frames[i] = w.frame(pos, rot)
	}
	v.computeWheels(c)

	// All wheels are done; the body sees this tick's forces in wheel order.
	contacts := 0
	for i, w := range v.wheels {
		st := v.states[i]
		w.state = st
		if st.Contact {
			contacts++
		}
		v.body.ApplyForceAtPoint(st.Force, st.Frame.Position)
	}

	from, to := v.drive.Shift()
	if from.Gear != to.Gear {
		v.logger.Debug("gear shift", "from", from.Gear, "to", to.Gear, "mode", to.Mode, "rpm", rpm)
	}

	v.last = Telemetry{
		Speed:     speed,
		RPM:       rpm,
		TargetRPM: v.drive.TargetRPM(),
		Mode:      to.Mode,
		Gear:      to.Gear,
		Steer:     c.Steer,
		Shifts:    v.drive.Shifts(),
		Contacts:  contacts,
	}
}

// Step reads one input sample and runs Update with it.
func (v *Vehicle) Step(src InputSource) {
	v.Update(src.ReadInput())
}

func (v *Vehicle) computeWheels(c Controls) {
	if !v.tuning.ParallelWheels || len(v.wheels) < 2 {
		for i, w := range v.wheels {
			v.states[i] = v.wheelForce(w, v.frames[i], c)
		}
		return
	}

	var g errgroup.Group
	for i, w := range v.wheels {
		g.Go(func() error {
			v.states[i] = v.wheelForce(w, v.frames[i], c)
			return nil
		})
	}
	_ = g.Wait()
}

// wheelForce computes one wheel. It only reads shared state.
func (v *Vehicle) wheelForce(w *Wheel, f Frame, c Controls) WheelState {
	st := WheelState{Frame: f}
	t := &v.tuning

	distance, ok := v.ground.Probe(f.Position, f.Up.Mul(-1), t.RestDistance)
	if !ok {
		return st
	}
	st.Contact = true
	st.Distance = min(distance, t.RestDistance)

	vel := v.body.PointVelocity(f.Position)
	lateral, vertical, longitudinal := vel.Dot(f.Right), vel.Dot(f.Up), vel.Dot(f.Forward)

	st.Suspension = SuspensionForce(st.Distance, t.RestDistance, t.SpringStrength, t.Damping, vertical)
	st.Grip = TireGrip(t.GripCurve, lateral, longitudinal)
	st.Lateral = LateralForce(lateral, st.Grip, t.SteeringStrength)
	st.Longitudinal = v.drive.ResistanceForce(longitudinal, c.Brake)
	if w.Roles.Has(RoleMotor) {
		st.Longitudinal += v.drive.MotorForce(c.Gas)
	}

	if t.EnableSuspension {
		st.Force = st.Force.Add(f.Up.Mul(st.Suspension))
	}
	if t.EnableSteering {
		st.Force = st.Force.Add(f.Right.Mul(st.Lateral))
	}
	if t.EnableDrivetrain {
		st.Force = st.Force.Add(f.Forward.Mul(st.Longitudinal))
	}
	return st
}

// CarSpeed returns the body speed of the last tick, in km/h when kmh is set.
func (v *Vehicle) CarSpeed(kmh bool) float64 {
	if kmh {
		return v.last.SpeedKmh()
	}
	return v.last.Speed
}

// RPM returns the smoothed engine RPM in thousands.
func (v *Vehicle) RPM() float64 { return v.drive.RPM() }

// Gear returns the current ratio index.
func (v *Vehicle) Gear() int { return v.drive.Gear() }

// AutomaticGear returns the applied selector mode.
func (v *Vehicle) AutomaticGear() GearMode { return v.drive.Mode() }

// SetAutomaticGear queues a selector change for the next tick. No speed check is made.
func (v *Vehicle) SetAutomaticGear(mode GearMode) { v.drive.SetAutomaticGear(mode) }

// WheelRelativeTurn is the steering input of the last tick in [-1, 1].
func (v *Vehicle) WheelRelativeTurn() float64 { return common.Clamp(v.steer, -1, 1) }

// Telemetry returns the snapshot of the last tick.
func (v *Vehicle) Telemetry() Telemetry { return v.last }

// Shifts counts ratio changes since construction.
func (v *Vehicle) Shifts() uint64 { return v.drive.Shifts() }

// Wheels returns the wheels in mount order.
func (v *Vehicle) Wheels() []*Wheel { return v.wheels }

// Tuning returns the configuration the vehicle was built with.
func (v *Vehicle) Tuning() Tuning { return v.tuning }

// Reset puts the drivetrain back to Parking, gear 0, zero RPM and centres the wheels.
// Used on respawn.
func (v *Vehicle) Reset() {
	v.drive.Reset()
	v.steer = 0
	for _, w := range v.wheels {
		w.steerAngle = 0
		w.state = WheelState{}
	}
	v.last = Telemetry{Mode: Parking, Shifts: v.drive.Shifts()}
}
