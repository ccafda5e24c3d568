package physics

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"vehicle-dynamics/internal/common"
)

const (
	MaxTargetRPM   = 10.0 // thousands
	RPMSmoothing   = 0.3  // per tick, not scaled by the step
	DefaultReverse = 1    // gear index pinned while reversing
)

// GearMode is the automatic selector position.
type GearMode int32

const (
	Parking GearMode = iota
	Neutral
	Driving
	Reverse
)

func (m GearMode) String() string {
	switch m {
	case Parking:
		return "P"
	case Neutral:
		return "N"
	case Driving:
		return "D"
	case Reverse:
		return "R"
	default:
		return fmt.Sprintf("GearMode(%d)", int32(m))
	}
}

// Valid reports whether m is one of the four selector positions.
func (m GearMode) Valid() bool {
	return m >= Parking && m <= Reverse
}

// ParseGearMode accepts a letter or the full name, case-insensitive.
func ParseGearMode(s string) (GearMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p", "park", "parking":
		return Parking, nil
	case "n", "neutral":
		return Neutral, nil
	case "d", "drive", "driving":
		return Driving, nil
	case "r", "reverse":
		return Reverse, nil
	}
	return 0, fmt.Errorf("unknown gear mode %q", s)
}

// Transmission is the complete shift state: selector mode and ratio index.
type Transmission struct {
	Mode GearMode
	Gear int
}

// ShiftConfig holds what the transition function needs.
type ShiftConfig struct {
	Gears       int
	MinRPM      float64
	MaxRPM      float64
	ReverseGear int
}

// NextTransmission is the single per-tick transition of the automatic gearbox.
// Reverse pins the reverse gear; otherwise one step up above MaxRPM or one
// step down below MinRPM. Both directions share the thresholds.
func NextTransmission(s Transmission, rpm float64, cfg ShiftConfig) Transmission {
	switch {
	case s.Mode == Reverse:
		s.Gear = cfg.ReverseGear
	case rpm > cfg.MaxRPM && s.Gear < cfg.Gears-1:
		s.Gear++
	case rpm < cfg.MinRPM && s.Gear > 0:
		s.Gear--
	}
	return s
}

const noPendingMode = -1

// DriveTrain owns gear selection, engine RPM and the longitudinal forces.
type DriveTrain struct {
	ratios            []float64
	shift             ShiftConfig
	wheelDiameter     float64
	accelerationForce float64
	brakeForce        float64
	axialFriction     float64

	state     Transmission
	rpm       float64
	targetRpm float64
	shifts    uint64

	pending atomic.Int32
}

// NewDriveTrain builds a drivetrain in Parking, gear 0. Tuning must already be valid.
func NewDriveTrain(t Tuning) *DriveTrain {
	d := &DriveTrain{
		ratios: append([]float64(nil), t.GearRatios...),
		shift: ShiftConfig{
			Gears:       len(t.GearRatios),
			MinRPM:      t.MinRPM,
			MaxRPM:      t.MaxRPM,
			ReverseGear: min(t.ReverseGear, len(t.GearRatios)-1),
		},
		wheelDiameter:     t.WheelDiameter,
		accelerationForce: t.AccelerationForce,
		brakeForce:        t.BrakeForce,
		axialFriction:     t.AxialFriction,
	}
	d.pending.Store(noPendingMode)
	return d
}

// Reset returns to Parking, gear 0, zero RPM and drops any queued command.
func (d *DriveTrain) Reset() {
	d.state = Transmission{Mode: Parking}
	d.rpm, d.targetRpm = 0, 0
	d.pending.Store(noPendingMode)
}

// SetAutomaticGear queues a mode change applied at the next tick boundary.
// Safe to call from any goroutine. The last call before the tick wins.
func (d *DriveTrain) SetAutomaticGear(mode GearMode) {
	if !mode.Valid() {
		return
	}
	d.pending.Store(int32(mode))
}

// applyPending installs a queued mode. Reports the previous mode when one was applied.
func (d *DriveTrain) applyPending() (GearMode, bool) {
	p := d.pending.Swap(noPendingMode)
	if p == noPendingMode {
		return 0, false
	}
	prev := d.state.Mode
	d.state.Mode = GearMode(p)
	return prev, true
}

// UpdateRPM moves the engine RPM toward the speed-derived target.
func (d *DriveTrain) UpdateRPM(carSpeed float64) float64 {
	target := carSpeed / (d.wheelDiameter * math.Pi * d.ratios[d.state.Gear])
	d.targetRpm = common.Clamp(target, 0, MaxTargetRPM)
	d.rpm = common.Lerp(d.rpm, d.targetRpm, RPMSmoothing)
	return d.rpm
}

// MotorForce is the drive force of one motor wheel along wheel-forward.
func (d *DriveTrain) MotorForce(gas float64) float64 {
	switch d.state.Mode {
	case Driving:
		return d.accelerationForce * gas * d.ratios[d.state.Gear]
	case Reverse:
		return -d.accelerationForce * gas * d.ratios[d.state.Gear]
	default:
		return 0
	}
}

// ResistanceForce is rolling friction plus service or parking brake along wheel-forward.
func (d *DriveTrain) ResistanceForce(longitudinalVelocity, brake float64) float64 {
	force := -longitudinalVelocity * d.axialFriction
	if d.state.Mode == Parking {
		force -= longitudinalVelocity * d.brakeForce
	} else {
		force -= longitudinalVelocity * d.brakeForce * brake
	}
	return force
}

// Shift runs the transition function once and returns the states around it.
func (d *DriveTrain) Shift() (from, to Transmission) {
	from = d.state
	d.state = NextTransmission(d.state, d.rpm, d.shift)
	if d.state.Gear != from.Gear {
		d.shifts++
	}
	return from, d.state
}

// Transmission returns the current shift state.
func (d *DriveTrain) Transmission() Transmission { return d.state }

// Mode returns the applied selector position.
func (d *DriveTrain) Mode() GearMode { return d.state.Mode }

// Gear returns the current ratio index.
func (d *DriveTrain) Gear() int { return d.state.Gear }

// Ratio returns the current gear ratio.
func (d *DriveTrain) Ratio() float64 { return d.ratios[d.state.Gear] }

// RPM returns the smoothed engine RPM in thousands.
func (d *DriveTrain) RPM() float64 { return d.rpm }

// TargetRPM returns the unsmoothed RPM of the last update.
func (d *DriveTrain) TargetRPM() float64 { return d.targetRpm }

// Shifts counts ratio changes since construction.
func (d *DriveTrain) Shifts() uint64 { return d.shifts }
