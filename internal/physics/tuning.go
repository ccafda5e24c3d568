package physics

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoGearRatios  = errors.New("no gear ratios")
	ErrGearRatio     = errors.New("gear ratio must be positive")
	ErrWheelDiameter = errors.New("wheel diameter must be positive")
	ErrRPMThresholds = errors.New("minRPM must be below maxRPM")
	ErrReverseGear   = errors.New("reverse gear must not be negative")
	ErrRestDistance  = errors.New("rest distance must be positive")
	ErrGripCurve     = errors.New("invalid grip curve")
	ErrNoWheels      = errors.New("vehicle has no wheels")
	ErrNilBody       = errors.New("nil body")
	ErrNilGround     = errors.New("nil ground probe")
	ErrNotFinite     = errors.New("tuning value is not finite")
)

// Tuning is the per-vehicle configuration. It is read once at construction.
type Tuning struct {
	WheelDiameter     float64
	GearRatios        []float64
	MinRPM            float64 // thousands
	MaxRPM            float64 // thousands
	ReverseGear       int
	AccelerationForce float64
	BrakeForce        float64
	AxialFriction     float64

	SpringStrength float64
	Damping        float64
	RestDistance   float64

	GripCurve        GripCurve
	SteeringStrength float64
	MaxSteerAngle    float64 // degrees

	EnableSuspension bool
	EnableSteering   bool
	EnableDrivetrain bool

	// ParallelWheels computes wheels concurrently; forces are still applied in order.
	ParallelWheels bool
}

// DefaultTuning is a small rear-driven hatchback tuned for a 1 kg body,
// the scale the force defaults were authored at.
func DefaultTuning() Tuning {
	return Tuning{
		WheelDiameter:     1.0,
		GearRatios:        []float64{0.5, 0.8, 1.1, 1.4, 1.7},
		MinRPM:            2.0,
		MaxRPM:            4.5,
		ReverseGear:       DefaultReverse,
		AccelerationForce: 10,
		BrakeForce:        1.0,
		AxialFriction:     0.5,
		SpringStrength:    100,
		Damping:           6,
		RestDistance:      0.6,
		GripCurve:         DefaultGripCurve(),
		SteeringStrength:  1.0,
		MaxSteerAngle:     30,
		EnableSuspension:  true,
		EnableSteering:    true,
		EnableDrivetrain:  true,
	}
}

// Validate reports every precondition violation at once.
func (t Tuning) Validate() error {
	var errs []error

	finite := map[string]float64{
		"wheelDiameter":     t.WheelDiameter,
		"minRPM":            t.MinRPM,
		"maxRPM":            t.MaxRPM,
		"accelerationForce": t.AccelerationForce,
		"brakeForce":        t.BrakeForce,
		"axialFriction":     t.AxialFriction,
		"springStrength":    t.SpringStrength,
		"damping":           t.Damping,
		"restDistance":      t.RestDistance,
		"steeringStrength":  t.SteeringStrength,
		"maxSteerAngle":     t.MaxSteerAngle,
	}
	for name, v := range finite {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNotFinite, name))
		}
	}

	if !(t.WheelDiameter > 0) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrWheelDiameter, t.WheelDiameter))
	}
	if len(t.GearRatios) == 0 {
		errs = append(errs, ErrNoGearRatios)
	}
	for i, r := range t.GearRatios {
		if !(r > 0) || math.IsInf(r, 0) {
			errs = append(errs, fmt.Errorf("%w: gear %d = %v", ErrGearRatio, i, r))
		}
	}
	if !(t.MinRPM < t.MaxRPM) {
		errs = append(errs, fmt.Errorf("%w: %v >= %v", ErrRPMThresholds, t.MinRPM, t.MaxRPM))
	}
	if t.ReverseGear < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrReverseGear, t.ReverseGear))
	}
	if !(t.RestDistance > 0) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrRestDistance, t.RestDistance))
	}
	if _, err := NewGripCurve(t.GripCurve.Keys, t.GripCurve.Interpolation); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
