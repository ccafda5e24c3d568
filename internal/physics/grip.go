package physics

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"vehicle-dynamics/internal/common"

	"github.com/cnkei/gospline"
)

// MinSlipSpeed is the horizontal contact speed below which no slip is measured.
const MinSlipSpeed = 1e-4

// Interpolation selects how a GripCurve is sampled between keys.
type Interpolation int

const (
	InterpolateLinear Interpolation = iota
	InterpolateCubic
)

func (i Interpolation) String() string {
	switch i {
	case InterpolateLinear:
		return "linear"
	case InterpolateCubic:
		return "cubic"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// ParseInterpolation accepts "linear" or "cubic"; empty means linear.
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "", "linear":
		return InterpolateLinear, nil
	case "cubic":
		return InterpolateCubic, nil
	default:
		return 0, fmt.Errorf("%w: unknown interpolation %q", ErrGripCurve, s)
	}
}

// GripKey is one authored point of a grip curve.
type GripKey struct {
	Slip float64
	Grip float64
}

// GripCurve maps a slip ratio in [0,1] to a grip coefficient.
// Outside the authored range the end keys hold.
type GripCurve struct {
	Keys          []GripKey
	Interpolation Interpolation

	spline gospline.Spline
}

// NewGripCurve sorts and validates keys. Cubic curves need at least three keys.
func NewGripCurve(keys []GripKey, mode Interpolation) (GripCurve, error) {
	if len(keys) == 0 {
		return GripCurve{}, fmt.Errorf("%w: no keys", ErrGripCurve)
	}
	sorted := slices.Clone(keys)
	slices.SortFunc(sorted, func(a, b GripKey) int {
		switch {
		case a.Slip < b.Slip:
			return -1
		case a.Slip > b.Slip:
			return 1
		}
		return 0
	})

	var errs []error
	for i, k := range sorted {
		if math.IsNaN(k.Slip) || math.IsNaN(k.Grip) || math.IsInf(k.Slip, 0) || math.IsInf(k.Grip, 0) {
			errs = append(errs, fmt.Errorf("key %d is not finite", i))
			continue
		}
		if i > 0 && k.Slip == sorted[i-1].Slip {
			errs = append(errs, fmt.Errorf("duplicate slip %.3f", k.Slip))
		}
	}
	if len(errs) > 0 {
		return GripCurve{}, fmt.Errorf("%w: %w", ErrGripCurve, errors.Join(errs...))
	}

	c := GripCurve{Keys: sorted, Interpolation: mode}
	switch mode {
	case InterpolateLinear:
	case InterpolateCubic:
		if len(sorted) < 3 {
			return GripCurve{}, fmt.Errorf("%w: cubic interpolation needs 3 keys, got %d", ErrGripCurve, len(sorted))
		}
		xs := make([]float64, len(sorted))
		ys := make([]float64, len(sorted))
		for i, k := range sorted {
			xs[i], ys[i] = k.Slip, k.Grip
		}
		c.spline = gospline.NewCubicSpline(xs, ys)
	default:
		return GripCurve{}, fmt.Errorf("%w: unknown interpolation %d", ErrGripCurve, mode)
	}
	return c, nil
}

// DefaultGripCurve keeps full grip while rolling and loses most of it in a full slide.
func DefaultGripCurve() GripCurve {
	c, _ := NewGripCurve([]GripKey{
		{Slip: 0, Grip: 1},
		{Slip: 0.3, Grip: 0.85},
		{Slip: 0.6, Grip: 0.45},
		{Slip: 1, Grip: 0.3},
	}, InterpolateLinear)
	return c
}

// Evaluate samples the curve. The result is not clamped.
func (c GripCurve) Evaluate(slip float64) float64 {
	n := len(c.Keys)
	if n == 0 {
		return 0
	}
	first, last := c.Keys[0], c.Keys[n-1]
	if slip <= first.Slip {
		return first.Grip
	}
	if slip >= last.Slip {
		return last.Grip
	}
	if c.spline != nil {
		return c.spline.At(slip)
	}
	return lookupAndInterpolate(c.Keys, slip)
}

func lookupAndInterpolate(keys []GripKey, slip float64) float64 {
	for i := 0; i < len(keys)-1; i++ {
		lo, hi := keys[i], keys[i+1]
		if slip >= lo.Slip && slip <= hi.Slip {
			return lo.Grip + (hi.Grip-lo.Grip)*(slip-lo.Slip)/(hi.Slip-lo.Slip)
		}
	}
	return 0
}

// TireGrip returns the grip multiplier for a contact moving with the given
// lateral and longitudinal speeds. Always within [0, 1].
func TireGrip(curve GripCurve, lateral, longitudinal float64) float64 {
	horizontal := math.Hypot(lateral, longitudinal)
	if !(horizontal >= MinSlipSpeed) {
		return 0
	}
	slip := math.Abs(lateral) / horizontal
	return common.Clamp(curve.Evaluate(slip), 0, 1)
}

// LateralForce opposes sideways slip in proportion to grip.
func LateralForce(lateral, grip, steeringStrength float64) float64 {
	return -lateral * grip * steeringStrength
}
