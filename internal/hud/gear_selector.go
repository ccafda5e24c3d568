package hud

import (
	"vehicle-dynamics/internal/common"
	"vehicle-dynamics/internal/physics"
)

const (
	// ArrowRate is how far the arrow turns toward the stick each frame.
	ArrowRate = 0.3
	// OpenBrake and OpenGas gate the selector: only with the brake held down.
	OpenBrake = 0.95
	OpenGas   = 0.01
)

// GearSetter receives the confirmed selection.
type GearSetter interface {
	SetAutomaticGear(mode physics.GearMode)
}

// GearSelector is a radial P/N/D/R menu. It opens while the select button is
// held with the brake pressed and no gas; releasing it commits the gear under
// the arrow, if any.
type GearSelector struct {
	Target GearSetter

	arrow    float64 // degrees in [0, 360)
	open     bool
	selected physics.GearMode
	valid    bool
}

// NewGearSelector returns a closed selector that reports to target.
func NewGearSelector(target GearSetter) *GearSelector {
	return &GearSelector{Target: target}
}

// Update runs one frame. It reports whether a gear was committed.
func (g *GearSelector) Update(held bool, c physics.Controls, stick common.Vec2) bool {
	if held && c.Brake > OpenBrake && c.Gas < OpenGas {
		g.open = true
		g.arrow = common.WrapDegrees(common.LerpAngle(g.arrow, stick.AngleDeg()-90, ArrowRate))
		g.selected, g.valid = SectorGear(g.arrow)
		return false
	}
	if !g.open {
		return false
	}
	g.open = false
	if !g.valid || g.Target == nil {
		return false
	}
	g.Target.SetAutomaticGear(g.selected)
	return true
}

// Open reports whether the menu is showing.
func (g *GearSelector) Open() bool { return g.open }

// Arrow returns the arrow rotation in degrees, counter-clockwise.
func (g *GearSelector) Arrow() float64 { return g.arrow }

// Selected returns the gear under the arrow.
func (g *GearSelector) Selected() (physics.GearMode, bool) { return g.selected, g.valid }

// SectorGear maps an arrow rotation to a gear. Each gear owns an 80 degree
// sector measured clockwise; the 10 degree gaps between sectors select nothing.
func SectorGear(arrow float64) (physics.GearMode, bool) {
	a := -arrow
	if a < 0 {
		a += 360
	}
	switch {
	case a > 5 && a < 85:
		return physics.Driving, true
	case a > 95 && a < 175:
		return physics.Reverse, true
	case a > 185 && a < 265:
		return physics.Neutral, true
	case a > 275 && a < 355:
		return physics.Parking, true
	}
	return 0, false
}
