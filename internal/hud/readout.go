// Package hud turns vehicle telemetry into display text and runs the radial
// gear selector.
package hud

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"vehicle-dynamics/internal/physics"
)

// Readout is the three dashboard lines.
type Readout struct {
	Speed string
	RPM   string
	Mode  string
}

// NewReadout formats a telemetry snapshot. Speed is whole km/h, RPM is in
// thousands to two decimals. Both round half to even.
func NewReadout(t physics.Telemetry) Readout {
	kmh := math.RoundToEven(t.SpeedKmh())
	rpm := math.RoundToEven(t.RPM*100) / 100
	return Readout{
		Speed: fmt.Sprintf("Speed: %d km/h", int(kmh)),
		RPM:   "RPM: " + strconv.FormatFloat(rpm, 'f', -1, 64) + "k",
		Mode:  "Mode: " + t.Mode.String(),
	}
}

func (r Readout) String() string {
	return strings.Join([]string{r.Speed, r.RPM, r.Mode}, "\n")
}
