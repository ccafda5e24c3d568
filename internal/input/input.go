// Package input holds the driver input sources a vehicle can be stepped with.
package input

import (
	"sync"
	"vehicle-dynamics/internal/common"
	"vehicle-dynamics/internal/physics"
)

// Static always returns the same controls.
type Static physics.Controls

func (s Static) ReadInput() physics.Controls { return physics.Controls(s) }

// Func adapts a plain function.
type Func func() physics.Controls

func (f Func) ReadInput() physics.Controls { return f() }

// Shared is a source written by one goroutine and read by the ticker.
type Shared struct {
	mu sync.Mutex
	c  physics.Controls
}

// Set replaces the controls returned from now on.
func (s *Shared) Set(c physics.Controls) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = c
}

func (s *Shared) ReadInput() physics.Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c
}

// KnobRate is how far the knob moves toward its target each tick.
const KnobRate = 0.1

// SteeringKnob turns digital steering into a smooth wheel position.
// Value is in [0, 1] with 0.5 centred.
type SteeringKnob struct {
	Value float64
	Rate  float64
}

// NewSteeringKnob returns a centred knob.
func NewSteeringKnob() *SteeringKnob {
	return &SteeringKnob{Value: 0.5, Rate: KnobRate}
}

// Turn moves the knob toward a steer target in [-1, 1] and returns the relative turn.
func (k *SteeringKnob) Turn(target float64) float64 {
	goal := (common.Clamp(target, -1, 1) + 1) / 2
	k.Value = common.Clamp(common.Lerp(k.Value, goal, k.Rate), 0, 1)
	return k.RelativeTurn()
}

// RelativeTurn maps the knob to [-1, 1].
func (k *SteeringKnob) RelativeTurn() float64 {
	return (k.Value - 0.5) * 2
}

// Reset centres the knob.
func (k *SteeringKnob) Reset() { k.Value = 0.5 }

// Smoothed passes Gas and Brake through and steers through a knob.
type Smoothed struct {
	Source physics.InputSource
	Knob   *SteeringKnob
}

// Smooth wraps src with a centred knob.
func Smooth(src physics.InputSource) *Smoothed {
	return &Smoothed{Source: src, Knob: NewSteeringKnob()}
}

func (s *Smoothed) ReadInput() physics.Controls {
	c := s.Source.ReadInput()
	c.Steer = s.Knob.Turn(c.Steer)
	return c
}
