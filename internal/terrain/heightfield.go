package terrain

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const bisectSteps = 16

var ErrHeightfieldSize = errors.New("heightfield needs at least 2x2 samples")

// Heightfield is a regular grid of height samples on the X/Z plane.
// Sample (0,0) sits at (OriginX, OriginZ); samples are CellSize apart.
type Heightfield struct {
	Width, Depth int
	CellSize     float64
	OriginX      float64
	OriginZ      float64

	heights [][]float64 // [x][z]
}

// NewHeightfield creates a flat heightfield of the specified size.
func NewHeightfield(width, depth int, cellSize float64) (*Heightfield, error) {
	if width < 2 || depth < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrHeightfieldSize, width, depth)
	}
	if !(cellSize > 0) {
		return nil, fmt.Errorf("cell size must be positive: %v", cellSize)
	}
	heights := make([][]float64, width)
	for i := range heights {
		heights[i] = make([]float64, depth)
	}
	return &Heightfield{Width: width, Depth: depth, CellSize: cellSize, heights: heights}, nil
}

// Set writes the sample at (x, z). Out of range writes are ignored.
func (h *Heightfield) Set(x, z int, height float64) {
	if x < 0 || x >= h.Width || z < 0 || z >= h.Depth {
		return
	}
	h.heights[x][z] = height
}

// Get returns the sample at (x, z). Returns false if out of bounds.
func (h *Heightfield) Get(x, z int) (float64, bool) {
	if x < 0 || x >= h.Width || z < 0 || z >= h.Depth {
		return 0, false
	}
	return h.heights[x][z], true
}

// Centre moves the origin so the grid is centred on world (0, 0).
func (h *Heightfield) Centre() {
	h.OriginX = -float64(h.Width-1) * h.CellSize / 2
	h.OriginZ = -float64(h.Depth-1) * h.CellSize / 2
}

// HeightAt interpolates bilinearly between the four surrounding samples.
// Outside the grid there is no ground.
func (h *Heightfield) HeightAt(x, z float64) (float64, bool) {
	fx := (x - h.OriginX) / h.CellSize
	fz := (z - h.OriginZ) / h.CellSize
	if !(fx >= 0 && fx <= float64(h.Width-1) && fz >= 0 && fz <= float64(h.Depth-1)) {
		return 0, false
	}
	ix := min(int(fx), h.Width-2)
	iz := min(int(fz), h.Depth-2)
	tx, tz := fx-float64(ix), fz-float64(iz)

	h00 := h.heights[ix][iz]
	h10 := h.heights[ix+1][iz]
	h01 := h.heights[ix][iz+1]
	h11 := h.heights[ix+1][iz+1]
	near := h00 + (h10-h00)*tx
	far := h01 + (h11-h01)*tx
	return near + (far-near)*tz, true
}

// Probe marches the ray in half-cell steps and refines the first crossing by bisection.
func (h *Heightfield) Probe(origin, direction mgl64.Vec3, maxDistance float64) (float64, bool) {
	below := func(t float64) (bool, bool) {
		p := origin.Add(direction.Mul(t))
		ground, ok := h.HeightAt(p.X(), p.Z())
		return ok && p.Y() <= ground, ok
	}

	if hit, _ := below(0); hit {
		return 0, true
	}
	step := h.CellSize / 2
	prev := 0.0
	for t := step; ; t += step {
		t = math.Min(t, maxDistance)
		if hit, _ := below(t); hit {
			lo, hi := prev, t
			for range bisectSteps {
				mid := (lo + hi) / 2
				if in, _ := below(mid); in {
					hi = mid
				} else {
					lo = mid
				}
			}
			return hi, true
		}
		if t >= maxDistance {
			return 0, false
		}
		prev = t
	}
}
