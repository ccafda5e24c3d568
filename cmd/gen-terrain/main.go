// Command gen-terrain writes a grayscale heightmap with a flat road valley
// carved along the default loop route.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"vehicle-dynamics/internal/common"
	"vehicle-dynamics/internal/terrain"

	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("gen-terrain", pflag.ExitOnError)
	out := flags.StringP("out", "o", "assets/terrain.png", "output PNG path")
	width := flags.Int("width", 160, "heightmap width in samples")
	depth := flags.Int("depth", 120, "heightmap depth in samples")
	cell := flags.Float64("cellSize", 1, "metres per sample")
	maxHeight := flags.Float64("maxHeight", 8, "height in metres of a white pixel")
	radiusX := flags.Float64("radiusX", 60, "loop radius along X")
	radiusZ := flags.Float64("radiusZ", 40, "loop radius along Z")
	roadWidth := flags.Float64("roadWidth", 8, "flat road width in metres")
	ramp := flags.Float64("ramp", 12, "metres from the road edge to full height")
	_ = flags.Parse(os.Args[1:])

	route := terrain.NewLoopRoute(*radiusX, *radiusZ, 256, *roadWidth)
	img := Generate(route, *width, *depth, *cell, *maxHeight, *ramp)

	if err := save(*out, img); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %dx%d heightmap to %s\n", *width, *depth, *out)
}

// Generate shades each sample by its lateral distance from the route.
// The road is black, the banks climb to a third of maxHeight within ramp
// metres and the outfield rolls gently above that.
func Generate(route *terrain.Route, width, depth int, cell, maxHeight, ramp float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, depth))
	originX := -float64(width-1) * cell / 2
	originZ := -float64(depth-1) * cell / 2

	for y := 0; y < depth; y++ {
		for x := 0; x < width; x++ {
			pos := common.Vec2{X: originX + float64(x)*cell, Y: originZ + float64(y)*cell}
			_, d := route.Offset(pos)
			wp, _ := route.ClosestWaypoint(pos)

			edge := math.Abs(d) - wp.Width/2
			h := 0.0
			if edge > 0 {
				bank := common.Clamp(edge/ramp, 0, 1)
				h = maxHeight / 3 * bank * bank * (3 - 2*bank)
				h += maxHeight / 6 * bank * (1 + math.Sin(pos.X/9)*math.Cos(pos.Y/7))
			}
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round(255 * common.Clamp(h/maxHeight, 0, 1)))})
		}
	}
	return img
}

func save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create heightmap dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heightmap: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode heightmap: %w", err)
	}
	return nil
}
