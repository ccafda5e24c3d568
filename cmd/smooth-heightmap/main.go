// Command smooth-heightmap blurs a grayscale heightmap so the ground probe
// sees gentle slopes instead of pixel steps.
package main

import (
	"fmt"
	"image"
	"log"
	"os"

	"github.com/spf13/pflag"
	"gocv.io/x/gocv"
)

func main() {
	flags := pflag.NewFlagSet("smooth-heightmap", pflag.ExitOnError)
	in := flags.StringP("in", "i", "assets/terrain.png", "input heightmap")
	out := flags.StringP("out", "o", "assets/terrain_smooth.png", "output heightmap")
	kernel := flags.IntP("kernel", "k", 5, "odd Gaussian kernel size in samples")
	sigma := flags.Float64("sigma", 0, "Gaussian sigma, 0 derives it from the kernel")
	_ = flags.Parse(os.Args[1:])

	if err := smooth(*in, *out, *kernel, *sigma); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("smoothed %s into %s\n", *in, *out)
}

func smooth(in, out string, kernel int, sigma float64) error {
	if kernel < 1 || kernel%2 == 0 {
		return fmt.Errorf("kernel must be odd and positive, got %d", kernel)
	}

	img := gocv.IMRead(in, gocv.IMReadGrayScale)
	if img.Empty() {
		return fmt.Errorf("error reading heightmap %s", in)
	}
	defer img.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(img, &blurred, image.Pt(kernel, kernel), sigma, sigma, gocv.BorderReflect101)

	if ok := gocv.IMWrite(out, blurred); !ok {
		return fmt.Errorf("error writing heightmap %s", out)
	}
	return nil
}
