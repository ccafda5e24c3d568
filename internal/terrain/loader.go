package terrain

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// LoadHeightmap loads a grayscale image and converts it to a centred Heightfield.
// Black is height 0, white is maxHeight.
func LoadHeightmap(path string, cellSize, maxHeight float64) (*Heightfield, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open heightmap: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode heightmap %s: %w", path, err)
	}
	hf, err := FromImage(img, cellSize, maxHeight)
	if err != nil {
		return nil, fmt.Errorf("heightmap %s: %w", path, err)
	}
	return hf, nil
}

// FromImage maps pixel luminance to height. Image x is world X, image y is world Z.
func FromImage(img image.Image, cellSize, maxHeight float64) (*Heightfield, error) {
	bounds := img.Bounds()
	hf, err := NewHeightfield(bounds.Dx(), bounds.Dy(), cellSize)
	if err != nil {
		return nil, err
	}
	for x := 0; x < hf.Width; x++ {
		for z := 0; z < hf.Depth; z++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+z)).(color.Gray)
			hf.heights[x][z] = float64(g.Y) / 255 * maxHeight
		}
	}
	hf.Centre()
	return hf, nil
}
