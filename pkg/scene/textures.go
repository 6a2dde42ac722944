package scene

import (
	"math"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// CheckerboardTexture creates a procedural checkerboard pattern
func CheckerboardTexture(width, height, checkSize int, color1, color2 core.Vec3) *ImageData {
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Alternate colors based on check position
			color := color2
			if (x/checkSize+y/checkSize)%2 == 0 {
				color = color1
			}
			pixels[y*width+x] = color
		}
	}

	return &ImageData{Width: width, Height: height, Pixels: pixels}
}

// UVDebugTexture creates a texture showing UV coordinates as colors.
// U maps to red, V maps to green (v=0 is the bottom row).
func UVDebugTexture(width, height int) *ImageData {
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			u := float64(x) / float64(width-1)
			v := 1 - float64(y)/float64(height-1)
			pixels[y*width+x] = core.NewVec3(u, v, 0.0)
		}
	}

	return &ImageData{Width: width, Height: height, Pixels: pixels}
}

// GradientTexture creates a vertical gradient from color1 (top) to color2 (bottom)
func GradientTexture(width, height int, color1, color2 core.Vec3) *ImageData {
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		t := float64(y) / float64(height-1)
		color := color1.Multiply(1.0 - t).Add(color2.Multiply(t))
		for x := 0; x < width; x++ {
			pixels[y*width+x] = color
		}
	}

	return &ImageData{Width: width, Height: height, Pixels: pixels}
}

// BumpNormalMap creates a tangent-space normal map of a grid of round bumps
func BumpNormalMap(width, height, cells int, strength float64) *ImageData {
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Position inside the current cell, in [-1, 1]
			cx := math.Mod(float64(x)*float64(cells)/float64(width), 1)*2 - 1
			cy := math.Mod(float64(y)*float64(cells)/float64(height), 1)*2 - 1

			// Gradient of a dome height field, flat outside the unit disc
			n := core.NewVec3(0, 0, 1)
			if r2 := cx*cx + cy*cy; r2 < 1 {
				n = core.NewVec3(cx*strength, -cy*strength, 1).Normalize()
			}
			pixels[y*width+x] = n.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
		}
	}

	return &ImageData{Width: width, Height: height, Pixels: pixels}
}

// addImage is AddTexture for generated images, which are always well formed
func (s *Scene) addImage(img *ImageData) material.TextureRef {
	ref, err := s.AddTexture(img.Width, img.Height, img.Pixels)
	if err != nil {
		panic(err)
	}
	return ref
}
