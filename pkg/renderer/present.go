package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// toByte maps a linear [0, 1] channel to 8 bits
func toByte(v float64) uint8 {
	return uint8(v * 255)
}

// AverageColor converts a radiance sum over samples to a clamped 8-bit color.
// No gamma curve is applied.
func AverageColor(sum core.Vec3, samples int) color.RGBA {
	if samples <= 0 {
		return color.RGBA{A: 255}
	}
	scale := 1 / float64(samples)
	c := sum.Multiply(scale).Clamp(0, 1)
	return color.RGBA{R: toByte(c.X), G: toByte(c.Y), B: toByte(c.Z), A: 255}
}

// present writes the averaged image into target
func (s *Session) present(target *image.RGBA) error {
	if target == nil {
		return nil
	}
	bounds := target.Bounds()
	if bounds.Dx() != s.scene.Width || bounds.Dy() != s.scene.Height {
		return fmt.Errorf("present: target is %dx%d, image is %dx%d", bounds.Dx(), bounds.Dy(), s.scene.Width, s.scene.Height)
	}

	radiance := s.image.data
	samples := s.samples
	width := s.scene.Width

	return s.pool.Launch(StagePresent, len(radiance), s.opts.BlockSize, func(i int) {
		c := AverageColor(radiance[i], samples)
		offset := target.PixOffset(bounds.Min.X+i%width, bounds.Min.Y+i/width)
		target.Pix[offset+0] = c.R
		target.Pix[offset+1] = c.G
		target.Pix[offset+2] = c.B
		target.Pix[offset+3] = c.A
	})
}
