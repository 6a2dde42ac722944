package renderer

import (
	"image"
	"time"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// IterationStats describes one pass through the wavefront loop
type IterationStats struct {
	Frame       int
	Iteration   int
	Bounces     int   // Bounces actually traced
	ActivePaths []int // Live paths entering each bounce
	StageTimes  [numStages]time.Duration
	Duration    time.Duration
}

// StageTime returns the time spent in stage during the iteration
func (s *IterationStats) StageTime(stage Stage) time.Duration {
	if stage < 0 || stage >= numStages {
		return 0
	}
	return s.StageTimes[stage]
}

// RenderStats summarises the image after a progressive pass
type RenderStats struct {
	TotalPixels      int           // Total number of pixels rendered
	TotalSamples     int           // Samples per pixel accumulated so far
	PassIterations   int           // Iterations rendered during the pass
	AverageLuminance float64       // Mean luminance of the presented image
	PassDuration     time.Duration // Wall time of the pass
	LastIteration    IterationStats
}

// timeStage runs fn and charges its duration to stage
func (s *IterationStats) timeStage(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	s.StageTimes[stage] += time.Since(start)
	return err
}

// CalculateAverageLuminance returns the mean luminance of img in [0, 1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			total += core.NewVec3(float64(c.R), float64(c.G), float64(c.B)).Multiply(1.0 / 255).Luminance()
		}
	}
	return total / float64(pixels)
}
