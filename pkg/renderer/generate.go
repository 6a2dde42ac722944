package renderer

import (
	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/scene"
)

// generatePath builds the camera path for one pixel. The sub-pixel jitter
// comes from the depth-0 stream of that pixel, so it depends only on
// (iteration, pixel).
func generatePath(cam *scene.Camera, iteration, pixel, budget int) PathSegment {
	x := pixel % cam.Width
	y := pixel / cam.Width

	sampler := core.NewPathSampler(iteration, pixel, 0)
	jitter := sampler.Get2D()

	// Row 0 is the top of the image
	dir := cam.Direction(float64(x)+jitter.X-0.5, float64(y)+jitter.Y-0.5)
	return PathSegment{
		Ray:              core.NewRay(cam.Position, dir),
		Color:            core.NewVec3(1, 1, 1),
		PixelIndex:       pixel,
		RemainingBounces: budget,
	}
}

// generate fills the path buffer with one fresh camera path per pixel
func (s *Session) generate(iteration int) error {
	cam := &s.scene.Camera
	paths := s.paths.data
	budget := s.scene.MaxBounces

	return s.pool.Launch(StageGenerate, len(paths), s.opts.BlockSize, func(i int) {
		paths[i] = generatePath(cam, iteration, i, budget)
	})
}
