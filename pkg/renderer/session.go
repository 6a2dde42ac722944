package renderer

import (
	"fmt"
	"image"
	"time"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/scene"
)

// Session owns every resource of a render: the scene mirror, the path,
// intersection and image buffers, and the worker pool. A Session is not safe
// for concurrent use.
type Session struct {
	scene  *scene.Scene
	opts   Options
	logger core.Logger

	mirror sceneMirror
	paths  buffer[PathSegment]
	hits   buffer[Intersection]
	image  buffer[core.Vec3]
	pool   *WorkerPool

	samples   int // iterations accumulated into image
	lastStats IterationStats
	closed    bool
}

// NewSession validates sc, uploads it and allocates the working buffers. On
// failure everything allocated so far is released before returning.
func NewSession(sc *scene.Scene, opts Options, logger core.Logger) (*Session, error) {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	opts = opts.normalized()
	if err := validateScene(sc, opts); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}

	s := &Session{
		scene:  sc,
		opts:   opts,
		logger: logger,
		mirror: newSceneMirror(),
		paths:  newBuffer[PathSegment]("paths"),
		hits:   newBuffer[Intersection]("intersections"),
		image:  newBuffer[core.Vec3]("image"),
	}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}

	logger.Printf("Session %q: %dx%d (%d pixels), %d primitives, %d nodes, %d materials, %d texels, %d workers\n",
		sc.Name, sc.Width, sc.Height, sc.PixelCount(), len(sc.Primitives), len(sc.Nodes),
		len(sc.Materials), len(sc.Texels), s.pool.GetNumWorkers())
	return s, nil
}

func (s *Session) init() error {
	if err := s.mirror.upload(s.scene); err != nil {
		return err
	}

	n := s.scene.PixelCount()
	if err := s.paths.allocate(n); err != nil {
		return err
	}
	if err := s.hits.allocate(n); err != nil {
		return err
	}
	if err := s.image.allocate(n); err != nil {
		return err
	}

	s.pool = NewWorkerPool(s.opts.NumWorkers)
	s.pool.Start()
	return nil
}

// RenderIteration traces one sample per pixel, adds it to the image and, when
// target is not nil, writes the averaged image into it. frame is only used for
// reporting; iteration seeds the random streams. With a zero bounce budget the
// call does nothing.
func (s *Session) RenderIteration(target *image.RGBA, frame, iteration int) error {
	if s.closed {
		return fmt.Errorf("render iteration: session closed")
	}

	budget := s.scene.MaxBounces
	if budget == 0 {
		return nil
	}

	start := time.Now()
	stats := IterationStats{Frame: frame, Iteration: iteration}

	if err := stats.timeStage(StageGenerate, func() error { return s.generate(iteration) }); err != nil {
		return err
	}

	active := s.paths.len()
	for depth := 0; depth < budget && active > 0; depth++ {
		stats.ActivePaths = append(stats.ActivePaths, active)
		stats.Bounces++

		if err := stats.timeStage(StageIntersect, func() error { return s.intersect(active) }); err != nil {
			return err
		}
		if s.opts.SortByMaterial {
			_ = stats.timeStage(StageSort, func() error {
				sortByMaterial(s.paths.data[:active], s.hits.data[:active])
				return nil
			})
		}
		if err := stats.timeStage(StageShade, func() error { return s.shade(active, iteration, depth) }); err != nil {
			return err
		}
		if s.opts.CompactPaths {
			_ = stats.timeStage(StageCompact, func() error {
				active = compactPaths(s.paths.data[:active])
				return nil
			})
		}
	}

	if err := stats.timeStage(StageGather, s.gather); err != nil {
		return err
	}
	s.samples++

	if err := stats.timeStage(StagePresent, func() error { return s.present(target) }); err != nil {
		return err
	}

	stats.Duration = time.Since(start)
	s.lastStats = stats
	if s.opts.LogEvery > 0 && s.samples%s.opts.LogEvery == 0 {
		s.logger.Printf("Iteration %d (frame %d): %d bounces, active %v, %v\n",
			iteration, frame, stats.Bounces, stats.ActivePaths, stats.Duration)
	}
	return nil
}

// LastStats returns the statistics of the most recent iteration
func (s *Session) LastStats() IterationStats {
	return s.lastStats
}

// Samples returns the number of iterations accumulated into the image
func (s *Session) Samples() int {
	return s.samples
}

// Scene returns the scene the session renders
func (s *Session) Scene() *scene.Scene {
	return s.scene
}

// Present writes the current averaged image into target without tracing
func (s *Session) Present(target *image.RGBA) error {
	if s.closed {
		return fmt.Errorf("present: session closed")
	}
	return s.present(target)
}

// CopyImage copies the accumulated radiance sums into dst
func (s *Session) CopyImage(dst []core.Vec3) error {
	return s.image.download(dst)
}

// Download copies the accumulated radiance sums into the scene's host image
func (s *Session) Download() error {
	if len(s.scene.Image) != s.image.len() {
		s.scene.Image = make([]core.Vec3, s.image.len())
	}
	return s.image.download(s.scene.Image)
}

// ResetImage discards everything accumulated so far
func (s *Session) ResetImage() {
	s.image.clear(core.Vec3{})
	s.samples = 0
}

// Restore replaces the image with radiance sums accumulated over samples iterations
func (s *Session) Restore(samples int, radiance []core.Vec3) error {
	if samples < 0 {
		return fmt.Errorf("restore: negative sample count %d", samples)
	}
	if err := s.image.upload(radiance); err != nil {
		return err
	}
	s.samples = samples
	return nil
}

// Close releases every buffer and stops the worker pool. It is safe to call
// on a partially initialised session and more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.pool != nil {
		s.pool.Stop()
	}
	s.mirror.release()
	s.paths.release()
	s.hits.release()
	s.image.release()

	if s.samples > 0 {
		s.logger.Printf("Session %q closed after %d samples\n", s.scene.Name, s.samples)
	}
}
