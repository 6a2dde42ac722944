package renderer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	InitialSamples     int // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int // Maximum total samples per pixel
	MaxPasses          int // Maximum number of passes
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		InitialSamples:     1,
		MaxSamplesPerPixel: 64,
		MaxPasses:          8,
	}
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// Progressive renders a session in passes of increasing sample counts,
// presenting the image after every pass
type Progressive struct {
	session *Session
	config  ProgressiveConfig
	logger  core.Logger
}

// NewProgressive creates a progressive renderer driving session
func NewProgressive(session *Session, config ProgressiveConfig, logger core.Logger) *Progressive {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	if config.MaxPasses <= 0 {
		config.MaxPasses = 1
	}
	config.InitialSamples = max(1, config.InitialSamples)
	config.MaxSamplesPerPixel = max(config.InitialSamples, config.MaxSamplesPerPixel)
	return &Progressive{session: session, config: config, logger: logger}
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *Progressive) getSamplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if pr.config.MaxPasses == 1 {
		return pr.config.MaxSamplesPerPixel
	}

	// For multiple passes: first pass is quick preview
	if passNumber == 1 {
		return pr.config.InitialSamples
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := pr.config.MaxSamplesPerPixel - pr.config.InitialSamples
	remainingPasses := pr.config.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := pr.config.InitialSamples + (passNumber-1)*samplesPerPass

	// For the final pass, use all remaining samples
	if passNumber == pr.config.MaxPasses {
		targetSamples = pr.config.MaxSamplesPerPixel
	}

	return targetSamples
}

// RenderPass renders iterations until the session holds the pass's target
// sample count. The context is checked between iterations.
func (pr *Progressive) RenderPass(ctx context.Context, passNumber int) (PassResult, error) {
	start := time.Now()
	target := pr.getSamplesForPass(passNumber)
	sc := pr.session.Scene()

	iterations := 0
	for pr.session.Samples() < target {
		if err := ctx.Err(); err != nil {
			return PassResult{}, err
		}
		iteration := pr.session.Samples()
		if err := pr.session.RenderIteration(nil, passNumber, iteration); err != nil {
			return PassResult{}, err
		}
		iterations++
		if sc.MaxBounces == 0 {
			break // iterations are no-ops
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, sc.Width, sc.Height))
	if err := pr.session.Present(img); err != nil {
		return PassResult{}, err
	}

	samples := pr.session.Samples()
	return PassResult{
		PassNumber: passNumber,
		Image:      img,
		Stats: RenderStats{
			TotalPixels:      sc.PixelCount(),
			TotalSamples:     samples,
			PassIterations:   iterations,
			AverageLuminance: CalculateAverageLuminance(img),
			PassDuration:     time.Since(start),
			LastIteration:    pr.session.LastStats(),
		},
		IsLast: passNumber == pr.config.MaxPasses || samples >= pr.config.MaxSamplesPerPixel || sc.MaxBounces == 0,
	}, nil
}

// Run renders every pass in order and hands each result to onPass. It stops
// early when the context is cancelled, onPass returns an error, or the sample
// limit is reached.
func (pr *Progressive) Run(ctx context.Context, onPass func(PassResult) error) error {
	pr.logger.Printf("Starting progressive rendering with %d passes...\n", pr.config.MaxPasses)

	for pass := 1; pass <= pr.config.MaxPasses; pass++ {
		result, err := pr.RenderPass(ctx, pass)
		if err != nil {
			if ctx.Err() != nil {
				pr.logger.Printf("Rendering cancelled during pass %d\n", pass)
			}
			return err
		}

		pr.logger.Printf("Pass %d completed in %v (%d samples/pixel, %d iterations)\n",
			pass, result.Stats.PassDuration, result.Stats.TotalSamples, result.Stats.PassIterations)

		if onPass != nil {
			if err := onPass(result); err != nil {
				return err
			}
		}
		if result.IsLast {
			break
		}
	}
	return nil
}

// RenderProgressive runs the passes on a new goroutine and delivers results on
// the returned channel. The error channel receives at most one value; both
// channels are closed when rendering ends.
func (pr *Progressive) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		err := pr.Run(ctx, func(result PassResult) error {
			select {
			case passChan <- result:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errChan <- err
		}
	}()

	return passChan, errChan
}
