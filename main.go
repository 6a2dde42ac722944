package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-wavefront-pathtracer/pkg/checkpoint"
	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/renderer"
	"github.com/df07/go-wavefront-pathtracer/pkg/scene"
)

// renderConfig holds everything the command line controls
type renderConfig struct {
	Scene      string
	Width      int
	Height     int
	Iterations int
	MaxBounces int
	Texture    string
	Output     string // PNG path; empty picks output/<scene>/render_<timestamp>.png
	Checkpoint string // written after rendering when set
	Resume     string // checkpoint to continue from
	Options    renderer.Options
}

func main() {
	cfg := renderConfig{Options: renderer.DefaultOptions()}

	flag.StringVar(&cfg.Scene, "scene", "cornell-box", "Scene id, gltf:<path> or ply:<path> (see -list)")
	flag.IntVar(&cfg.Width, "width", 0, "Image width (0 keeps the scene default)")
	flag.IntVar(&cfg.Height, "height", 0, "Image height (0 derives it from the aspect ratio)")
	flag.IntVar(&cfg.Iterations, "iterations", 64, "Iterations (samples per pixel) to render")
	flag.IntVar(&cfg.MaxBounces, "bounces", 0, "Bounce budget per path (0 keeps the scene default)")
	flag.StringVar(&cfg.Texture, "texture", "", "Image used by the textured scene")
	flag.StringVar(&cfg.Output, "output", "", "PNG output path")
	flag.StringVar(&cfg.Checkpoint, "checkpoint", "", "Write a checkpoint of the accumulated radiance to this file")
	flag.StringVar(&cfg.Resume, "resume", "", "Resume from a checkpoint file")
	flag.IntVar(&cfg.Options.NumWorkers, "workers", 0, "Worker goroutines (0 = number of CPUs)")
	flag.IntVar(&cfg.Options.BlockSize, "block", cfg.Options.BlockSize, "Paths per kernel block")
	flag.IntVar(&cfg.Options.LogEvery, "log-every", 16, "Log iteration stats every N samples (0 disables)")
	flag.BoolVar(&cfg.Options.SortByMaterial, "sort", false, "Sort paths by material before shading")
	flag.BoolVar(&cfg.Options.ProceduralTextures, "procedural", false, "Use the procedural palette instead of image textures")
	noCompact := flag.Bool("no-compact", false, "Keep terminated paths in the buffer")
	bruteForce := flag.Bool("brute-force", false, "Test every primitive instead of walking the BVH")
	gltfDir := flag.String("gltf-dir", "scenes", "Directory searched by -list")
	list := flag.Bool("list", false, "List available scenes and exit")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Wavefront Path Tracer")
		fmt.Println("Usage: pathtracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Output is saved to output/<scene>/render_<timestamp>.png unless -output is set")
		return
	}

	if *list {
		if err := listScenes(*gltfDir); err != nil {
			log.Fatalf("Error listing scenes: %v", err)
		}
		return
	}

	cfg.Options.CompactPaths = !*noCompact
	cfg.Options.UseBVH = !*bruteForce

	filename, err := run(cfg, renderer.NewDefaultLogger())
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}
	fmt.Printf("Render saved as %s\n", filename)
}

// listScenes prints every scene id grouped as the web client shows them
func listScenes(gltfDir string) error {
	scenes, err := scene.ListAllScenes(gltfDir)
	if err != nil {
		return err
	}
	for _, group := range scenes.Groups {
		fmt.Printf("%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Printf("  %-28s %s\n", info.ID, info.Description)
		}
	}
	return nil
}

// run renders cfg.Iterations iterations and writes the PNG, returning its path
func run(cfg renderConfig, logger core.Logger) (string, error) {
	sc, warnings, err := scene.Load(cfg.Scene, scene.LoadOptions{
		Camera:     scene.CameraConfig{Width: cfg.Width, Height: cfg.Height},
		MaxBounces: cfg.MaxBounces,
		Texture:    cfg.Texture,
	})
	if err != nil {
		return "", err
	}
	for _, warning := range warnings {
		logger.Printf("Warning: %s\n", warning)
	}

	session, err := renderer.NewSession(sc, cfg.Options, logger)
	if err != nil {
		return "", err
	}
	defer session.Close()

	if cfg.Resume != "" {
		cp, err := checkpoint.Load(cfg.Resume)
		if err != nil {
			return "", fmt.Errorf("resume: %w", err)
		}
		if err := cp.Apply(session); err != nil {
			return "", fmt.Errorf("resume: %w", err)
		}
		logger.Printf("Resumed %s at %d samples\n", cfg.Resume, session.Samples())
	}

	startTime := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		// Iteration numbers continue across resumes so samples never repeat
		if err := session.RenderIteration(nil, i, session.Samples()); err != nil {
			return "", err
		}
	}
	logger.Printf("Render completed in %v (%d samples/pixel)\n", time.Since(startTime), session.Samples())

	img := image.NewRGBA(image.Rect(0, 0, sc.Width, sc.Height))
	if err := session.Present(img); err != nil {
		return "", err
	}

	filename := cfg.Output
	if filename == "" {
		outputDir := createOutputDir(cfg.Scene)
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	}
	if err := writePNG(filename, img); err != nil {
		return "", err
	}

	if cfg.Checkpoint != "" {
		cp, err := checkpoint.Capture(session)
		if err != nil {
			return "", err
		}
		if err := checkpoint.Save(cfg.Checkpoint, cp); err != nil {
			return "", fmt.Errorf("save checkpoint: %w", err)
		}
		logger.Printf("Checkpoint saved as %s\n", cfg.Checkpoint)
	}
	return filename, nil
}

// createOutputDir names the output directory after the scene; mesh file scenes
// use the file name without extension
func createOutputDir(sceneID string) string {
	base := sceneID
	for _, prefix := range []string{"gltf:", "ply:"} {
		if path, ok := strings.CutPrefix(sceneID, prefix); ok {
			base = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
	}
	if base == "" || base == "." {
		base = "scene"
	}
	return filepath.Join("output", base)
}

func writePNG(filename string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	return file.Close()
}
