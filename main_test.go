package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-wavefront-pathtracer/pkg/checkpoint"
	"github.com/df07/go-wavefront-pathtracer/pkg/renderer"
)

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

func testRenderConfig(t *testing.T, sceneID string) renderConfig {
	t.Helper()
	opts := renderer.DefaultOptions()
	opts.NumWorkers = 2
	opts.BlockSize = 32
	return renderConfig{
		Scene:      sceneID,
		Width:      12,
		Height:     8,
		Iterations: 2,
		Output:     filepath.Join(t.TempDir(), "out", "render.png"),
		Options:    opts,
	}
}

func TestCreateOutputDir(t *testing.T) {
	tests := []struct {
		sceneID string
		want    string
	}{
		{"cornell-box", filepath.Join("output", "cornell-box")},
		{"default", filepath.Join("output", "default")},
		{"gltf:scenes/duck.glb", filepath.Join("output", "duck")},
		{"gltf:scenes/nested/box-textured.gltf", filepath.Join("output", "box-textured")},
		{"ply:meshes/bunny.ply", filepath.Join("output", "bunny")},
		{"", filepath.Join("output", "scene")},
	}
	for _, tt := range tests {
		t.Run(tt.sceneID, func(t *testing.T) {
			if got := createOutputDir(tt.sceneID); got != tt.want {
				t.Errorf("createOutputDir(%q) = %q, want %q", tt.sceneID, got, tt.want)
			}
		})
	}
}

func TestRunWritesImage(t *testing.T) {
	cfg := testRenderConfig(t, "emissive-sphere")
	filename, err := run(cfg, discardLogger{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if filename != cfg.Output {
		t.Errorf("Expected %s, got %s", cfg.Output, filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		t.Fatalf("Output missing: %v", err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Fatalf("Expected 12x8, got %v", b)
	}
	r, g, b, _ := img.At(6, 4).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("Expected white, got (%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}

func TestRunResumeContinuesSampleCount(t *testing.T) {
	dir := t.TempDir()
	first := testRenderConfig(t, "cornell-box")
	first.Checkpoint = filepath.Join(dir, "cornell.wfpt")
	if _, err := run(first, discardLogger{}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	second := testRenderConfig(t, "cornell-box")
	second.Iterations = 3
	second.Resume = first.Checkpoint
	second.Checkpoint = filepath.Join(dir, "cornell-2.wfpt")
	if _, err := run(second, discardLogger{}); err != nil {
		t.Fatalf("resumed run failed: %v", err)
	}

	cp, err := checkpoint.Load(second.Checkpoint)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp.Samples != 5 {
		t.Errorf("Expected 5 samples after resuming, got %d", cp.Samples)
	}
}

func TestRunResumeRejectsOtherScene(t *testing.T) {
	dir := t.TempDir()
	first := testRenderConfig(t, "emissive-sphere")
	first.Checkpoint = filepath.Join(dir, "light.wfpt")
	if _, err := run(first, discardLogger{}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	second := testRenderConfig(t, "cornell-box")
	second.Resume = first.Checkpoint
	if _, err := run(second, discardLogger{}); err == nil {
		t.Error("Expected resuming a different scene to fail")
	}
}

func TestRunUnknownScene(t *testing.T) {
	if _, err := run(testRenderConfig(t, "no-such-scene"), discardLogger{}); err == nil {
		t.Error("Expected an error for an unknown scene")
	}
}
