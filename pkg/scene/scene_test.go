package scene

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

func TestNewCamera_Basis(t *testing.T) {
	camera := NewCamera(CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		Width:       200,
		AspectRatio: 2,
		VFov:        90,
	})

	if camera.Width != 200 || camera.Height != 100 {
		t.Fatalf("Expected 200x100, got %dx%d", camera.Width, camera.Height)
	}

	// tan(45°) = 1, so the view plane spans [-2, 2] x [-1, 1] at unit distance
	if math.Abs(camera.PixelLength.X-4.0/200) > 1e-12 || math.Abs(camera.PixelLength.Y-2.0/100) > 1e-12 {
		t.Errorf("Unexpected pixel length %v", camera.PixelLength)
	}

	tests := []struct {
		name     string
		x, y     float64
		expected core.Vec3
	}{
		{"center", 100, 50, core.NewVec3(0, 0, -1)},
		{"top edge", 100, 0, core.NewVec3(0, 1, -1).Normalize()},
		{"left edge", 0, 50, core.NewVec3(-2, 0, -1).Normalize()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := camera.Direction(tt.x, tt.y)
			if got.Subtract(tt.expected).Length() > 1e-9 {
				t.Errorf("Direction(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.expected)
			}
		})
	}
}

func TestMergeCameraConfig(t *testing.T) {
	base := CameraConfig{Center: core.NewVec3(1, 2, 3), Width: 400, AspectRatio: 1.5, VFov: 40}
	merged := MergeCameraConfig(base, CameraConfig{Width: 64, VFov: 60})

	if merged.Width != 64 || merged.VFov != 60 {
		t.Errorf("Expected overrides applied, got %+v", merged)
	}
	if merged.Center != base.Center || merged.AspectRatio != 1.5 {
		t.Errorf("Expected base values kept, got %+v", merged)
	}
}

func TestScene_Finalize(t *testing.T) {
	s := New("test", CameraConfig{LookAt: core.NewVec3(0, 0, -1), Width: 4, Height: 3, VFov: 40}, 3)
	red := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 0, 0)))
	s.AddPrimitives(
		geometry.NewSphere(core.NewVec3(0, 0, -5), 1, red),
		geometry.NewSphere(core.NewVec3(2, 0, -5), 1, red),
	)

	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if len(s.Image) != 12 {
		t.Errorf("Expected 12 image pixels, got %d", len(s.Image))
	}
	if len(s.Nodes) == 0 || len(s.Primitives) != 2 {
		t.Errorf("Expected BVH over 2 primitives, got %d nodes and %d primitives", len(s.Nodes), len(s.Primitives))
	}

	s.AddPrimitives(geometry.NewSphere(core.Vec3{}, 1, 7))
	if err := s.Finalize(); err == nil {
		t.Error("Expected error for a primitive with an unknown material")
	}
}

func TestScene_FinalizeRejectsBadTexture(t *testing.T) {
	s := New("test", CameraConfig{LookAt: core.NewVec3(0, 0, -1), Width: 2, Height: 2, VFov: 40}, 1)
	s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 1, 1)).WithTexture(material.TextureRef{Offset: 0, Width: 4, Height: 4}))
	if err := s.Finalize(); err == nil {
		t.Error("Expected error for a texture past the end of the texel array")
	}
}

func TestScene_AddTextureFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tex.png")

	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
	file.Close()

	s := &Scene{Texels: []core.Vec3{{}}}
	ref, err := s.AddTextureFile(path)
	if err != nil {
		t.Fatalf("AddTextureFile failed: %v", err)
	}
	if ref.Offset != 1 || ref.Width != 2 || ref.Height != 1 {
		t.Errorf("Unexpected reference %+v", ref)
	}
	if !s.Texels[1].Equals(core.NewVec3(1, 0, 0)) || !s.Texels[2].Equals(core.NewVec3(0, 0, 1)) {
		t.Errorf("Unexpected texels %v", s.Texels)
	}

	ref, err = s.AddTextureFile(filepath.Join(dir, "missing.png"))
	if err == nil {
		t.Error("Expected error for a missing file")
	}
	if !ref.Failed() {
		t.Errorf("Expected the load-error sentinel, got %+v", ref)
	}
}

func TestMeshTriangles(t *testing.T) {
	m := boxMesh()
	prims, err := MeshTriangles(m.positions, nil, nil, m.faces, core.Identity(), 0)
	if err != nil {
		t.Fatalf("MeshTriangles failed: %v", err)
	}
	if len(prims) != 12 {
		t.Errorf("Expected 12 triangles, got %d", len(prims))
	}

	if _, err := MeshTriangles(m.positions, nil, nil, []int{0, 1}, core.Identity(), 0); err == nil {
		t.Error("Expected error for a partial face")
	}
	if _, err := MeshTriangles(m.positions, nil, nil, []int{0, 1, 99}, core.Identity(), 0); err == nil {
		t.Error("Expected error for an out of range index")
	}
}

func TestBumpNormalMap_Encoding(t *testing.T) {
	img := BumpNormalMap(16, 16, 2, 0.8)
	for i, p := range img.Pixels {
		n := p.Multiply(2).Subtract(core.NewVec3(1, 1, 1))
		if math.Abs(n.Length()-1) > 1e-9 || n.Z <= 0 {
			t.Fatalf("texel %d decodes to %v, want a unit vector facing +Z", i, n)
		}
	}
}
