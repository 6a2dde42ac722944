package scene

import (
	"path/filepath"
	"testing"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"cornell-empty", "Cornell Empty"},
		{"dragon_gold", "Dragon Gold"},
		{"my-custom-scene", "My Custom Scene"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := titleCase(tc.input)
			if result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestListGLTFScenes(t *testing.T) {
	dir := t.TempDir()
	writeTriangleGLB(t, filepath.Join(dir, "single-triangle.glb"))

	scenes, err := ListGLTFScenes(dir)
	if err != nil {
		t.Fatalf("ListGLTFScenes failed: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("Expected 1 scene, got %d", len(scenes))
	}
	info := scenes[0]
	if info.Type != "gltf" || info.ID != "gltf:"+filepath.Join(dir, "single-triangle.glb") {
		t.Errorf("Unexpected scene info %+v", info)
	}
	if info.DisplayName != "Single Triangle" {
		t.Errorf("Expected display name from file name, got %q", info.DisplayName)
	}

	missing, err := ListGLTFScenes(filepath.Join(dir, "does-not-exist"))
	if err != nil || len(missing) != 0 {
		t.Errorf("Expected no scenes and no error for missing dir, got %d, %v", len(missing), err)
	}
}

func TestListAllScenes(t *testing.T) {
	dir := t.TempDir()
	writeTriangleGLB(t, filepath.Join(dir, "tri.glb"))

	response, err := ListAllScenes(dir)
	if err != nil {
		t.Fatalf("ListAllScenes failed: %v", err)
	}
	if len(response.Groups) != 2 {
		t.Fatalf("Expected built-in and glTF groups, got %d", len(response.Groups))
	}
	if response.Groups[0].Name != builtInGroup {
		t.Errorf("Expected built-in group first, got %q", response.Groups[0].Name)
	}
	if len(response.Groups[0].Scenes) != len(builtInScenes) {
		t.Errorf("Expected %d built-in scenes, got %d", len(builtInScenes), len(response.Groups[0].Scenes))
	}
}

func TestLoad_BuiltIns(t *testing.T) {
	small := LoadOptions{Camera: CameraConfig{Width: 16, Height: 12}}

	for _, info := range builtInScenes {
		t.Run(info.ID, func(t *testing.T) {
			s, _, err := Load(info.ID, small)
			if err != nil {
				t.Fatalf("Load(%q) failed: %v", info.ID, err)
			}
			if s.Width != 16 || s.Height != 12 {
				t.Errorf("Expected 16x12, got %dx%d", s.Width, s.Height)
			}
			if len(s.Image) != s.PixelCount() {
				t.Errorf("Expected image of %d pixels, got %d", s.PixelCount(), len(s.Image))
			}
			if len(s.Primitives) > 0 && len(s.Nodes) == 0 {
				t.Error("Expected a BVH after Load")
			}
			if s.MaxBounces <= 0 {
				t.Errorf("Expected a positive bounce budget, got %d", s.MaxBounces)
			}
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	s, _, err := Load("cornell-box", LoadOptions{Camera: CameraConfig{Width: 8, Height: 8}, MaxBounces: 2})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.MaxBounces != 2 {
		t.Errorf("Expected bounce override 2, got %d", s.MaxBounces)
	}

	if _, _, err := Load("no-such-scene", LoadOptions{}); err == nil {
		t.Error("Expected error for unknown scene")
	}
}

func TestLoad_TexturedWithMissingImage(t *testing.T) {
	s, warnings, err := Load("textured", LoadOptions{
		Camera:  CameraConfig{Width: 8, Height: 8},
		Texture: filepath.Join(t.TempDir(), "missing.png"),
	})
	if err != nil {
		t.Fatalf("Expected the scene to load despite the missing image: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("Expected one warning, got %v", warnings)
	}

	failed := 0
	for i := range s.Materials {
		if s.Materials[i].LoadFailed() {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("Expected one material with the load-error sentinel, got %d", failed)
	}
}
