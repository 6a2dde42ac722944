package scene

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// writeTestPLY writes a unit quad as two triangles in binary form
func writeTestPLY(t *testing.T, filename string, order binary.ByteOrder, includeNormals, includeColors bool) {
	t.Helper()
	var buf bytes.Buffer

	format := "binary_little_endian"
	if order == binary.BigEndian {
		format = "binary_big_endian"
	}
	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("comment unit quad\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\nproperty float y\nproperty float z\n")
	if includeNormals {
		buf.WriteString("property float nx\nproperty float ny\nproperty float nz\n")
	}
	if includeColors {
		buf.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for _, p := range positions {
		binary.Write(&buf, order, p)
		if includeNormals {
			binary.Write(&buf, order, [3]float32{0, 0, 1})
		}
		if includeColors {
			buf.Write([]byte{255, 0, 51})
		}
	}
	for _, face := range [][3]int32{{0, 1, 2}, {0, 2, 3}} {
		buf.WriteByte(3)
		binary.Write(&buf, order, face)
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write PLY: %v", err)
	}
}

func TestLoadPLY_Binary(t *testing.T) {
	tests := []struct {
		name    string
		order   binary.ByteOrder
		normals bool
		colors  bool
	}{
		{"little endian positions only", binary.LittleEndian, false, false},
		{"little endian with normals and colors", binary.LittleEndian, true, true},
		{"big endian with normals", binary.BigEndian, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "quad.ply")
			writeTestPLY(t, path, tt.order, tt.normals, tt.colors)

			mesh, err := LoadPLY(path)
			if err != nil {
				t.Fatalf("LoadPLY failed: %v", err)
			}
			if len(mesh.Positions) != 4 {
				t.Fatalf("Expected 4 vertices, got %d", len(mesh.Positions))
			}
			if !mesh.Positions[2].Equals(core.NewVec3(1, 1, 0)) {
				t.Errorf("Vertex 2 = %v", mesh.Positions[2])
			}
			want := []int{0, 1, 2, 0, 2, 3}
			if len(mesh.Faces) != len(want) {
				t.Fatalf("Expected faces %v, got %v", want, mesh.Faces)
			}
			for i := range want {
				if mesh.Faces[i] != want[i] {
					t.Fatalf("Expected faces %v, got %v", want, mesh.Faces)
				}
			}
			if got := len(mesh.Normals) > 0; got != tt.normals {
				t.Errorf("Normals present = %v, want %v", got, tt.normals)
			}
			if tt.normals && !mesh.Normals[0].Equals(core.NewVec3(0, 0, 1)) {
				t.Errorf("Normal 0 = %v", mesh.Normals[0])
			}
			if got := len(mesh.Colors) > 0; got != tt.colors {
				t.Errorf("Colors present = %v, want %v", got, tt.colors)
			}
			if tt.colors && math.Abs(mesh.Colors[0].Z-0.2) > 1e-9 {
				t.Errorf("Expected blue 0.2, got %v", mesh.Colors[0].Z)
			}
		})
	}
}

func TestReadPLY_ASCIIFansPolygons(t *testing.T) {
	const data = `ply
format ascii 1.0
element vertex 5
property double x
property double y
property double z
property float s
property float t
element face 1
property list uchar uint vertex_index
element edge 1
property int vertex1
property int vertex2
end_header
0 0 0 0 0
1 0 0 1 0
1.5 1 0 1 0.5
0.5 1.5 0 0.5 1
-0.5 1 0 0 0.5
5 0 1 2 3 4
0 1
`
	mesh, err := ReadPLY(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadPLY failed: %v", err)
	}
	if len(mesh.Faces) != 9 {
		t.Fatalf("Expected a pentagon fanned into 3 triangles, got %v", mesh.Faces)
	}
	if mesh.Faces[6] != 0 || mesh.Faces[7] != 3 || mesh.Faces[8] != 4 {
		t.Errorf("Unexpected last triangle %v", mesh.Faces[6:])
	}
	if len(mesh.UVs) != 5 || mesh.UVs[3] != core.NewVec2(0.5, 1) {
		t.Errorf("Unexpected uvs %v", mesh.UVs)
	}
}

func TestReadPLY_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing magic", "plx\nformat ascii 1.0\nend_header\n"},
		{"missing format", "ply\nelement vertex 0\nend_header\n"},
		{"unknown format", "ply\nformat utf16 1.0\nend_header\n"},
		{"unknown type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n"},
		{"truncated header", "ply\nformat ascii 1.0\n"},
		{"truncated body", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nend_header\n1\n"},
		{"index out of range", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0\n3 0 0 7\n"},
		{"degenerate face", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0\n2 0 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadPLY(strings.NewReader(tt.data)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoad_PLYScene(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "red-quad.ply")
	writeTestPLY(t, path, binary.LittleEndian, true, true)

	s, _, err := Load("ply:"+path, LoadOptions{Camera: CameraConfig{Width: 32, Height: 18}})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Name != "ply:red-quad.ply" || s.Width != 32 || s.Height != 18 {
		t.Errorf("Unexpected scene %s %dx%d", s.Name, s.Width, s.Height)
	}
	if len(s.Nodes) == 0 {
		t.Error("Expected Load to build the BVH")
	}
	if albedo := s.Materials[0].Color; math.Abs(albedo.X-1) > 1e-9 || albedo.Y != 0 {
		t.Errorf("Expected vertex colours averaged into the albedo, got %v", albedo)
	}

	scenes, err := ListPLYScenes(dir)
	if err != nil || len(scenes) != 1 {
		t.Fatalf("Expected 1 PLY scene, got %d (%v)", len(scenes), err)
	}
	if scenes[0].ID != "ply:"+path || scenes[0].DisplayName != "Red Quad" {
		t.Errorf("Unexpected scene info %+v", scenes[0])
	}
}
