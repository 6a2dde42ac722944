package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qmuntal/gltf"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin", "gltf" or "ply"
	FilePath    string `json:"filePath"`    // Path to the mesh file (gltf and ply only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const builtInGroup = "Built-in Scenes"

var builtInScenes = []SceneInfo{
	{ID: "cornell-box", Name: "Cornell Box", Description: "Cornell box with a mirror and a glass sphere"},
	{ID: "default", Name: "Default Scene", Description: "Spheres of every material, a mandelbulb and a sky dome"},
	{ID: "sphere-grid", Name: "Sphere Grid", Description: "20x20 grid of rainbow-colored metallic spheres"},
	{ID: "triangle-mesh", Name: "Triangle Mesh", Description: "Box, pyramid and icosahedron built from triangles"},
	{ID: "textured", Name: "Texture Test", Description: "Image textures, procedural palette and normal maps"},
	{ID: "emissive-sphere", Name: "Emissive Sphere", Description: "Camera inside a single light of emittance 5"},
}

// ListGLTFScenes scans dir for .gltf and .glb files. A missing directory yields no scenes.
func ListGLTFScenes(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.gltf", "*.glb"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	scenes := make([]SceneInfo, 0, len(files))
	for _, filePath := range files {
		scenes = append(scenes, ParseGLTFMetadata(filePath))
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ParseGLTFMetadata names a glTF scene after its default scene, falling back to
// the file name. Files that fail to parse keep the fallback values.
func ParseGLTFMetadata(filePath string) SceneInfo {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:          "gltf:" + filePath,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "glTF Scenes",
		Type:        "gltf",
		FilePath:    filePath,
	}

	doc, err := gltf.Open(filePath)
	if err != nil {
		return info
	}
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) && doc.Scenes[*doc.Scene].Name != "" {
		info.Name = doc.Scenes[*doc.Scene].Name
		info.DisplayName = info.Name
	}
	if doc.Asset.Generator != "" {
		info.Description = fmt.Sprintf("%d meshes, exported by %s", len(doc.Meshes), doc.Asset.Generator)
	} else {
		info.Description = fmt.Sprintf("%d meshes", len(doc.Meshes))
	}
	return info
}

// ListPLYScenes scans dir for .ply meshes. A missing directory yields no scenes.
func ListPLYScenes(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.ply"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := make([]SceneInfo, 0, len(files))
	for _, filePath := range files {
		name := titleCase(strings.TrimSuffix(filepath.Base(filePath), ".ply"))
		scenes = append(scenes, SceneInfo{
			ID:          "ply:" + filePath,
			Name:        name,
			DisplayName: name,
			Description: "PLY triangle mesh",
			Group:       "PLY Meshes",
			Type:        "ply",
			FilePath:    filePath,
		})
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ListAllScenes returns both built-in and glTF scenes, grouped by category
func ListAllScenes(gltfDir string) (ScenesResponse, error) {
	var response ScenesResponse

	all := make([]SceneInfo, 0, len(builtInScenes))
	for _, info := range builtInScenes {
		info.DisplayName = info.Name
		info.Group = builtInGroup
		info.Type = "builtin"
		all = append(all, info)
	}

	gltfScenes, err := ListGLTFScenes(gltfDir)
	if err != nil {
		return response, fmt.Errorf("failed to list glTF scenes: %w", err)
	}
	all = append(all, gltfScenes...)

	plyScenes, err := ListPLYScenes(gltfDir)
	if err != nil {
		return response, fmt.Errorf("failed to list PLY scenes: %w", err)
	}
	all = append(all, plyScenes...)

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, scene := range all {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{Name: builtInGroup, Scenes: groupMap[builtInGroup]})
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: groupName, Scenes: groupMap[groupName]})
	}

	return response, nil
}

// LoadOptions tune how Load builds a scene
type LoadOptions struct {
	Camera     CameraConfig // non-zero fields override the scene's camera
	MaxBounces int          // overrides the scene's budget when > 0
	Texture    string       // image for the textured scene
}

// Load builds the scene with the given id and finalizes it. Ids are the
// built-in names, "gltf:<path>" or "ply:<path>". The returned warnings are non-fatal problems
// such as textures that failed to load and will render magenta.
func Load(id string, opts LoadOptions) (*Scene, []string, error) {
	var s *Scene
	var warnings []string

	switch {
	case id == "cornell-box" || id == "cornell":
		s = NewCornellScene(opts.Camera)
	case id == "default" || id == "basic":
		s = NewDefaultScene(opts.Camera)
	case id == "sphere-grid":
		s = NewSphereGridScene(20, opts.Camera)
	case id == "triangle-mesh":
		s = NewTriangleMeshScene(opts.Camera)
	case id == "textured":
		var err error
		s, err = NewTextureTestScene(opts.Texture, opts.Camera)
		if err != nil {
			warnings = append(warnings, err.Error())
		}
	case id == "emissive-sphere":
		width, height := opts.Camera.Width, opts.Camera.Height
		if width <= 0 {
			width = 64
		}
		if height <= 0 {
			height = width
		}
		s = NewEmissiveSphereScene(width, height, 4)
	case strings.HasPrefix(id, "gltf:"):
		var result GLTFResult
		var err error
		s, result, err = NewGLTFScene(strings.TrimPrefix(id, "gltf:"), opts.Camera)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, result.Warnings...)
	case strings.HasPrefix(id, "ply:"):
		var err error
		s, err = NewPLYScene(strings.TrimPrefix(id, "ply:"), opts.Camera)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("unknown scene %q", id)
	}

	if opts.MaxBounces > 0 {
		s.MaxBounces = opts.MaxBounces
	}
	if err := s.Finalize(); err != nil {
		return nil, warnings, fmt.Errorf("scene %s: %w", id, err)
	}
	return s, warnings, nil
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
