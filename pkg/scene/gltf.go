package scene

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// GLTFResult summarizes what LoadGLTFMeshes added to a scene
type GLTFResult struct {
	Triangles int
	Materials int
	Textures  int
	Warnings  []string // non-fatal problems such as undecodable images
}

// LoadGLTFMeshes opens a .gltf or .glb file and appends every triangle mesh
// primitive reachable from the default scene, placed by the node hierarchy and
// then by transform. glTF materials map onto diffuse, specular or emissive
// materials; base color and normal textures go into the texel array.
func LoadGLTFMeshes(s *Scene, path string, transform core.Mat4) (GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return GLTFResult{}, fmt.Errorf("gltf open %q: %w", path, err)
	}
	l := &gltfLoader{
		doc:      doc,
		dir:      filepath.Dir(path),
		scene:    s,
		textures: make(map[int]material.TextureRef),
	}
	if err := l.load(transform); err != nil {
		return l.result, fmt.Errorf("gltf %q: %w", path, err)
	}
	return l.result, nil
}

type gltfLoader struct {
	doc      *gltf.Document
	dir      string
	scene    *Scene
	result   GLTFResult
	textures map[int]material.TextureRef // glTF texture index -> texel reference
	matIDs   []int                       // glTF material index -> scene material id
	fallback int                         // material for primitives without one; -1 until needed
}

func (l *gltfLoader) load(transform core.Mat4) error {
	l.fallback = -1
	l.matIDs = make([]int, len(l.doc.Materials))
	for i, gm := range l.doc.Materials {
		l.matIDs[i] = l.scene.AddMaterial(l.convertMaterial(gm))
		l.result.Materials++
	}

	for _, root := range l.roots() {
		if err := l.walk(root, transform, 0); err != nil {
			return err
		}
	}
	return nil
}

// roots returns the default scene's nodes, or every parentless node when there is none
func (l *gltfLoader) roots() []int {
	if l.doc.Scene != nil && *l.doc.Scene < len(l.doc.Scenes) {
		return l.doc.Scenes[*l.doc.Scene].Nodes
	}
	hasParent := make([]bool, len(l.doc.Nodes))
	for _, n := range l.doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range l.doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (l *gltfLoader) walk(index int, parent core.Mat4, depth int) error {
	if index < 0 || index >= len(l.doc.Nodes) {
		return fmt.Errorf("node index %d out of range", index)
	}
	if depth > 64 {
		return fmt.Errorf("node hierarchy deeper than 64 levels")
	}
	node := l.doc.Nodes[index]
	world := parent.Mul(nodeTransform(node))

	if node.Mesh != nil {
		if *node.Mesh >= len(l.doc.Meshes) {
			return fmt.Errorf("node %d references mesh %d", index, *node.Mesh)
		}
		for pi, prim := range l.doc.Meshes[*node.Mesh].Primitives {
			if err := l.addPrimitive(prim, world); err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", *node.Mesh, pi, err)
			}
		}
	}
	for _, child := range node.Children {
		if err := l.walk(child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeTransform returns the node's local matrix, from Matrix when set or else from TRS
func nodeTransform(n *gltf.Node) core.Mat4 {
	if n.Matrix != [16]float64{} && n.Matrix != gltf.DefaultMatrix {
		return core.FromColumnMajor(n.Matrix)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault() // [x, y, z, w]
	sc := n.ScaleOrDefault()
	return core.Translation(core.NewVec3(t[0], t[1], t[2])).
		Mul(core.Quaternion(r[0], r[1], r[2], r[3])).
		Mul(core.Scale(core.NewVec3(sc[0], sc[1], sc[2])))
}

func (l *gltfLoader) addPrimitive(prim *gltf.Primitive, world core.Mat4) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		l.warnf("skipping primitive with mode %v", prim.Mode)
		return nil
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("no POSITION attribute")
	}
	raw, err := modeler.ReadPosition(l.doc, l.doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	positions := make([]core.Vec3, len(raw))
	for i, p := range raw {
		positions[i] = core.NewVec3(float64(p[0]), float64(p[1]), float64(p[2]))
	}

	var normals []core.Vec3
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if rawNormals, err := modeler.ReadNormal(l.doc, l.doc.Accessors[idx], nil); err == nil {
			normals = make([]core.Vec3, len(rawNormals))
			for i, n := range rawNormals {
				normals[i] = core.NewVec3(float64(n[0]), float64(n[1]), float64(n[2]))
			}
		}
	}

	var uvs []core.Vec2
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if rawUVs, err := modeler.ReadTextureCoord(l.doc, l.doc.Accessors[idx], nil); err == nil {
			uvs = make([]core.Vec2, len(rawUVs))
			for i, uv := range rawUVs {
				// glTF puts v=0 at the top of the image
				uvs[i] = core.NewVec2(float64(uv[0]), 1-float64(uv[1]))
			}
		}
	}

	var faces []int
	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(l.doc, l.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("indices: %w", err)
		}
		faces = make([]int, len(indices))
		for i, idx := range indices {
			faces[i] = int(idx)
		}
	} else {
		faces = make([]int, len(positions))
		for i := range faces {
			faces[i] = i
		}
	}

	materialID := l.fallbackMaterial()
	if prim.Material != nil && *prim.Material < len(l.matIDs) {
		materialID = l.matIDs[*prim.Material]
	}

	tris, err := MeshTriangles(positions, normals, uvs, faces, world, materialID)
	if err != nil {
		return err
	}
	l.scene.AddPrimitives(tris...)
	l.result.Triangles += len(tris)
	return nil
}

func (l *gltfLoader) fallbackMaterial() int {
	if l.fallback < 0 {
		l.fallback = l.scene.AddMaterial(material.NewDiffuse(core.NewVec3(0.7, 0.7, 0.7)))
	}
	return l.fallback
}

// convertMaterial approximates metallic-roughness PBR with the three BSDF kinds
func (l *gltfLoader) convertMaterial(gm *gltf.Material) material.Material {
	m := material.NewDiffuse(core.NewVec3(0.8, 0.8, 0.8))

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		cf := pbr.BaseColorFactorOrDefault()
		color := core.NewVec3(cf[0], cf[1], cf[2])
		if pbr.MetallicFactorOrDefault() > 0.5 {
			m = material.NewSpecular(color, pbr.RoughnessFactorOrDefault())
		} else {
			m = material.NewDiffuse(color)
		}
		if pbr.BaseColorTexture != nil {
			m.Texture = l.texture(pbr.BaseColorTexture.Index)
		}
	}

	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		m.NormalMap = l.texture(*gm.NormalTexture.Index)
	}

	// Emission wins over everything else, the shader terminates on lights
	e := gm.EmissiveFactor
	if peak := math.Max(e[0], math.Max(e[1], e[2])); peak > 0 {
		m = material.NewEmissive(core.NewVec3(e[0]/peak, e[1]/peak, e[2]/peak), peak)
	}
	return m
}

// texture decodes a glTF texture into the texel array once. Images that cannot
// be read yield the load-error sentinel and a warning.
func (l *gltfLoader) texture(index int) material.TextureRef {
	if ref, ok := l.textures[index]; ok {
		return ref
	}
	ref, err := l.decodeTexture(index)
	if err != nil {
		l.warnf("texture %d: %v", index, err)
		ref = material.TextureRef{Offset: material.TextureLoadError}
	} else {
		l.result.Textures++
	}
	l.textures[index] = ref
	return ref
}

func (l *gltfLoader) decodeTexture(index int) (material.TextureRef, error) {
	if index < 0 || index >= len(l.doc.Textures) || l.doc.Textures[index].Source == nil {
		return material.NoTextureRef, fmt.Errorf("no image source")
	}
	source := *l.doc.Textures[index].Source
	if source >= len(l.doc.Images) {
		return material.NoTextureRef, fmt.Errorf("image %d out of range", source)
	}
	img := l.doc.Images[source]

	var data *ImageData
	var err error
	switch {
	case img.BufferView != nil:
		// Binary GLB: image data lives in a buffer view
		raw, rerr := modeler.ReadBufferView(l.doc, l.doc.BufferViews[*img.BufferView])
		if rerr != nil {
			return material.NoTextureRef, fmt.Errorf("bufferview: %w", rerr)
		}
		data, err = DecodeImage(bytes.NewReader(raw))
	case img.IsEmbeddedResource():
		raw, rerr := img.MarshalData()
		if rerr != nil {
			return material.NoTextureRef, fmt.Errorf("embedded data: %w", rerr)
		}
		data, err = DecodeImage(bytes.NewReader(raw))
	case img.URI != "":
		data, err = LoadImage(filepath.Join(l.dir, img.URI))
	default:
		return material.NoTextureRef, fmt.Errorf("image %d has no data", source)
	}
	if err != nil {
		return material.NoTextureRef, err
	}
	return l.scene.AddTexture(data.Width, data.Height, data.Pixels)
}

func (l *gltfLoader) warnf(format string, args ...interface{}) {
	l.result.Warnings = append(l.result.Warnings, fmt.Sprintf(format, args...))
}

// NewGLTFScene frames the meshes of a glTF file with a camera, a ground box and lights
func NewGLTFScene(path string, cameraOverrides ...CameraConfig) (*Scene, GLTFResult, error) {
	probe := &Scene{}
	result, err := LoadGLTFMeshes(probe, path, core.Identity())
	if err != nil {
		return nil, result, err
	}
	if len(probe.Primitives) == 0 {
		return nil, result, fmt.Errorf("gltf %q has no triangles", path)
	}

	return frameMeshScene("gltf:"+filepath.Base(path), probe, cameraOverrides...), result, nil
}

// frameMeshScene places the primitives, materials and texels of probe under a
// camera looking at their bounds, on a ground box lit by a sphere light and a
// sky dome
func frameMeshScene(name string, probe *Scene, cameraOverrides ...CameraConfig) *Scene {
	bounds := core.EmptyAABB()
	for i := range probe.Primitives {
		bounds = bounds.Union(probe.Primitives[i].Bounds())
	}
	center := bounds.Center()
	radius := bounds.Size().Length() * 0.5

	defaultCameraConfig := CameraConfig{
		Center:      center.Add(core.NewVec3(0, radius*0.6, radius*2.6)),
		LookAt:      center,
		Up:          core.NewVec3(0, 1, 0),
		Width:       600,
		AspectRatio: 16.0 / 9.0,
		VFov:        45,
	}
	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New(name, cameraConfig, 10)
	s.Materials = probe.Materials
	s.Texels = probe.Texels
	s.AddPrimitives(probe.Primitives...)

	ground := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.6, 0.6, 0.6)))
	light := s.AddMaterial(material.NewEmissive(core.NewVec3(1, 0.95, 0.9), 12))
	s.AddPrimitives(
		geometry.NewBox(core.NewVec3(center.X, bounds.Min.Y-radius*0.05, center.Z),
			core.NewVec3(radius*40, radius*0.1, radius*40), core.Vec3{}, ground),
		geometry.NewSphere(center.Add(core.NewVec3(radius*2, radius*3, radius*2)), radius*0.8, light),
	)
	addSkyDome(s, core.NewVec3(0.5, 0.7, 1.0), 0.5, radius*200)
	return s
}
