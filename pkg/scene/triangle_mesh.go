package scene

import (
	"fmt"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// MeshTriangles expands an indexed triangle list into triangle primitives.
// Vertices are placed by transform; normals and uvs are optional and indexed
// like positions.
func MeshTriangles(positions, normals []core.Vec3, uvs []core.Vec2, faces []int, transform core.Mat4, materialID int) ([]geometry.Primitive, error) {
	if len(faces)%3 != 0 {
		return nil, fmt.Errorf("face list length %d is not a multiple of 3", len(faces))
	}
	normalTransform := core.Identity()
	if inv, ok := transform.Inverse(); ok {
		normalTransform = inv.Transpose()
	}

	vertex := func(i int) (geometry.Vertex, error) {
		if i < 0 || i >= len(positions) {
			return geometry.Vertex{}, fmt.Errorf("index %d out of range for %d vertices", i, len(positions))
		}
		v := geometry.Vertex{Position: transform.TransformPoint(positions[i])}
		if i < len(normals) && !normals[i].IsZero() {
			v.Normal = normalTransform.TransformVector(normals[i]).Normalize()
		}
		if i < len(uvs) {
			v.UV = uvs[i]
		}
		return v, nil
	}

	prims := make([]geometry.Primitive, 0, len(faces)/3)
	for f := 0; f < len(faces); f += 3 {
		var corners [3]geometry.Vertex
		for k := 0; k < 3; k++ {
			v, err := vertex(faces[f+k])
			if err != nil {
				return nil, fmt.Errorf("face %d: %w", f/3, err)
			}
			corners[k] = v
		}
		// Skip degenerate faces, they can never be hit
		e1 := corners[1].Position.Subtract(corners[0].Position)
		e2 := corners[2].Position.Subtract(corners[0].Position)
		if e1.Cross(e2).LengthSquared() == 0 {
			continue
		}
		prims = append(prims, geometry.NewTriangle(corners[0], corners[1], corners[2], materialID))
	}
	return prims, nil
}

// NewTriangleMeshScene creates a scene showcasing triangle mesh geometry
func NewTriangleMeshScene(cameraOverrides ...CameraConfig) *Scene {
	defaultCameraConfig := CameraConfig{
		Center:      core.NewVec3(0, 2, 6), // Position camera to see the meshes
		LookAt:      core.NewVec3(0, 1, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       600,
		AspectRatio: 16.0 / 9.0,
		VFov:        45.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("triangle-mesh", cameraConfig, 10)

	// Main overhead light and a cool fill light
	warm := s.AddMaterial(material.NewEmissive(core.NewVec3(1.0, 0.92, 0.83), 12))
	cool := s.AddMaterial(material.NewEmissive(core.NewVec3(0.75, 0.87, 1.0), 8))
	s.AddPrimitives(
		geometry.NewSphere(core.NewVec3(2, 6, 3), 1.5, warm),
		geometry.NewSphere(core.NewVec3(-3, 4, 2), 0.8, cool),
	)
	addSkyDome(s, core.NewVec3(0.5, 0.7, 1.0), 0.5, 500)

	ground := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.7, 0.7, 0.7)))
	redMetal := s.AddMaterial(material.NewSpecular(core.NewVec3(0.8, 0.2, 0.2), 0.1))
	blue := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.2, 0.3, 0.8)))
	gold := s.AddMaterial(material.NewSpecular(core.NewVec3(0.8, 0.6, 0.2), 0.05))

	s.AddPrimitives(geometry.NewBox(core.NewVec3(0, -0.5, 0), core.NewVec3(100, 1, 100), core.Vec3{}, ground))
	s.addMesh(boxMesh(), core.ComposeTransform(core.NewVec3(-2, 0.5, 0), core.NewVec3(0, 30, 0), core.NewVec3(1, 1, 1)), redMetal)
	s.addMesh(pyramidMesh(), core.ComposeTransform(core.NewVec3(0, 1, 0), core.NewVec3(0, 45, 0), core.NewVec3(1.5, 2, 1.5)), blue)
	s.addMesh(icosahedronMesh(), core.ComposeTransform(core.NewVec3(2, 0.8, 0), core.NewVec3(0, 60, 0), core.NewVec3(0.8, 0.8, 0.8)), gold)

	return s
}

type indexedMesh struct {
	positions []core.Vec3
	faces     []int
}

func (s *Scene) addMesh(m indexedMesh, transform core.Mat4, materialID int) {
	prims, err := MeshTriangles(m.positions, nil, nil, m.faces, transform, materialID)
	if err != nil {
		panic(err) // built-in meshes are well formed
	}
	s.AddPrimitives(prims...)
}

// boxMesh is the unit cube centered at the origin
func boxMesh() indexedMesh {
	return indexedMesh{
		positions: []core.Vec3{
			core.NewVec3(-0.5, -0.5, -0.5), // 0: left-bottom-back
			core.NewVec3(+0.5, -0.5, -0.5), // 1: right-bottom-back
			core.NewVec3(+0.5, +0.5, -0.5), // 2: right-top-back
			core.NewVec3(-0.5, +0.5, -0.5), // 3: left-top-back
			core.NewVec3(-0.5, -0.5, +0.5), // 4: left-bottom-front
			core.NewVec3(+0.5, -0.5, +0.5), // 5: right-bottom-front
			core.NewVec3(+0.5, +0.5, +0.5), // 6: right-top-front
			core.NewVec3(-0.5, +0.5, +0.5), // 7: left-top-front
		},
		faces: []int{
			0, 1, 2, 0, 2, 3, // back
			4, 6, 5, 4, 7, 6, // front
			0, 3, 7, 0, 7, 4, // left
			1, 5, 6, 1, 6, 2, // right
			0, 4, 5, 0, 5, 1, // bottom
			3, 2, 6, 3, 6, 7, // top
		},
	}
}

// pyramidMesh has a unit square base at y=-0.5 and its apex at y=0.5
func pyramidMesh() indexedMesh {
	return indexedMesh{
		positions: []core.Vec3{
			core.NewVec3(-0.5, -0.5, -0.5), // 0: left-back
			core.NewVec3(+0.5, -0.5, -0.5), // 1: right-back
			core.NewVec3(+0.5, -0.5, +0.5), // 2: right-front
			core.NewVec3(-0.5, -0.5, +0.5), // 3: left-front
			core.NewVec3(0, +0.5, 0),       // 4: apex
		},
		faces: []int{
			0, 2, 1, 0, 3, 2, // base
			0, 1, 4,
			1, 2, 4,
			2, 3, 4,
			3, 0, 4,
		},
	}
}

// icosahedronMesh is the regular icosahedron with unit circumradius
func icosahedronMesh() indexedMesh {
	phi := 1.618033988749895
	scale := 1 / core.NewVec3(0, 1, phi).Length()
	raw := []core.Vec3{
		core.NewVec3(-1, phi, 0), core.NewVec3(1, phi, 0), core.NewVec3(-1, -phi, 0), core.NewVec3(1, -phi, 0),
		core.NewVec3(0, -1, phi), core.NewVec3(0, 1, phi), core.NewVec3(0, -1, -phi), core.NewVec3(0, 1, -phi),
		core.NewVec3(phi, 0, -1), core.NewVec3(phi, 0, 1), core.NewVec3(-phi, 0, -1), core.NewVec3(-phi, 0, 1),
	}
	positions := make([]core.Vec3, len(raw))
	for i, p := range raw {
		positions[i] = p.Multiply(scale)
	}
	return indexedMesh{
		positions: positions,
		faces: []int{
			0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
			1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
			3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
			4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
		},
	}
}
