package scene

import (
	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// NewCornellScene creates a classic Cornell box built from thin boxes with a ceiling light
func NewCornellScene(cameraOverrides ...CameraConfig) *Scene {
	defaultCameraConfig := CameraConfig{
		Center:      core.NewVec3(278, 278, -800), // Position camera outside the box looking in
		LookAt:      core.NewVec3(278, 278, 0),    // Look at the center of the box
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 1.0,
		VFov:        40.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("cornell-box", cameraConfig, 8)

	white := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.73, 0.73, 0.73)))
	red := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.65, 0.05, 0.05)))
	green := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.12, 0.45, 0.15)))
	light := s.AddMaterial(material.NewEmissive(core.NewVec3(1, 1, 1), 15))
	mirror := s.AddMaterial(material.NewSpecular(core.NewVec3(0.8, 0.8, 0.9), 0.0))
	glass := s.AddMaterial(material.NewDielectric(1.5))

	// Cornell box dimensions (standard 555x555x555 units), walls are 10 units thick
	const boxSize = 555.0
	const half = boxSize / 2
	const wall = 10.0
	noRotation := core.Vec3{}

	s.AddPrimitives(
		geometry.NewBox(core.NewVec3(half, -wall/2, half), core.NewVec3(boxSize, wall, boxSize), noRotation, white),        // floor
		geometry.NewBox(core.NewVec3(half, boxSize+wall/2, half), core.NewVec3(boxSize, wall, boxSize), noRotation, white), // ceiling
		geometry.NewBox(core.NewVec3(half, half, boxSize+wall/2), core.NewVec3(boxSize, boxSize, wall), noRotation, white), // back wall
		geometry.NewBox(core.NewVec3(-wall/2, half, half), core.NewVec3(wall, boxSize, boxSize), noRotation, red),          // left wall
		geometry.NewBox(core.NewVec3(boxSize+wall/2, half, half), core.NewVec3(wall, boxSize, boxSize), noRotation, green), // right wall

		// Ceiling light hangs just below the ceiling
		geometry.NewBox(core.NewVec3(half, boxSize-1, half), core.NewVec3(130, 2, 105), noRotation, light),

		// Tall rotated block and two spheres
		geometry.NewBox(core.NewVec3(368, 165, 351), core.NewVec3(165, 330, 165), core.NewVec3(0, 15, 0), white),
		geometry.NewSphere(core.NewVec3(185, 82.5, 169), 82.5, mirror),
		geometry.NewSphere(core.NewVec3(400, 420, 180), 60, glass),
	)

	return s
}
