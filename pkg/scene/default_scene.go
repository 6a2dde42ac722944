package scene

import (
	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// NewDefaultScene creates a default scene with spheres, a mandelbulb, ground, and a sky dome
func NewDefaultScene(cameraOverrides ...CameraConfig) *Scene {
	defaultCameraConfig := CameraConfig{
		Center:      core.NewVec3(0, 0.75, 2), // Position camera higher and farther back
		LookAt:      core.NewVec3(0, 0.5, -1), // Look at the sphere center
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        40.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("default", cameraConfig, 12)

	ground := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6)))
	blue := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.1, 0.2, 0.5)))
	red := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.65, 0.25, 0.2)))
	silver := s.AddMaterial(material.NewSpecular(core.NewVec3(0.8, 0.8, 0.8), 0.0))
	gold := s.AddMaterial(material.NewSpecular(core.NewVec3(0.8, 0.6, 0.2), 0.3))
	glass := s.AddMaterial(material.NewDielectric(1.5))
	coral := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.9, 0.45, 0.35)))

	s.AddPrimitives(
		geometry.NewSphere(core.NewVec3(0, 0.5, -1), 0.5, red),
		geometry.NewSphere(core.NewVec3(-1, 0.5, -1), 0.5, silver),
		geometry.NewSphere(core.NewVec3(1, 0.5, -1), 0.5, gold),
		geometry.NewSphere(core.NewVec3(0.5, 0.25, -0.5), 0.25, glass),
		geometry.NewSphere(core.NewVec3(-0.5, 0.2, -0.5), 0.2, blue),
		geometry.NewMandelbulb(core.NewVec3(0, 1.35, -1.6), 0.35, core.NewVec3(90, 0, 0), coral),

		// Large flat box instead of an infinite plane keeps the bounds finite
		geometry.NewBox(core.NewVec3(0, -0.5, 0), core.NewVec3(200, 1, 200), core.Vec3{}, ground),
	)

	// Sun-like light plus a dim sky dome standing in for the background gradient
	sun := s.AddMaterial(material.NewEmissive(core.NewVec3(1.0, 0.93, 0.87), 15))
	s.AddPrimitives(geometry.NewSphere(core.NewVec3(30, 30.5, 15), 10, sun))
	addSkyDome(s, core.NewVec3(0.5, 0.7, 1.0), 1, 500)

	return s
}

// addSkyDome surrounds the scene with an emissive sphere so escaping paths pick up sky light
func addSkyDome(s *Scene, color core.Vec3, emittance, radius float64) {
	sky := s.AddMaterial(material.NewEmissive(color, emittance))
	s.AddPrimitives(geometry.NewSphere(core.Vec3{}, radius, sky))
}
