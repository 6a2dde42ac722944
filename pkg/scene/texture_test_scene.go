package scene

import (
	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// NewTextureTestScene creates a scene demonstrating texture mapping and normal
// mapping on every primitive kind. When imagePath is set the image is mapped onto
// the rightmost sphere; if it cannot be loaded that sphere renders magenta and
// the load error is returned alongside the scene.
func NewTextureTestScene(imagePath string, cameraOverrides ...CameraConfig) (*Scene, error) {
	defaultCameraConfig := CameraConfig{
		Center:      core.NewVec3(0, 2, 10),
		LookAt:      core.NewVec3(0, 1, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       800,
		AspectRatio: 16.0 / 9.0,
		VFov:        50.0, // Wider FOV to see all shapes
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("textured", cameraConfig, 8)

	checkerboard := s.addImage(CheckerboardTexture(256, 256, 32,
		core.NewVec3(0.9, 0.9, 0.9), // White
		core.NewVec3(0.2, 0.2, 0.8), // Blue
	))
	gradient := s.addImage(GradientTexture(256, 256,
		core.NewVec3(1.0, 0.2, 0.2), // Red (top)
		core.NewVec3(0.2, 1.0, 0.2), // Green (bottom)
	))
	uvDebug := s.addImage(UVDebugTexture(256, 256))
	bumps := s.addImage(BumpNormalMap(256, 256, 8, 0.8))

	checkerMat := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 1, 1)).WithTexture(checkerboard))
	gradientMat := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 1, 1)).WithTexture(gradient))
	uvDebugMat := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 1, 1)).WithTexture(uvDebug))
	bumpyMat := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.8, 0.5, 0.3)).WithNormalMap(bumps))
	bumpyCheckerMat := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 1, 1)).WithTexture(checkerboard).WithNormalMap(bumps))
	groundMat := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5)))

	var loadErr error
	imageMat := uvDebugMat
	if imagePath != "" {
		ref, err := s.AddTextureFile(imagePath)
		loadErr = err
		imageMat = s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 1, 1)).WithTexture(ref))
	}

	// All shapes in a single row, left to right
	s.AddPrimitives(
		geometry.NewSphere(core.NewVec3(-6, 1, 0), 1.0, checkerMat),
		geometry.NewBox(core.NewVec3(-3.5, 0.8, 0), core.NewVec3(1.6, 1.6, 1.6), core.NewVec3(0, 30, 0), gradientMat),
		geometry.NewSphere(core.NewVec3(-1.2, 1, 0), 1.0, bumpyMat),
		geometry.NewMandelbulb(core.NewVec3(1.2, 1, 0), 0.8, core.NewVec3(90, 0, 0), uvDebugMat),
		geometry.NewBox(core.NewVec3(3.5, 0.8, 0), core.NewVec3(1.6, 1.6, 1.6), core.NewVec3(0, -20, 0), bumpyCheckerMat),
		geometry.NewSphere(core.NewVec3(6, 1, 0), 1.0, imageMat),
		geometry.NewBox(core.NewVec3(0, -0.5, 0), core.NewVec3(100, 1, 100), core.Vec3{}, groundMat),
	)

	// Triangle with UV debug behind the row
	s.AddPrimitives(geometry.NewTriangle(
		geometry.Vertex{Position: core.NewVec3(-2, 0, -3), UV: core.NewVec2(0, 0)},
		geometry.Vertex{Position: core.NewVec3(2, 0, -3), UV: core.NewVec2(1, 0)},
		geometry.Vertex{Position: core.NewVec3(0, 3.5, -3), UV: core.NewVec2(0.5, 1)},
		uvDebugMat,
	))

	light := s.AddMaterial(material.NewEmissive(core.NewVec3(1, 0.95, 0.9), 10))
	s.AddPrimitives(geometry.NewSphere(core.NewVec3(0, 12, 8), 3, light))
	addSkyDome(s, core.NewVec3(0.5, 0.7, 1.0), 0.6, 500)

	return s, loadErr
}
