package scene

import (
	"math"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(r, g, blue).Clamp(0, 1)
}

// NewSphereGridScene creates a scene with a gridSize x gridSize grid of metallic spheres.
// The grid is the usual stress test for the BVH.
func NewSphereGridScene(gridSize int, cameraOverrides ...CameraConfig) *Scene {
	defaultCameraConfig := CameraConfig{
		Center:      core.NewVec3(4.5, 6, 18),    // Position camera farther back and slightly lower
		LookAt:      core.NewVec3(4.5, 0.8, 4.5), // Look at center of grid, slightly lower
		Up:          core.NewVec3(0, 1, 0),
		Width:       800,
		AspectRatio: 16.0 / 9.0,
		VFov:        40.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}
	gridSize = max(2, gridSize)

	s := New("sphere-grid", cameraConfig, 10)

	sun := s.AddMaterial(material.NewEmissive(core.NewVec3(1.0, 0.96, 0.83), 12))
	ground := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5)))
	s.AddPrimitives(
		geometry.NewSphere(core.NewVec3(20, 25, 20), 8, sun),
		geometry.NewBox(core.NewVec3(4.5, -0.5, 4.5), core.NewVec3(200, 1, 200), core.Vec3{}, ground),
	)
	addSkyDome(s, core.NewVec3(0.5, 0.7, 1.0), 0.8, 500)

	// Scale spacing and radius so any grid fits the same 9x9 area
	targetArea := 9.0
	spacing := targetArea / float64(gridSize-1)
	sphereRadius := math.Max(0.02, math.Min(0.35, spacing*0.35))

	// OKLCH parameters for color variation
	baseLightness := 0.65
	minChroma := 0.05
	maxChroma := 0.25

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			x := float64(i)*spacing - targetArea/2.0 + 4.5
			z := float64(j)*spacing - targetArea/2.0 + 4.5
			position := core.NewVec3(x, sphereRadius, z)

			// Hue varies across X, chroma across Z
			hue := (float64(i) / float64(gridSize-1)) * 360.0
			chroma := minChroma + (float64(j)/float64(gridSize-1))*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)
			color := oklchToRGB(lightness, chroma, hue)

			roughness := 0.05 + 0.1*float64((i+j)%3)/2.0
			metal := s.AddMaterial(material.NewSpecular(color, roughness))
			s.AddPrimitives(geometry.NewSphere(position, sphereRadius, metal))
		}
	}

	return s
}
