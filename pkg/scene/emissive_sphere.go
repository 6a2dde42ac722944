package scene

import (
	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// NewEmissiveSphereScene places the camera inside a single white light of
// emittance 5, so every camera ray ends at the light on its first hit
func NewEmissiveSphereScene(width, height, maxBounces int) *Scene {
	s := New("emissive-sphere", CameraConfig{
		Center: core.NewVec3(0, 0, 0),
		LookAt: core.NewVec3(0, 0, -1),
		Up:     core.NewVec3(0, 1, 0),
		Width:  width,
		Height: height,
		VFov:   60,
	}, maxBounces)

	light := s.AddMaterial(material.NewEmissive(core.NewVec3(1, 1, 1), 5))
	s.AddPrimitives(geometry.NewSphere(core.NewVec3(0, 0, 0), 10, light))
	return s
}

// NewEmptyScene has a camera and nothing else; every path misses
func NewEmptyScene(width, height, maxBounces int) *Scene {
	return New("empty", CameraConfig{
		Center: core.NewVec3(0, 0, 0),
		LookAt: core.NewVec3(0, 0, -1),
		Up:     core.NewVec3(0, 1, 0),
		Width:  width,
		Height: height,
		VFov:   60,
	}, maxBounces)
}
