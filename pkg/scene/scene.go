package scene

import (
	"fmt"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// Scene is everything a render session needs: flat primitive, material, texel
// and node arrays plus the camera and the host image that receives the result.
type Scene struct {
	Name       string
	Width      int
	Height     int
	Camera     Camera
	MaxBounces int

	Primitives []geometry.Primitive // in BVH leaf order after Finalize
	Materials  []material.Material
	Texels     []core.Vec3
	Nodes      []geometry.LinearNode

	Image []core.Vec3 // host copy of the accumulated radiance
}

// New creates an empty scene with a camera and bounce budget
func New(name string, config CameraConfig, maxBounces int) *Scene {
	camera := NewCamera(config)
	return &Scene{
		Name:       name,
		Width:      camera.Width,
		Height:     camera.Height,
		Camera:     camera,
		MaxBounces: maxBounces,
	}
}

// PixelCount returns the number of pixels in the image
func (s *Scene) PixelCount() int {
	return s.Width * s.Height
}

// AddMaterial appends m and returns its id
func (s *Scene) AddMaterial(m material.Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// AddPrimitives appends primitives; Finalize must run afterwards
func (s *Scene) AddPrimitives(prims ...geometry.Primitive) {
	s.Primitives = append(s.Primitives, prims...)
	s.Nodes = nil
}

// AddTexture appends a row-major image to the texel array and returns its reference
func (s *Scene) AddTexture(width, height int, pixels []core.Vec3) (material.TextureRef, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height {
		return material.NoTextureRef, fmt.Errorf("texture %dx%d has %d pixels", width, height, len(pixels))
	}
	ref := material.TextureRef{Offset: len(s.Texels), Width: width, Height: height}
	s.Texels = append(s.Texels, pixels...)
	return ref, nil
}

// Finalize checks material references, builds the BVH and reorders the
// primitives to match it, and sizes the host image
func (s *Scene) Finalize() error {
	for i := range s.Primitives {
		if id := s.Primitives[i].MaterialID; id < 0 || id >= len(s.Materials) {
			return fmt.Errorf("primitive %d references material %d of %d", i, id, len(s.Materials))
		}
	}
	for i := range s.Materials {
		if err := s.Materials[i].Validate(len(s.Texels)); err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
	}

	s.Primitives, s.Nodes = geometry.BuildBVH(s.Primitives)
	if len(s.Image) != s.PixelCount() {
		s.Image = make([]core.Vec3, s.PixelCount())
	}
	return nil
}
