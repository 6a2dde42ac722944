package renderer

import (
	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// RayEpsilon is how far a scattered ray starts off the surface it left
const RayEpsilon = 1e-4

// loadErrorColor marks surfaces whose texture failed to load
var loadErrorColor = core.NewVec3(1, 0, 1)

// shadePath advances one path past its current hit. depth selects the random
// stream, so the outcome does not depend on where the path sits in the buffer.
func (m *sceneMirror) shadePath(path *PathSegment, hit *Intersection, iteration, depth int, procedural bool) {
	if !path.Alive() {
		return
	}
	if !hit.Hit() {
		path.terminate(core.Vec3{})
		return
	}

	mat := &m.materials.data[hit.MaterialID]
	if mat.IsEmissive() {
		path.terminate(path.Color.MultiplyVec(mat.Color.Multiply(mat.Emittance)))
		return
	}
	if mat.LoadFailed() {
		path.terminate(loadErrorColor)
		return
	}

	albedo := mat.Color
	if mat.Texture.Present() {
		if procedural {
			albedo = material.ProceduralColor(hit.UV)
		} else {
			albedo = material.SampleTexel(m.texels.data, mat.Texture, hit.UV)
		}
	}
	path.Color = path.Color.MultiplyVec(albedo)

	sampler := core.NewPathSampler(iteration, path.PixelIndex, depth)
	scatter, ok := mat.Sample(path.Ray.Direction, hit.Normal, hit.FrontFace, &sampler)
	path.RemainingBounces--
	if !ok || path.RemainingBounces == 0 {
		// Absorbed, or out of bounces before reaching a light
		path.terminate(core.Vec3{})
		return
	}

	offset := hit.Normal.Multiply(RayEpsilon)
	if scatter.Transmitted {
		offset = offset.Negate()
	}
	path.Color = path.Color.Multiply(scatter.Weight)
	path.Ray = core.NewRay(hit.Point.Add(offset), scatter.Direction)
}

// shade runs the shader over the first active paths. Bounce depth d uses
// stream d+1; depth 0 belongs to the ray generator.
func (s *Session) shade(active, iteration, depth int) error {
	paths := s.paths.data[:active]
	hits := s.hits.data[:active]
	mirror := &s.mirror
	procedural := s.opts.ProceduralTextures

	return s.pool.Launch(StageShade, active, s.opts.BlockSize, func(i int) {
		mirror.shadePath(&paths[i], &hits[i], iteration, depth+1, procedural)
	})
}
