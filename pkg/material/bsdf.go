package material

import (
	"math"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// Scatter is the outcome of sampling a BSDF
type Scatter struct {
	Direction   core.Vec3 // unit outgoing direction
	Weight      float64   // bsdf * cos / pdf for an albedo of one
	PDF         float64   // 0 for delta distributions
	Transmitted bool      // the direction crosses to the far side of the surface
}

// IsSpecular returns true if this is specular scattering (no PDF)
func (s Scatter) IsSpecular() bool {
	return s.PDF <= 0
}

// Sample draws an outgoing direction for a ray arriving along incoming at a
// surface with unit normal facing against the ray. Surface color is not part of
// the weight; the caller multiplies it in. It reports false when the path is absorbed.
func (m *Material) Sample(incoming, normal core.Vec3, frontFace bool, sampler core.Sampler) (Scatter, bool) {
	switch m.Kind {
	case Diffuse:
		return sampleDiffuse(normal, sampler)
	case Specular:
		return m.sampleSpecular(incoming, normal, sampler)
	case Dielectric:
		return m.sampleDielectric(incoming, normal, frontFace, sampler)
	default:
		return Scatter{}, false
	}
}

// EvaluateDiffuse is the lambertian BSDF albedo/π for an outgoing direction
func EvaluateDiffuse(albedo, outgoing, normal core.Vec3) core.Vec3 {
	if outgoing.Dot(normal) <= 0 {
		return core.Vec3{}
	}
	return albedo.Multiply(1.0 / math.Pi)
}

// DiffusePDF is the cosine-weighted hemisphere density cosθ/π
func DiffusePDF(outgoing, normal core.Vec3) float64 {
	cosTheta := outgoing.Dot(normal)
	if cosTheta <= 0 {
		return 0
	}
	return cosTheta / math.Pi
}

func sampleDiffuse(normal core.Vec3, sampler core.Sampler) (Scatter, bool) {
	direction := core.SampleCosineHemisphere(normal, sampler.Get2D())
	pdf := DiffusePDF(direction, normal)
	if pdf <= 0 {
		return Scatter{}, false
	}

	// bsdf * cos / pdf with unit albedo; the π and cosine terms cancel to one
	white := core.NewVec3(1, 1, 1)
	weight := EvaluateDiffuse(white, direction, normal).X * direction.Dot(normal) / pdf
	return Scatter{Direction: direction, Weight: weight, PDF: pdf}, true
}

func (m *Material) sampleSpecular(incoming, normal core.Vec3, sampler core.Sampler) (Scatter, bool) {
	reflected := core.Reflect(incoming, normal)
	if m.Fuzz > 0 {
		u1 := sampler.Get1D()
		reflected = reflected.Add(core.SamplePointInUnitSphere(u1, sampler.Get2D()).Multiply(m.Fuzz))
	}
	if reflected.Dot(normal) <= 0 || reflected.LengthSquared() < 1e-12 {
		return Scatter{}, false // fuzzed below the surface
	}
	return Scatter{Direction: reflected.Normalize(), Weight: 1}, true
}

func (m *Material) sampleDielectric(incoming, normal core.Vec3, frontFace bool, sampler core.Sampler) (Scatter, bool) {
	ratio := m.IOR
	if frontFace {
		ratio = 1.0 / m.IOR // entering the material
	}

	cosTheta := math.Min(incoming.Negate().Dot(normal), 1.0)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))

	// Total internal reflection or a Fresnel-weighted coin flip picks reflection
	if ratio*sinTheta > 1.0 || core.Schlick(cosTheta, ratio) > sampler.Get1D() {
		return Scatter{Direction: core.Reflect(incoming, normal).Normalize(), Weight: 1}, true
	}
	return Scatter{Direction: core.Refract(incoming, normal, ratio).Normalize(), Weight: 1, Transmitted: true}, true
}
