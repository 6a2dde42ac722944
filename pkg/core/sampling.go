package core

import (
	"math"
	"math/rand/v2"
)

// Hash32 is an integer avalanche hash used to decorrelate per-path random seeds
func Hash32(a uint32) uint32 {
	a = (a + 0x7ed55d16) + (a << 12)
	a = (a ^ 0xc761c23c) ^ (a >> 19)
	a = (a + 0x165667b1) + (a << 5)
	a = (a + 0xd3a2646c) ^ (a << 9)
	a = (a + 0xfd7046c5) + (a << 3)
	a = (a ^ 0xb55a4f09) ^ (a >> 16)
	return a
}

// PathSeed derives the seed of the random stream for one path at one bounce.
// It is a pure function of its arguments, so a path draws the same numbers
// regardless of where it sits in the active array. Each argument is mixed in
// through its own hash round so no range of one overlaps another.
func PathSeed(iteration, pixel, depth int) uint32 {
	return Hash32(Hash32(Hash32(uint32(iteration))^uint32(depth)) ^ uint32(pixel))
}

// PathSampler is a deterministic random stream for one (iteration, pixel, depth) triple.
// It is a value type so kernels can keep it on the stack.
type PathSampler struct {
	pcg rand.PCG
}

// NewPathSampler creates the sampler for a path at the given bounce depth
func NewPathSampler(iteration, pixel, depth int) PathSampler {
	seed := uint64(PathSeed(iteration, pixel, depth))
	var s PathSampler
	s.pcg.Seed(seed, seed^0x9e3779b97f4a7c15)
	return s
}

// Get1D returns a float64 in [0, 1)
func (s *PathSampler) Get1D() float64 {
	return float64(s.pcg.Uint64()>>11) * (1.0 / (1 << 53))
}

// Get2D returns two float64 values in [0, 1)
func (s *PathSampler) Get2D() Vec2 {
	return Vec2{X: s.Get1D(), Y: s.Get1D()}
}

// SampleCosineHemisphere generates a cosine-weighted random direction in hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	a := 2.0 * math.Pi * sample.X
	z := sample.Y
	r := math.Sqrt(z)

	x := r * math.Cos(a)
	y := r * math.Sin(a)
	zCoord := math.Sqrt(1.0 - z)

	tangent, bitangent := OrthonormalBasis(normal)
	return tangent.Multiply(x).Add(bitangent.Multiply(y)).Add(normal.Multiply(zCoord)).Normalize()
}

// OrthonormalBasis returns two unit vectors perpendicular to normal and to each other
func OrthonormalBasis(normal Vec3) (tangent, bitangent Vec3) {
	var nt Vec3
	if math.Abs(normal.X) > 0.1 {
		nt = NewVec3(0, 1, 0)
	} else {
		nt = NewVec3(1, 0, 0)
	}
	tangent = nt.Cross(normal).Normalize()
	bitangent = normal.Cross(tangent)
	return tangent, bitangent
}

// SamplePointInUnitSphere maps three uniform numbers to a point inside the unit sphere
func SamplePointInUnitSphere(u1 float64, u Vec2) Vec3 {
	r := math.Cbrt(u1)
	phi := 2 * math.Pi * u.X
	cosTheta := 2*u.Y - 1
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	return NewVec3(r*sinTheta*math.Cos(phi), r*sinTheta*math.Sin(phi), r*cosTheta)
}

// Reflect mirrors v about normal n
func Reflect(v, n Vec3) Vec3 {
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// Refract bends unit vector uv through a surface with normal n and ratio etaiOverEtat
func Refract(uv, n Vec3, etaiOverEtat float64) Vec3 {
	cosTheta := math.Min(uv.Negate().Dot(n), 1.0)
	rOutPerp := uv.Add(n.Multiply(cosTheta)).Multiply(etaiOverEtat)
	rOutParallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - rOutPerp.LengthSquared())))
	return rOutPerp.Add(rOutParallel)
}

// Schlick approximates Fresnel reflectance
func Schlick(cosine, refractionIndex float64) float64 {
	r0 := (1 - refractionIndex) / (1 + refractionIndex)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
