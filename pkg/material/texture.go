package material

import (
	"math"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// SampleTexel returns the nearest texel of ref at uv. UVs wrap, and v=0 is the
// bottom row of the image.
func SampleTexel(texels []core.Vec3, ref TextureRef, uv core.Vec2) core.Vec3 {
	// Wrap UV coordinates to [0, 1)
	u := uv.X - math.Floor(uv.X)
	v := uv.Y - math.Floor(uv.Y)

	x := int(u * float64(ref.Width))
	y := int((1.0 - v) * float64(ref.Height))

	// Clamp to image bounds
	x = max(0, min(ref.Width-1, x))
	y = max(0, min(ref.Height-1, y))

	return texels[ref.Offset+y*ref.Width+x]
}

// Palette is the cosine color palette a + b*cos(2π(c*t + d))
func Palette(t float64, a, b, c, d core.Vec3) core.Vec3 {
	return core.NewVec3(
		a.X+b.X*math.Cos(2*math.Pi*(c.X*t+d.X)),
		a.Y+b.Y*math.Cos(2*math.Pi*(c.Y*t+d.Y)),
		a.Z+b.Z*math.Cos(2*math.Pi*(c.Z*t+d.Z)),
	)
}

var (
	paletteA = core.NewVec3(0.5, 0.5, 0.5)
	paletteB = core.NewVec3(0.5, 0.5, 0.5)
	paletteC = core.NewVec3(1, 1, 1)
	paletteD = core.NewVec3(0, 0.33, 0.67)
)

// ProceduralColor warps uv with a few sine layers and feeds the result to a
// rainbow palette. Every component lies in [0, 1].
func ProceduralColor(uv core.Vec2) core.Vec3 {
	x, y := uv.X*4, uv.Y*4
	for i := 1; i <= 3; i++ {
		fi := float64(i)
		x += 0.6 / fi * math.Sin(fi*y+0.3*fi)
		y += 0.6 / fi * math.Sin(fi*x+0.7*fi)
	}
	t := 0.5 + 0.25*(math.Sin(x)+math.Cos(y))
	return Palette(t, paletteA, paletteB, paletteC, paletteD).Clamp(0, 1)
}

// PerturbNormal replaces normal with the tangent-space normal stored in ref at uv.
// Texels hold the usual [0, 1] encoding of a [-1, 1] vector with +Z along the surface normal.
func PerturbNormal(normal core.Vec3, texels []core.Vec3, ref TextureRef, uv core.Vec2) core.Vec3 {
	texel := SampleTexel(texels, ref, uv)
	local := texel.Multiply(2).Subtract(core.NewVec3(1, 1, 1))

	tangent, bitangent := core.OrthonormalBasis(normal)
	perturbed := tangent.Multiply(local.X).Add(bitangent.Multiply(local.Y)).Add(normal.Multiply(local.Z))
	if perturbed.LengthSquared() < 1e-12 {
		return normal
	}
	return perturbed.Normalize()
}
