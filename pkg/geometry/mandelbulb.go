package geometry

import (
	"math"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

const (
	mandelbulbPower       = 8.0
	mandelbulbIterations  = 12
	mandelbulbBoundRadius = 1.2
	mandelbulbMaxSteps    = 160
	mandelbulbSurfaceEps  = 1e-4
)

// mandelbulbDistance is the standard distance estimator for the power-8 mandelbulb
func mandelbulbDistance(pos core.Vec3) float64 {
	z := pos
	dr := 1.0
	r := 0.0
	for i := 0; i < mandelbulbIterations; i++ {
		r = z.Length()
		if r > 2 {
			break
		}
		if r < 1e-12 {
			return 0
		}
		theta := math.Acos(z.Z/r) * mandelbulbPower
		phi := math.Atan2(z.Y, z.X) * mandelbulbPower
		zr := math.Pow(r, mandelbulbPower)
		dr = math.Pow(r, mandelbulbPower-1)*mandelbulbPower*dr + 1

		z = core.NewVec3(
			math.Sin(theta)*math.Cos(phi),
			math.Sin(phi)*math.Sin(theta),
			math.Cos(theta),
		).Multiply(zr).Add(pos)
	}
	if r < 1e-12 {
		return 0
	}
	return 0.5 * math.Log(r) * r / dr
}

// mandelbulbNormal estimates the gradient of the distance field by central differences
func mandelbulbNormal(p core.Vec3) core.Vec3 {
	const h = 1e-5
	dx := mandelbulbDistance(p.Add(core.NewVec3(h, 0, 0))) - mandelbulbDistance(p.Subtract(core.NewVec3(h, 0, 0)))
	dy := mandelbulbDistance(p.Add(core.NewVec3(0, h, 0))) - mandelbulbDistance(p.Subtract(core.NewVec3(0, h, 0)))
	dz := mandelbulbDistance(p.Add(core.NewVec3(0, 0, h))) - mandelbulbDistance(p.Subtract(core.NewVec3(0, 0, h)))
	return core.NewVec3(dx, dy, dz).Normalize()
}

// intersectMandelbulb sphere-traces the distance estimator inside the bounding sphere
func (p *Primitive) intersectMandelbulb(ray core.Ray, tMax float64) (Hit, bool) {
	local := p.toLocal(ray)

	halfB := local.Origin.Dot(local.Direction)
	c := local.Origin.LengthSquared() - mandelbulbBoundRadius*mandelbulbBoundRadius
	discriminant := halfB*halfB - c
	if discriminant < 0 {
		return Hit{}, false
	}
	sqrtD := math.Sqrt(discriminant)
	tEnter := math.Max(0, -halfB-sqrtD)
	tExit := -halfB + sqrtD
	if tExit <= 0 {
		return Hit{}, false
	}

	// Rays leaving the surface start inside the epsilon shell; push them out first
	t := tEnter + mandelbulbSurfaceEps*2
	for step := 0; step < mandelbulbMaxSteps && t < tExit; step++ {
		pos := local.At(t)
		d := mandelbulbDistance(pos)
		if d < mandelbulbSurfaceEps {
			normal := mandelbulbNormal(pos)
			return p.finishLocalHit(ray, pos, normal, sphericalUV(pos.Normalize()), tMax)
		}
		t += d
	}
	return Hit{}, false
}
