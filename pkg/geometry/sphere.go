package geometry

import (
	"math"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// intersectSphere solves the ray/sphere quadratic in the canonical frame (radius 0.5 at origin)
func (p *Primitive) intersectSphere(ray core.Ray, tMax float64) (Hit, bool) {
	local := p.toLocal(ray)

	const radius = 0.5
	halfB := local.Origin.Dot(local.Direction)
	c := local.Origin.LengthSquared() - radius*radius
	discriminant := halfB*halfB - c
	if discriminant < 0 {
		return Hit{}, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Try the closer root first, then the far one (ray origin inside the sphere)
	for _, root := range [2]float64{-halfB - sqrtD, -halfB + sqrtD} {
		if root <= 0 {
			continue
		}
		localPoint := local.At(root)
		localNormal := localPoint.Multiply(1 / radius)
		if hit, ok := p.finishLocalHit(ray, localPoint, localNormal, sphericalUV(localNormal), tMax); ok {
			return hit, true
		}
	}
	return Hit{}, false
}

// sphericalUV maps a unit direction from the center to equirectangular coordinates
func sphericalUV(n core.Vec3) core.Vec2 {
	u := 0.5 + math.Atan2(n.Z, n.X)/(2*math.Pi)
	v := 0.5 + math.Asin(max(-1, min(1, n.Y)))/math.Pi
	return core.NewVec2(u, v)
}
