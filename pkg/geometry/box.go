package geometry

import (
	"math"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// intersectBox runs the slab test against the canonical cube [-0.5, 0.5]^3
func (p *Primitive) intersectBox(ray core.Ray, tMax float64) (Hit, bool) {
	local := p.toLocal(ray)

	tNear, tFar := math.Inf(-1), math.Inf(1)
	var nearNormal, farNormal core.Vec3
	for axis := 0; axis < 3; axis++ {
		origin := local.Origin.Axis(axis)
		direction := local.Direction.Axis(axis)
		if math.Abs(direction) < 1e-12 {
			if origin < -0.5 || origin > 0.5 {
				return Hit{}, false
			}
			continue
		}

		t1 := (-0.5 - origin) / direction
		t2 := (0.5 - origin) / direction
		// The face entered first has its outward normal facing against the ray
		sign := -1.0
		if t2 < t1 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		n := axisVector(axis, sign)
		if t1 > tNear {
			tNear, nearNormal = t1, n
		}
		if t2 < tFar {
			tFar, farNormal = t2, n.Negate()
		}
	}
	if tNear > tFar || tFar <= 0 {
		return Hit{}, false
	}

	candidates := [2]struct {
		t      float64
		normal core.Vec3
	}{{tNear, nearNormal}, {tFar, farNormal}}
	for _, c := range candidates {
		if c.t <= 0 {
			continue
		}
		localPoint := local.At(c.t)
		if hit, ok := p.finishLocalHit(ray, localPoint, c.normal, cubeUV(localPoint), tMax); ok {
			return hit, true
		}
	}
	return Hit{}, false
}

func axisVector(axis int, sign float64) core.Vec3 {
	switch axis {
	case 0:
		return core.NewVec3(sign, 0, 0)
	case 1:
		return core.NewVec3(0, sign, 0)
	default:
		return core.NewVec3(0, 0, sign)
	}
}

// cubeUV projects a point on the canonical cube onto the face it lies on
func cubeUV(p core.Vec3) core.Vec2 {
	a := p.Abs()
	switch {
	case a.X >= a.Y && a.X >= a.Z:
		return core.NewVec2(p.Z+0.5, p.Y+0.5)
	case a.Y >= a.Z:
		return core.NewVec2(p.X+0.5, p.Z+0.5)
	default:
		return core.NewVec2(p.X+0.5, p.Y+0.5)
	}
}
