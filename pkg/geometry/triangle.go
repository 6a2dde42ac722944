package geometry

import (
	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// intersectTriangle is the Möller-Trumbore test on world-space vertices
func (p *Primitive) intersectTriangle(ray core.Ray, tMax float64) (Hit, bool) {
	const epsilon = 1e-12

	v0, v1, v2 := p.Vertices[0], p.Vertices[1], p.Vertices[2]
	edge1 := v1.Position.Subtract(v0.Position)
	edge2 := v2.Position.Subtract(v0.Position)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return Hit{}, false // ray parallel to the triangle plane
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(v0.Position)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return Hit{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}

	t := f * edge2.Dot(q)
	if t < MinHitDistance || t >= tMax {
		return Hit{}, false
	}

	w := 1 - u - v
	normal := edge1.Cross(edge2).Normalize()
	if !v0.Normal.IsZero() && !v1.Normal.IsZero() && !v2.Normal.IsZero() {
		normal = v0.Normal.Multiply(w).Add(v1.Normal.Multiply(u)).Add(v2.Normal.Multiply(v)).Normalize()
	}
	uv := v0.UV.Multiply(w).Add(v1.UV.Multiply(u)).Add(v2.UV.Multiply(v))

	hit := Hit{T: t, Point: ray.At(t), UV: uv}
	hit.setFaceNormal(ray, normal)
	return hit, true
}
