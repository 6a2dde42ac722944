package geometry

import (
	"fmt"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// Kind enumerates the closed set of primitive shapes the intersector understands
type Kind uint8

const (
	Sphere Kind = iota
	Box
	Triangle
	Mandelbulb
)

func (k Kind) String() string {
	switch k {
	case Sphere:
		return "sphere"
	case Box:
		return "box"
	case Triangle:
		return "triangle"
	case Mandelbulb:
		return "mandelbulb"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MinHitDistance rejects self-intersections right at the ray origin
const MinHitDistance = 1e-4

// Vertex is a world-space triangle corner
type Vertex struct {
	Position core.Vec3
	Normal   core.Vec3 // zero means use the face normal
	UV       core.Vec2
}

// Primitive is one renderable shape. Sphere, box and mandelbulb are defined in a
// canonical local frame and placed by Transform; triangles store world-space vertices.
type Primitive struct {
	Kind             Kind
	MaterialID       int
	Transform        core.Mat4
	InverseTransform core.Mat4
	InvTranspose     core.Mat4
	Vertices         [3]Vertex
}

// Hit describes the nearest intersection with a single primitive
type Hit struct {
	T         float64   // world-space distance along the unit ray direction
	Point     core.Vec3 // world-space hit point
	Normal    core.Vec3 // unit normal facing against the ray
	UV        core.Vec2
	FrontFace bool // the ray arrived from outside the surface
}

// setFaceNormal orients the outward normal against the ray and records the side
func (h *Hit) setFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// NewTransformed creates a transform-placed primitive. Rotation is in degrees.
func NewTransformed(kind Kind, translation, rotation, scale core.Vec3, materialID int) (Primitive, error) {
	if kind == Triangle {
		return Primitive{}, fmt.Errorf("triangles are not transform-placed, use NewTriangle")
	}
	m := core.ComposeTransform(translation, rotation, scale)
	inv, ok := m.Inverse()
	if !ok {
		return Primitive{}, fmt.Errorf("%s transform is singular (scale %v)", kind, scale)
	}
	return Primitive{
		Kind:             kind,
		MaterialID:       materialID,
		Transform:        m,
		InverseTransform: inv,
		InvTranspose:     inv.Transpose(),
	}, nil
}

// NewSphere creates a sphere with the given center and radius
func NewSphere(center core.Vec3, radius float64, materialID int) Primitive {
	// Canonical sphere has radius 0.5, so scale by the diameter
	d := 2 * radius
	p, err := NewTransformed(Sphere, center, core.Vec3{}, core.NewVec3(d, d, d), materialID)
	if err != nil {
		panic(err)
	}
	return p
}

// NewBox creates a box with the given center, full edge lengths and rotation in degrees
func NewBox(center, size, rotation core.Vec3, materialID int) Primitive {
	p, err := NewTransformed(Box, center, rotation, size, materialID)
	if err != nil {
		panic(err)
	}
	return p
}

// NewMandelbulb creates a power-8 mandelbulb centered at center. The fractal
// extends to roughly 1.2*scale from its center.
func NewMandelbulb(center core.Vec3, scale float64, rotation core.Vec3, materialID int) Primitive {
	p, err := NewTransformed(Mandelbulb, center, rotation, core.NewVec3(scale, scale, scale), materialID)
	if err != nil {
		panic(err)
	}
	return p
}

// NewTriangle creates a triangle from three world-space vertices
func NewTriangle(v0, v1, v2 Vertex, materialID int) Primitive {
	return Primitive{
		Kind:             Triangle,
		MaterialID:       materialID,
		Transform:        core.Identity(),
		InverseTransform: core.Identity(),
		InvTranspose:     core.Identity(),
		Vertices:         [3]Vertex{v0, v1, v2},
	}
}

// Intersect dispatches to the kind-specific test and returns the nearest hit closer than tMax
func (p *Primitive) Intersect(ray core.Ray, tMax float64) (Hit, bool) {
	switch p.Kind {
	case Sphere:
		return p.intersectSphere(ray, tMax)
	case Box:
		return p.intersectBox(ray, tMax)
	case Triangle:
		return p.intersectTriangle(ray, tMax)
	case Mandelbulb:
		return p.intersectMandelbulb(ray, tMax)
	default:
		return Hit{}, false
	}
}

// Bounds returns the world-space bounding box
func (p *Primitive) Bounds() core.AABB {
	switch p.Kind {
	case Triangle:
		return core.NewAABBFromPoints(p.Vertices[0].Position, p.Vertices[1].Position, p.Vertices[2].Position)
	case Mandelbulb:
		return p.transformedCube(mandelbulbBoundRadius)
	default:
		return p.transformedCube(0.5)
	}
}

// transformedCube bounds the local cube [-h, h]^3 after transformation
func (p *Primitive) transformedCube(h float64) core.AABB {
	box := core.EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := core.NewVec3(
			cornerSign(i&1)*h,
			cornerSign(i&2)*h,
			cornerSign(i&4)*h,
		)
		box = box.Extend(p.Transform.TransformPoint(corner))
	}
	return box
}

func cornerSign(bit int) float64 {
	if bit != 0 {
		return 1
	}
	return -1
}

// toLocal transforms a world ray into the primitive's canonical frame with a unit direction
func (p *Primitive) toLocal(ray core.Ray) core.Ray {
	return core.Ray{
		Origin:    p.InverseTransform.TransformPoint(ray.Origin),
		Direction: p.InverseTransform.TransformVector(ray.Direction).Normalize(),
	}
}

// finishLocalHit maps a local-frame hit back to world space and fills the record
func (p *Primitive) finishLocalHit(ray core.Ray, localPoint, localNormal core.Vec3, uv core.Vec2, tMax float64) (Hit, bool) {
	point := p.Transform.TransformPoint(localPoint)
	t := point.Subtract(ray.Origin).Length()
	if t < MinHitDistance || t >= tMax {
		return Hit{}, false
	}
	hit := Hit{T: t, Point: point, UV: uv}
	hit.setFaceNormal(ray, p.InvTranspose.TransformVector(localNormal).Normalize())
	return hit, true
}
