package core

import "math"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns an inverted box that any Extend or Union replaces
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box = box.Extend(p)
	}
	return box
}

// Extend returns the box grown to contain point
func (aabb AABB) Extend(point Vec3) AABB {
	return AABB{Min: aabb.Min.MinComponents(point), Max: aabb.Max.MaxComponents(point)}
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: aabb.Min.MinComponents(other.Min), Max: aabb.Max.MaxComponents(other.Max)}
}

// Hit tests if a ray intersects with this AABB using the slab method
func (aabb AABB) Hit(ray Ray, tMin, tMax float64) bool {
	for axis := 0; axis < 3; axis++ {
		lo := aabb.Min.Axis(axis)
		hi := aabb.Max.Axis(axis)
		origin := ray.Origin.Axis(axis)
		direction := ray.Direction.Axis(axis)

		// Ray parallel to this slab
		if math.Abs(direction) < 1e-12 {
			if origin < lo || origin > hi {
				return false
			}
			continue
		}

		invDirection := 1.0 / direction
		t1 := (lo - origin) * invDirection
		t2 := (hi - origin) * invDirection
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}

// HitInverse is the traversal variant of Hit using a precomputed inverse direction.
// An axis with an infinite inverse is parallel to its slab and only bounds the origin,
// so a ray starting on a slab plane never produces 0*Inf.
func (aabb AABB) HitInverse(origin, invDir Vec3, tMax float64) bool {
	tNear, tFar := math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		lo, hi := aabb.Min.Axis(axis), aabb.Max.Axis(axis)
		o, inv := origin.Axis(axis), invDir.Axis(axis)
		if math.IsInf(inv, 0) {
			if o < lo || o > hi {
				return false
			}
			continue
		}

		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear = t1
		}
		if t2 < tFar {
			tFar = t2
		}
	}
	return tNear <= tFar && tFar >= 0 && tNear <= tMax
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (aabb AABB) LongestAxis() int {
	size := aabb.Size()
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

// Contains reports whether point lies inside the box, with a small tolerance
func (aabb AABB) Contains(point Vec3, eps float64) bool {
	return point.X >= aabb.Min.X-eps && point.X <= aabb.Max.X+eps &&
		point.Y >= aabb.Min.Y-eps && point.Y <= aabb.Max.Y+eps &&
		point.Z >= aabb.Min.Z-eps && point.Z <= aabb.Max.Z+eps
}
