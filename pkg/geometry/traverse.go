package geometry

import (
	"math"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// NoHit is the primitive index reported for a ray that hits nothing
const NoHit = -1

// IntersectBVH finds the nearest hit by walking the flattened tree with an
// explicit stack. It returns the hit and the index of the primitive, or NoHit.
func IntersectBVH(nodes []LinearNode, prims []Primitive, ray core.Ray) (Hit, int) {
	closest := Hit{T: math.Inf(1)}
	hitIndex := NoHit
	if len(nodes) == 0 {
		return closest, hitIndex
	}

	invDir := core.NewVec3(1/ray.Direction.X, 1/ray.Direction.Y, 1/ray.Direction.Z)
	dirIsNeg := [3]bool{invDir.X < 0, invDir.Y < 0, invDir.Z < 0}

	var stack [TraversalStackSize]int32
	top := 0
	current := int32(0)
	for {
		node := &nodes[current]
		if node.Bounds.HitInverse(ray.Origin, invDir, closest.T) {
			if node.IsLeaf() {
				end := node.Offset + node.Count
				for i := node.Offset; i < end; i++ {
					if hit, ok := prims[i].Intersect(ray, closest.T); ok {
						closest = hit
						hitIndex = int(i)
					}
				}
			} else {
				// Visit the near child first and defer the far one
				near, far := current+1, node.Offset
				if dirIsNeg[node.Axis] {
					near, far = far, near
				}
				stack[top] = far
				top++
				current = near
				continue
			}
		}
		if top == 0 {
			break
		}
		top--
		current = stack[top]
	}
	return closest, hitIndex
}

// IntersectAll tests every primitive. It is the reference the tree must agree with.
func IntersectAll(prims []Primitive, ray core.Ray) (Hit, int) {
	closest := Hit{T: math.Inf(1)}
	hitIndex := NoHit
	for i := range prims {
		if hit, ok := prims[i].Intersect(ray, closest.T); ok {
			closest = hit
			hitIndex = i
		}
	}
	return closest, hitIndex
}
