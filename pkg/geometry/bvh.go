package geometry

import (
	"sort"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// TraversalStackSize bounds the explicit stack used by IntersectBVH
const TraversalStackSize = 64

// Leaf threshold: if we have this many or fewer primitives, store them in a leaf node
const leafThreshold = 4

// maxBuildDepth keeps the tree shallow enough that traversal never overflows its stack
const maxBuildDepth = 32

// LinearNode is one node of the flattened BVH. The first child of an interior
// node is always the next array slot.
type LinearNode struct {
	Bounds core.AABB
	Offset int32 // interior: index of second child; leaf: first primitive
	Count  int32 // 0 for interior nodes
	Axis   uint8 // split axis, used to visit the near child first
}

// IsLeaf reports whether the node references primitives directly
func (n LinearNode) IsLeaf() bool {
	return n.Count > 0
}

// BuildBVH reorders a copy of prims so every leaf covers a contiguous range and
// returns it with the flattened node array. An empty input yields no nodes.
func BuildBVH(prims []Primitive) ([]Primitive, []LinearNode) {
	if len(prims) == 0 {
		return nil, nil
	}

	// Work on a copy so the caller's slice keeps its order
	ordered := make([]Primitive, len(prims))
	copy(ordered, prims)

	b := &bvhBuilder{
		prims:  ordered,
		bounds: make([]core.AABB, len(ordered)),
		nodes:  make([]LinearNode, 0, 2*len(ordered)),
	}
	for i := range ordered {
		b.bounds[i] = ordered[i].Bounds()
	}
	b.build(0, len(ordered), 0)
	return b.prims, b.nodes
}

type bvhBuilder struct {
	prims  []Primitive
	bounds []core.AABB // parallel to prims
	nodes  []LinearNode
}

// build appends the subtree for prims[start:end] and returns its root index
func (b *bvhBuilder) build(start, end, depth int) int {
	index := len(b.nodes)
	b.nodes = append(b.nodes, LinearNode{})

	bounds := core.EmptyAABB()
	centroids := core.EmptyAABB()
	for i := start; i < end; i++ {
		bounds = bounds.Union(b.bounds[i])
		centroids = centroids.Extend(b.bounds[i].Center())
	}

	count := end - start
	if count <= leafThreshold || depth >= maxBuildDepth {
		b.nodes[index] = LinearNode{Bounds: bounds, Offset: int32(start), Count: int32(count)}
		return index
	}

	axis := centroids.LongestAxis()
	lo, hi := centroids.Min.Axis(axis), centroids.Max.Axis(axis)
	if hi <= lo {
		// All centroids coincide, nothing to split on
		b.nodes[index] = LinearNode{Bounds: bounds, Offset: int32(start), Count: int32(count)}
		return index
	}

	mid := b.partition(start, end, axis, (lo+hi)*0.5)
	if mid == start || mid == end {
		// Midpoint split left one side empty; fall back to a median split
		b.sortByAxis(start, end, axis)
		mid = start + count/2
	}

	b.build(start, mid, depth+1)
	second := b.build(mid, end, depth+1)
	b.nodes[index] = LinearNode{Bounds: bounds, Offset: int32(second), Axis: uint8(axis)}
	return index
}

// partition moves primitives whose centroid lies below splitPos to the front
// of the range and returns the first index of the upper half
func (b *bvhBuilder) partition(start, end, axis int, splitPos float64) int {
	mid := start
	for i := start; i < end; i++ {
		if b.bounds[i].Center().Axis(axis) < splitPos {
			b.swap(i, mid)
			mid++
		}
	}
	return mid
}

// sortByAxis orders the range by bounding box center along axis
func (b *bvhBuilder) sortByAxis(start, end, axis int) {
	sort.Stable(axisOrder{b: b, start: start, n: end - start, axis: axis})
}

func (b *bvhBuilder) swap(i, j int) {
	b.prims[i], b.prims[j] = b.prims[j], b.prims[i]
	b.bounds[i], b.bounds[j] = b.bounds[j], b.bounds[i]
}

// axisOrder sorts a window of the builder's parallel arrays together
type axisOrder struct {
	b     *bvhBuilder
	start int
	n     int
	axis  int
}

func (o axisOrder) Len() int { return o.n }
func (o axisOrder) Less(i, j int) bool {
	return o.b.bounds[o.start+i].Center().Axis(o.axis) < o.b.bounds[o.start+j].Center().Axis(o.axis)
}
func (o axisOrder) Swap(i, j int) { o.b.swap(o.start+i, o.start+j) }

// BVHStats summarizes the shape of a flattened tree
type BVHStats struct {
	TotalNodes      int
	LeafNodes       int
	MaxDepth        int
	AvgLeafDepth    float64
	TotalPrimitives int
}

// CollectStats walks the flattened tree and reports its shape
func CollectStats(nodes []LinearNode) BVHStats {
	var stats BVHStats
	if len(nodes) == 0 {
		return stats
	}
	collectStats(nodes, 0, 0, &stats)

	// Calculate average depth after collecting all data
	if stats.LeafNodes > 0 {
		stats.AvgLeafDepth /= float64(stats.LeafNodes)
	}
	return stats
}

func collectStats(nodes []LinearNode, index, depth int, stats *BVHStats) {
	stats.TotalNodes++
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	node := nodes[index]
	if node.IsLeaf() {
		stats.LeafNodes++
		stats.TotalPrimitives += int(node.Count)
		stats.AvgLeafDepth += float64(depth) // Accumulate depth for average calculation
		return
	}
	collectStats(nodes, index+1, depth+1, stats)
	collectStats(nodes, int(node.Offset), depth+1, stats)
}
