package geometry

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// randomScene mixes every primitive kind with a unique material id per primitive
func randomScene(rng *rand.Rand, n int) []Primitive {
	prims := make([]Primitive, 0, n)
	randVec := func(scale float64) core.Vec3 {
		return core.NewVec3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1).Multiply(scale)
	}
	for i := 0; i < n; i++ {
		center := randVec(10)
		switch i % 4 {
		case 0:
			prims = append(prims, NewSphere(center, 0.2+rng.Float64(), i))
		case 1:
			prims = append(prims, NewBox(center, randVec(1).Abs().Add(core.NewVec3(0.1, 0.1, 0.1)), randVec(90), i))
		case 2:
			prims = append(prims, NewTriangle(
				Vertex{Position: center.Add(randVec(1.5))},
				Vertex{Position: center.Add(randVec(1.5))},
				Vertex{Position: center.Add(randVec(1.5))},
				i,
			))
		default:
			prims = append(prims, NewSphere(center, 0.05, i))
		}
	}
	return prims
}

func TestBVH_AgreesWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	prims := randomScene(rng, 400)
	ordered, nodes := BuildBVH(prims)

	if len(ordered) != len(prims) {
		t.Fatalf("Expected %d primitives after build, got %d", len(prims), len(ordered))
	}

	for i := 0; i < 2000; i++ {
		origin := core.NewVec3(rng.Float64()*30-15, rng.Float64()*30-15, 20)
		target := core.NewVec3(rng.Float64()*20-10, rng.Float64()*20-10, rng.Float64()*20-10)
		ray := core.NewRay(origin, target.Subtract(origin))

		bruteHit, bruteIndex := IntersectAll(prims, ray)
		bvhHit, bvhIndex := IntersectBVH(nodes, ordered, ray)

		if (bruteIndex == NoHit) != (bvhIndex == NoHit) {
			t.Fatalf("ray %d: brute force index %d, bvh index %d", i, bruteIndex, bvhIndex)
		}
		if bruteIndex == NoHit {
			continue
		}
		if math.Abs(bruteHit.T-bvhHit.T) > 1e-9 {
			t.Errorf("ray %d: brute force t=%f, bvh t=%f", i, bruteHit.T, bvhHit.T)
		}
		if prims[bruteIndex].MaterialID != ordered[bvhIndex].MaterialID {
			t.Errorf("ray %d: brute force material %d, bvh material %d",
				i, prims[bruteIndex].MaterialID, ordered[bvhIndex].MaterialID)
		}
	}
}

func TestBVH_RayOnNodeSlabPlane(t *testing.T) {
	// Box spans x in [0, 1]; every ray starts on the x = 0 plane with no x motion
	tests := []struct {
		name  string
		prims []Primitive
	}{
		{"single box", []Primitive{NewBox(core.NewVec3(0.5, 0, 0), core.NewVec3(1, 1, 1), core.Vec3{}, 0)}},
		{"box among spheres", []Primitive{
			NewBox(core.NewVec3(0.5, 0, 0), core.NewVec3(1, 1, 1), core.Vec3{}, 0),
			NewSphere(core.NewVec3(-4, 0, 0), 0.5, 1),
			NewSphere(core.NewVec3(4, 3, -2), 0.5, 2),
			NewSphere(core.NewVec3(0, -5, 1), 0.5, 3),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ordered, nodes := BuildBVH(tt.prims)
			ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))

			bruteHit, bruteIndex := IntersectAll(tt.prims, ray)
			bvhHit, bvhIndex := IntersectBVH(nodes, ordered, ray)
			if bruteIndex == NoHit || bvhIndex == NoHit {
				t.Fatalf("Expected both to hit, brute force index %d, bvh index %d", bruteIndex, bvhIndex)
			}
			if math.Abs(bruteHit.T-4.5) > 1e-9 || math.Abs(bvhHit.T-bruteHit.T) > 1e-9 {
				t.Errorf("Expected t=4.5, brute force t=%f, bvh t=%f", bruteHit.T, bvhHit.T)
			}
			if ordered[bvhIndex].MaterialID != 0 {
				t.Errorf("Expected the box, got material %d", ordered[bvhIndex].MaterialID)
			}
		})
	}
}

func TestBVH_Empty(t *testing.T) {
	ordered, nodes := BuildBVH(nil)
	if len(ordered) != 0 || len(nodes) != 0 {
		t.Fatalf("Expected empty build, got %d prims and %d nodes", len(ordered), len(nodes))
	}

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	if _, index := IntersectBVH(nodes, ordered, ray); index != NoHit {
		t.Errorf("Expected NoHit, got %d", index)
	}
	if _, index := IntersectAll(nil, ray); index != NoHit {
		t.Errorf("Expected NoHit, got %d", index)
	}
}

func TestBVH_Structure(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	prims := randomScene(rng, 1000)
	// Coincident centroids force the median fallback and the shared-centroid leaf
	for i := 0; i < 20; i++ {
		prims = append(prims, NewSphere(core.NewVec3(3, 3, 3), 0.1*float64(i+1), 1000+i))
	}
	ordered, nodes := BuildBVH(prims)

	stats := CollectStats(nodes)
	if stats.TotalNodes != len(nodes) {
		t.Errorf("Expected every node reachable, walked %d of %d", stats.TotalNodes, len(nodes))
	}
	if stats.TotalPrimitives != len(ordered) {
		t.Errorf("Expected leaves to cover %d primitives, got %d", len(ordered), stats.TotalPrimitives)
	}
	if stats.MaxDepth > maxBuildDepth {
		t.Errorf("Expected depth <= %d, got %d", maxBuildDepth, stats.MaxDepth)
	}

	for i, node := range nodes {
		if node.IsLeaf() {
			for j := node.Offset; j < node.Offset+node.Count; j++ {
				b := ordered[j].Bounds()
				if !node.Bounds.Contains(b.Min, 1e-9) || !node.Bounds.Contains(b.Max, 1e-9) {
					t.Fatalf("node %d does not bound primitive %d", i, j)
				}
			}
			continue
		}
		if int(node.Offset) <= i+1 || int(node.Offset) >= len(nodes) {
			t.Fatalf("node %d has invalid second child %d", i, node.Offset)
		}
		for _, child := range []int{i + 1, int(node.Offset)} {
			cb := nodes[child].Bounds
			if !node.Bounds.Contains(cb.Min, 1e-9) || !node.Bounds.Contains(cb.Max, 1e-9) {
				t.Fatalf("node %d does not bound child %d", i, child)
			}
		}
	}
}

func TestBuildBVH_DoesNotReorderInput(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	prims := randomScene(rng, 50)
	before := make([]int, len(prims))
	for i, p := range prims {
		before[i] = p.MaterialID
	}

	BuildBVH(prims)

	for i, p := range prims {
		if p.MaterialID != before[i] {
			t.Fatalf("input reordered at %d", i)
		}
	}
}
