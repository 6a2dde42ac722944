package renderer

import (
	"image/color"
	"math"
	"testing"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
	"github.com/df07/go-wavefront-pathtracer/pkg/scene"
)

func pathsWithCounters(counters ...int) []PathSegment {
	paths := make([]PathSegment, len(counters))
	for i, c := range counters {
		paths[i] = PathSegment{
			Color:            core.NewVec3(float64(i), 0, 0),
			PixelIndex:       i,
			RemainingBounces: c,
		}
	}
	return paths
}

func TestCompactPaths(t *testing.T) {
	tests := []struct {
		name     string
		counters []int
	}{
		{"empty", nil},
		{"all live", []int{1, 2, 3}},
		{"all dead", []int{0, 0, 0, 0}},
		{"alternating", []int{0, 1, 0, 2, 0, 3, 0}},
		{"dead prefix", []int{0, 0, 0, 5, 5}},
		{"dead suffix", []int{4, 4, 0, 0}},
		{"single dead", []int{0}},
		{"single live", []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := pathsWithCounters(tt.counters...)
			live := 0
			for _, c := range tt.counters {
				if c > 0 {
					live++
				}
			}

			n := compactPaths(paths)
			if n != live {
				t.Fatalf("Expected %d live paths, got %d", live, n)
			}
			for i, p := range paths {
				if (i < n) != p.Alive() {
					t.Errorf("Slot %d: alive=%v with prefix length %d", i, p.Alive(), n)
				}
			}

			// Every path survives intact, just moved
			seen := make(map[int]bool)
			for _, p := range paths {
				if seen[p.PixelIndex] {
					t.Fatalf("Pixel %d appears twice", p.PixelIndex)
				}
				seen[p.PixelIndex] = true
				if p.RemainingBounces != tt.counters[p.PixelIndex] || p.Color.X != float64(p.PixelIndex) {
					t.Errorf("Pixel %d: state changed to %+v", p.PixelIndex, p)
				}
			}
			if len(seen) != len(tt.counters) {
				t.Errorf("Expected %d paths, got %d", len(tt.counters), len(seen))
			}
		})
	}
}

func TestSortByMaterial(t *testing.T) {
	materials := []int{2, NoHit, 0, 2, 1, NoHit, 0, 1, 2}
	paths := pathsWithCounters(make([]int, len(materials))...)
	hits := make([]Intersection, len(materials))
	for i, id := range materials {
		if id == NoHit {
			hits[i] = missed
		} else {
			hits[i] = Intersection{T: float64(i + 1), MaterialID: id}
		}
	}

	sortByMaterial(paths, hits)

	for i := range paths {
		// The hit must still belong to its path
		if want := materials[paths[i].PixelIndex]; materialKey(&hits[i]) != want {
			t.Fatalf("Slot %d: path %d paired with key %d, expected %d", i, paths[i].PixelIndex, materialKey(&hits[i]), want)
		}
		if hits[i].Hit() && hits[i].T != float64(paths[i].PixelIndex+1) {
			t.Errorf("Slot %d: intersection moved without its path", i)
		}
		if i == 0 {
			continue
		}
		prev, cur := materialKey(&hits[i-1]), materialKey(&hits[i])
		if prev > cur {
			t.Errorf("Keys out of order at slot %d: %d then %d", i, prev, cur)
		}
		if prev == cur && paths[i-1].PixelIndex > paths[i].PixelIndex {
			t.Errorf("Sort is not stable at slot %d", i)
		}
	}
	if materialKey(&hits[0]) != -1 {
		t.Errorf("Expected misses first, got key %d", materialKey(&hits[0]))
	}
}

func TestGeneratePath(t *testing.T) {
	sc := scene.NewEmptyScene(9, 7, 3)
	cam := &sc.Camera

	for pixel := 0; pixel < sc.PixelCount(); pixel++ {
		p := generatePath(cam, 5, pixel, 3)
		if p.PixelIndex != pixel || p.RemainingBounces != 3 {
			t.Fatalf("Pixel %d: got index %d and counter %d", pixel, p.PixelIndex, p.RemainingBounces)
		}
		if !p.Color.Equals(core.NewVec3(1, 1, 1)) {
			t.Fatalf("Pixel %d: expected white throughput, got %v", pixel, p.Color)
		}
		if !p.Ray.Origin.Equals(cam.Position) {
			t.Fatalf("Pixel %d: ray starts at %v", pixel, p.Ray.Origin)
		}
		if math.Abs(p.Ray.Direction.Length()-1) > 1e-12 {
			t.Fatalf("Pixel %d: direction not normalized", pixel)
		}
	}

	// Row 0 is the top of the image
	top := generatePath(cam, 0, 4, 3)
	bottom := generatePath(cam, 0, 6*9+4, 3)
	if top.Ray.Direction.Dot(cam.Up) <= 0 || bottom.Ray.Direction.Dot(cam.Up) >= 0 {
		t.Errorf("Expected top row to look up and bottom row down, got %v and %v", top.Ray.Direction, bottom.Ray.Direction)
	}

	// Jitter stays within one pixel of the image center for the middle pixel
	center := generatePath(cam, 1, 3*9+4, 3)
	maxOffset := math.Hypot(cam.PixelLength.X, cam.PixelLength.Y)
	if offset := center.Ray.Direction.Subtract(cam.View).Length(); offset > maxOffset {
		t.Errorf("Center ray is %v away from the view axis, limit %v", offset, maxOffset)
	}

	// Same stream for the same (iteration, pixel), a different one otherwise
	if a, b := generatePath(cam, 2, 10, 3), generatePath(cam, 2, 10, 3); a != b {
		t.Error("Expected identical paths for the same iteration and pixel")
	}
	if a, b := generatePath(cam, 2, 10, 3), generatePath(cam, 3, 10, 3); a.Ray.Direction.Equals(b.Ray.Direction) {
		t.Error("Expected different jitter in different iterations")
	}
}

// shadingMirror is a hand-built scene mirror for shader tests
func shadingMirror() *sceneMirror {
	m := newSceneMirror()
	m.materials.data = []material.Material{
		material.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5)),
		material.NewEmissive(core.NewVec3(1, 0.5, 0.25), 2),
		material.NewDiffuse(core.NewVec3(1, 1, 1)).WithTexture(material.TextureRef{Offset: material.TextureLoadError}),
		material.NewDiffuse(core.NewVec3(1, 1, 1)).WithTexture(material.TextureRef{Offset: 0, Width: 1, Height: 1}),
		material.NewSpecular(core.NewVec3(0.9, 0.8, 0.7), 0),
	}
	m.texels.data = []core.Vec3{core.NewVec3(0.2, 0.4, 0.6)}
	return &m
}

func floorHit(materialID int) Intersection {
	return Intersection{
		T:          1,
		MaterialID: materialID,
		Point:      core.NewVec3(0, 0, 0),
		Normal:     core.NewVec3(0, 1, 0),
		UV:         core.NewVec2(0.3, 0.7),
		FrontFace:  true,
	}
}

func downwardPath(bounces int) PathSegment {
	return PathSegment{
		Ray:              core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0)),
		Color:            core.NewVec3(1, 1, 1),
		PixelIndex:       17,
		RemainingBounces: bounces,
	}
}

func TestShadeTerminations(t *testing.T) {
	m := shadingMirror()

	tests := []struct {
		name     string
		bounces  int
		hit      Intersection
		expected core.Vec3
	}{
		{"miss", 3, missed, core.Vec3{}},
		{"emissive", 3, floorHit(1), core.NewVec3(2, 1, 0.5)},
		{"texture load error", 3, floorHit(2), core.NewVec3(1, 0, 1)},
		{"last bounce without light", 1, floorHit(0), core.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := downwardPath(tt.bounces)
			m.shadePath(&path, &tt.hit, 0, 1, false)
			if path.RemainingBounces != 0 {
				t.Errorf("Expected terminated path, counter is %d", path.RemainingBounces)
			}
			if !path.Color.Equals(tt.expected) {
				t.Errorf("Expected color %v, got %v", tt.expected, path.Color)
			}
		})
	}
}

func TestShadeSkipsTerminatedPaths(t *testing.T) {
	m := shadingMirror()
	path := downwardPath(0)
	path.Color = core.NewVec3(0.1, 0.2, 0.3)
	before := path

	hit := floorHit(1)
	m.shadePath(&path, &hit, 0, 1, false)
	if path != before {
		t.Errorf("Terminated path changed: %+v", path)
	}
}

func TestShadeScatter(t *testing.T) {
	m := shadingMirror()
	procedural := material.ProceduralColor(core.NewVec2(0.3, 0.7))

	tests := []struct {
		name       string
		materialID int
		procedural bool
		albedo     core.Vec3
	}{
		{"diffuse", 0, false, core.NewVec3(0.5, 0.5, 0.5)},
		{"texel", 3, false, core.NewVec3(0.2, 0.4, 0.6)},
		{"procedural", 3, true, procedural},
		{"mirror", 4, false, core.NewVec3(0.9, 0.8, 0.7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := downwardPath(3)
			hit := floorHit(tt.materialID)
			m.shadePath(&path, &hit, 4, 1, tt.procedural)

			if path.RemainingBounces != 2 {
				t.Fatalf("Expected counter 2, got %d", path.RemainingBounces)
			}
			if diff := path.Color.Subtract(tt.albedo).Length(); diff > 1e-9 {
				t.Errorf("Expected throughput %v, got %v", tt.albedo, path.Color)
			}
			if want := hit.Normal.Multiply(RayEpsilon); !path.Ray.Origin.Equals(want) {
				t.Errorf("Expected origin %v, got %v", want, path.Ray.Origin)
			}
			if path.Ray.Direction.Dot(hit.Normal) <= 0 {
				t.Errorf("Scattered direction %v points into the surface", path.Ray.Direction)
			}
			if path.PixelIndex != 17 {
				t.Errorf("Pixel index changed to %d", path.PixelIndex)
			}
		})
	}

	// A perfect mirror reflects straight back up
	path := downwardPath(3)
	hit := floorHit(4)
	m.shadePath(&path, &hit, 0, 1, false)
	if !path.Ray.Direction.Equals(core.NewVec3(0, 1, 0)) {
		t.Errorf("Expected mirror reflection (0,1,0), got %v", path.Ray.Direction)
	}
}

func TestShadeIsAPureFunctionOfPathIdentity(t *testing.T) {
	m := shadingMirror()
	hit := floorHit(0)

	a, b := downwardPath(3), downwardPath(3)
	m.shadePath(&a, &hit, 7, 2, false)
	m.shadePath(&b, &hit, 7, 2, false)
	if a != b {
		t.Errorf("Expected identical results, got %+v and %+v", a, b)
	}

	c := downwardPath(3)
	m.shadePath(&c, &hit, 7, 3, false)
	if a.Ray.Direction.Equals(c.Ray.Direction) {
		t.Error("Expected a different direction at a different depth")
	}
}

func TestIntersectPathNormalMap(t *testing.T) {
	m := newSceneMirror()
	// Tangent-space normal tilted fully along the tangent
	m.texels.data = []core.Vec3{core.NewVec3(1, 0.5, 0.5)}
	m.materials.data = []material.Material{
		material.NewDiffuse(core.NewVec3(1, 1, 1)).WithNormalMap(material.TextureRef{Offset: 0, Width: 1, Height: 1}),
		material.NewDiffuse(core.NewVec3(1, 1, 1)),
	}
	m.primitives.data = []geometry.Primitive{
		geometry.NewSphere(core.NewVec3(0, 0, -3), 1, 0),
		geometry.NewSphere(core.NewVec3(0, 0, 3), 1, 1),
	}

	toward := func(z float64) PathSegment {
		return PathSegment{Ray: core.NewRay(core.Vec3{}, core.NewVec3(0, 0, z)), RemainingBounces: 1}
	}

	plain := toward(1)
	hit := m.intersectPath(&plain, false)
	if !hit.Hit() || hit.MaterialID != 1 || math.Abs(hit.T-2) > 1e-9 {
		t.Fatalf("Expected material 1 at t=2, got %+v", hit)
	}
	if hit.Normal.Subtract(core.NewVec3(0, 0, -1)).Length() > 1e-9 {
		t.Errorf("Expected geometric normal (0,0,-1), got %v", hit.Normal)
	}

	mapped := toward(-1)
	hit = m.intersectPath(&mapped, false)
	if !hit.Hit() || hit.MaterialID != 0 {
		t.Fatalf("Expected material 0, got %+v", hit)
	}
	if math.Abs(hit.Normal.Length()-1) > 1e-9 || math.Abs(hit.Normal.Dot(core.NewVec3(0, 0, 1))) > 1e-9 {
		t.Errorf("Expected a unit normal perpendicular to the geometric one, got %v", hit.Normal)
	}

	dead := toward(1)
	dead.RemainingBounces = 0
	if hit := m.intersectPath(&dead, false); hit != missed {
		t.Errorf("Expected a terminated path to miss, got %+v", hit)
	}
}

func TestAverageColor(t *testing.T) {
	tests := []struct {
		name     string
		sum      core.Vec3
		samples  int
		expected color.RGBA
	}{
		{"no samples", core.NewVec3(1, 1, 1), 0, color.RGBA{0, 0, 0, 255}},
		{"average", core.NewVec3(2, 1, 0), 2, color.RGBA{255, 127, 0, 255}},
		{"clamped", core.NewVec3(30, -4, 0.5), 1, color.RGBA{255, 0, 127, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageColor(tt.sum, tt.samples); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestValidateNodes(t *testing.T) {
	leaf := func(offset, count int32) geometry.LinearNode {
		return geometry.LinearNode{Offset: offset, Count: count}
	}
	interior := func(second int32) geometry.LinearNode {
		return geometry.LinearNode{Offset: second}
	}

	tests := []struct {
		name  string
		nodes []geometry.LinearNode
		prims int
		ok    bool
	}{
		{"empty", nil, 0, true},
		{"single leaf", []geometry.LinearNode{leaf(0, 3)}, 3, true},
		{"two leaves", []geometry.LinearNode{interior(2), leaf(0, 1), leaf(1, 2)}, 3, true},
		{"leaf past end", []geometry.LinearNode{leaf(2, 2)}, 3, false},
		{"second child out of range", []geometry.LinearNode{interior(5), leaf(0, 1), leaf(1, 1)}, 2, false},
		{"second child is first child", []geometry.LinearNode{interior(1), leaf(0, 1)}, 1, false},
		{"bad axis", []geometry.LinearNode{{Count: 1, Axis: 3}}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNodes(tt.nodes, tt.prims)
			if (err == nil) != tt.ok {
				t.Errorf("Expected ok=%v, got %v", tt.ok, err)
			}
		})
	}
}

func TestBuiltTreesValidate(t *testing.T) {
	sc := cornellScene(t, 8, 8)
	if err := validateNodes(sc.Nodes, len(sc.Primitives)); err != nil {
		t.Errorf("Built tree failed validation: %v", err)
	}
}
