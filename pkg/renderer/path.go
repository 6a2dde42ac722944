package renderer

import (
	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
)

// NoHit marks an intersection record whose ray hit nothing
const NoHit = geometry.NoHit

// PathSegment is the state of one light path between bounces
type PathSegment struct {
	Ray              core.Ray
	Color            core.Vec3 // throughput, starts at (1,1,1)
	PixelIndex       int       // stable across sorting and compaction
	RemainingBounces int       // 0 means terminated
}

// Alive reports whether the path still has bounces left
func (p *PathSegment) Alive() bool {
	return p.RemainingBounces > 0
}

// terminate ends the path with the given final color
func (p *PathSegment) terminate(color core.Vec3) {
	p.Color = color
	p.RemainingBounces = 0
}

// Intersection is the nearest hit of the path at the same array position
type Intersection struct {
	T          float64 // NoHit for a miss
	MaterialID int
	Point      core.Vec3
	Normal     core.Vec3 // facing against the ray, normal-mapped when the material has one
	UV         core.Vec2
	FrontFace  bool
}

// missed is the cleared intersection record
var missed = Intersection{T: NoHit}

// Hit reports whether the record holds a surface hit
func (h *Intersection) Hit() bool {
	return h.T >= 0
}
