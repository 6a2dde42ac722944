package renderer

import (
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// intersectPath finds the nearest hit for a live path. Terminated paths are
// reported as misses without testing any geometry.
func (m *sceneMirror) intersectPath(path *PathSegment, useBVH bool) Intersection {
	if !path.Alive() {
		return missed
	}

	var hit geometry.Hit
	var index int
	if useBVH {
		hit, index = geometry.IntersectBVH(m.nodes.data, m.primitives.data, path.Ray)
	} else {
		hit, index = geometry.IntersectAll(m.primitives.data, path.Ray)
	}
	if index == geometry.NoHit {
		return missed
	}

	materialID := m.primitives.data[index].MaterialID
	normal := hit.Normal
	if mat := &m.materials.data[materialID]; mat.NormalMap.Present() {
		normal = material.PerturbNormal(normal, m.texels.data, mat.NormalMap, hit.UV)
	}

	return Intersection{
		T:          hit.T,
		MaterialID: materialID,
		Point:      hit.Point,
		Normal:     normal,
		UV:         hit.UV,
		FrontFace:  hit.FrontFace,
	}
}

// intersect clears the first active intersection records and refills them
func (s *Session) intersect(active int) error {
	paths := s.paths.data[:active]
	hits := s.hits.data[:active]

	err := s.pool.Launch(StageClear, active, s.opts.BlockSize, func(i int) {
		hits[i] = missed
	})
	if err != nil {
		return err
	}

	mirror := &s.mirror
	useBVH := s.opts.UseBVH
	return s.pool.Launch(StageIntersect, active, s.opts.BlockSize, func(i int) {
		hits[i] = mirror.intersectPath(&paths[i], useBVH)
	})
}
