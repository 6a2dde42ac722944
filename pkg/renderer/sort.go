package renderer

import "sort"

// materialOrder sorts paths and their intersections together
type materialOrder struct {
	paths []PathSegment
	hits  []Intersection
}

func (o materialOrder) Len() int { return len(o.paths) }

func (o materialOrder) Less(i, j int) bool {
	return materialKey(&o.hits[i]) < materialKey(&o.hits[j])
}

func (o materialOrder) Swap(i, j int) {
	o.paths[i], o.paths[j] = o.paths[j], o.paths[i]
	o.hits[i], o.hits[j] = o.hits[j], o.hits[i]
}

// materialKey orders misses before every material
func materialKey(h *Intersection) int {
	if !h.Hit() {
		return -1
	}
	return h.MaterialID
}

// sortByMaterial groups paths hitting the same material. The sort is stable
// so paths with equal keys keep their relative order.
func sortByMaterial(paths []PathSegment, hits []Intersection) {
	sort.Stable(materialOrder{paths: paths, hits: hits})
}
