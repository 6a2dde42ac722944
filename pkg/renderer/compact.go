package renderer

// compactPaths moves every live path in front of every terminated one and
// returns the number of live paths. Paths are swapped whole, so each keeps
// its pixel index and throughput. The order within each side is not kept.
func compactPaths(paths []PathSegment) int {
	i, j := 0, len(paths)-1
	for {
		for i <= j && paths[i].Alive() {
			i++
		}
		for i <= j && !paths[j].Alive() {
			j--
		}
		if i >= j {
			return i
		}
		paths[i], paths[j] = paths[j], paths[i]
		i++
		j--
	}
}
