package renderer

// gather adds the final color of every path to its pixel. It walks the whole
// path buffer, not just the live prefix; pixel indices are unique so no two
// kernels touch the same pixel.
func (s *Session) gather() error {
	paths := s.paths.data
	image := s.image.data

	return s.pool.Launch(StageGather, len(paths), s.opts.BlockSize, func(i int) {
		p := &paths[i]
		image[p.PixelIndex] = image[p.PixelIndex].Add(p.Color)
	})
}
