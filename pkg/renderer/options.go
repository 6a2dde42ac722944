package renderer

// Options toggles the optional stages of the wavefront loop and sizes the worker pool
type Options struct {
	SortByMaterial     bool // Stable sort of active paths by material id before shading
	CompactPaths       bool // Partition live paths to the front after each bounce
	UseBVH             bool // Traverse the flattened tree instead of testing every primitive
	ProceduralTextures bool // Replace texel lookups with the procedural palette
	NumWorkers         int  // Number of pool goroutines (0 = use CPU count)
	BlockSize          int  // Path indices per kernel block
	LogEvery           int  // Log a summary every N iterations (0 = never)
}

// DefaultOptions returns the configuration used by the CLI and servers
func DefaultOptions() Options {
	return Options{
		SortByMaterial:     false,
		CompactPaths:       true,
		UseBVH:             true,
		ProceduralTextures: false,
		NumWorkers:         0,   // Auto-detect CPU count
		BlockSize:          256, // One block per kernel launch unit
		LogEvery:           0,
	}
}

// normalized fills in the zero-valued knobs
func (o Options) normalized() Options {
	if o.BlockSize <= 0 {
		o.BlockSize = 256
	}
	return o
}
