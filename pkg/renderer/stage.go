package renderer

// Stage identifies one step of the wavefront loop
type Stage int

const (
	StageGenerate Stage = iota
	StageClear
	StageIntersect
	StageSort
	StageShade
	StageCompact
	StageGather
	StagePresent
	numStages
)

var stageNames = [numStages]string{
	StageGenerate:  "generate",
	StageClear:     "clear",
	StageIntersect: "intersect",
	StageSort:      "sort",
	StageShade:     "shade",
	StageCompact:   "compact",
	StageGather:    "gather",
	StagePresent:   "present",
}

func (s Stage) String() string {
	if s < 0 || s >= numStages {
		return "unknown"
	}
	return stageNames[s]
}
