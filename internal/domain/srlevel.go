package domain

// LevelKind classifies a support/resistance level.
type LevelKind string

const (
	Support    LevelKind = "support"
	Resistance LevelKind = "resistance"
	PivotPoint LevelKind = "pivot"
)

// SRLevel is one merged support/resistance level with its composite strength
// score. Levels are produced fresh on every detection call and never mutated.
type SRLevel struct {
	Price       float64
	Kind        LevelKind
	Score       float64 // composite strength score
	Touches     int     // bars whose range overlapped the tolerance band
	VolumeRatio float64 // average volume at touches vs series average
	ClusterSize int     // number of raw candidates merged into this level
}
