// Package srlevels detects and scores support/resistance levels from an
// OHLCV bar series using fractal pivot clustering and classic pivot-point
// formulas.
package srlevels

import (
	"fmt"
	"math"
	"sort"
	"time"

	"trendScanner/internal/domain"
	"trendScanner/internal/ports"
)

// Config holds parameters for the detector.
type Config struct {
	LookbackWindow int     // fractal pivot half-window (e.g., 8)
	MergeThreshold float64 // relative price distance below which levels merge (e.g., 0.002)
	Tolerance      float64 // relative tolerance band for level touch counting (e.g., 0.001)
}

// DefaultConfig returns the detector parameters used by the signal scanner's
// S/R confirmation step.
func DefaultConfig() Config {
	return Config{
		LookbackWindow: 8,
		MergeThreshold: 0.002,
		Tolerance:      0.001,
	}
}

// Candidate is one raw level before merging: either a fractal pivot or a
// pivot-point formula level.
type Candidate struct {
	Price     float64
	Kind      domain.LevelKind
	Index     int       // bar index for fractal pivots, -1 for formula levels
	Timestamp time.Time // zero for formula levels
	Source    string    // "fractal_high", "fractal_low", "pivot", "pivot_r1", ...

	// VolumeStrength is the pivot bar's volume versus the window average;
	// set only for fractal pivots.
	VolumeStrength    float64
	HasVolumeStrength bool

	// Strength is the fixed weight of a pivot-point formula level.
	Strength int
}

// Strength summarizes how often and how heavily price has tested a level.
type Strength struct {
	Touches     int
	VolumeRatio float64
}

// Levels is the detector's output: top-N supports and resistances sorted
// descending by composite score, plus the full merged set.
type Levels struct {
	Supports    []domain.SRLevel
	Resistances []domain.SRLevel
	All         []domain.SRLevel
}

// Detector derives support/resistance levels from a bar series. It is
// constructed fresh per invocation and holds no state between calls.
type Detector struct {
	bars []domain.Bar
	cfg  Config
}

// New creates a detector over the given series.
func New(bars []domain.Bar, cfg Config) *Detector {
	return &Detector{bars: bars, cfg: cfg}
}

// FractalPivots finds bars whose High (Low) is the extreme of the full
// symmetric window around them, tagging each with the bar's volume versus the
// window average volume. Resistance candidates come first, then supports,
// each in series order.
func (d *Detector) FractalPivots() []Candidate {
	w := d.cfg.LookbackWindow
	var highs, lows []Candidate

	for i := w; i < len(d.bars)-w; i++ {
		maxHigh, minLow, avgVol := d.windowStats(i-w, i+w)
		b := d.bars[i]

		if b.High == maxHigh {
			highs = append(highs, Candidate{
				Price:             b.High,
				Kind:              domain.Resistance,
				Index:             i,
				Timestamp:         b.Timestamp,
				Source:            "fractal_high",
				VolumeStrength:    neutralRatio(b.Volume, avgVol),
				HasVolumeStrength: true,
			})
		}
		if b.Low == minLow {
			lows = append(lows, Candidate{
				Price:             b.Low,
				Kind:              domain.Support,
				Index:             i,
				Timestamp:         b.Timestamp,
				Source:            "fractal_low",
				VolumeStrength:    neutralRatio(b.Volume, avgVol),
				HasVolumeStrength: true,
			})
		}
	}
	return append(highs, lows...)
}

func (d *Detector) windowStats(from, to int) (maxHigh, minLow, avgVol float64) {
	maxHigh = d.bars[from].High
	minLow = d.bars[from].Low
	sumVol := 0.0
	for j := from; j <= to; j++ {
		if d.bars[j].High > maxHigh {
			maxHigh = d.bars[j].High
		}
		if d.bars[j].Low < minLow {
			minLow = d.bars[j].Low
		}
		sumVol += d.bars[j].Volume
	}
	avgVol = sumVol / float64(to-from+1)
	return maxHigh, minLow, avgVol
}

// PivotPoints derives the classic pivot-point levels from the last bar's
// High/Low/Close: P=(H+L+C)/3, R1=2P-L, R2=P+(H-L), R3=H+2(P-L),
// S1=2P-H, S2=P-(H-L), S3=L-2(H-P). Each carries a fixed strength weight.
func (d *Detector) PivotPoints() []Candidate {
	if len(d.bars) == 0 {
		return nil
	}
	last := d.bars[len(d.bars)-1]
	h, l, c := last.High, last.Low, last.Close

	pivot := (h + l + c) / 3
	r1 := 2*pivot - l
	r2 := pivot + (h - l)
	r3 := h + 2*(pivot-l)
	s1 := 2*pivot - h
	s2 := pivot - (h - l)
	s3 := l - 2*(h-pivot)

	return []Candidate{
		{Price: r3, Kind: domain.Resistance, Index: -1, Source: "pivot_r3", Strength: 3},
		{Price: r2, Kind: domain.Resistance, Index: -1, Source: "pivot_r2", Strength: 2},
		{Price: r1, Kind: domain.Resistance, Index: -1, Source: "pivot_r1", Strength: 1},
		{Price: pivot, Kind: domain.PivotPoint, Index: -1, Source: "pivot", Strength: 4},
		{Price: s1, Kind: domain.Support, Index: -1, Source: "pivot_s1", Strength: 1},
		{Price: s2, Kind: domain.Support, Index: -1, Source: "pivot_s2", Strength: 2},
		{Price: s3, Kind: domain.Support, Index: -1, Source: "pivot_s3", Strength: 3},
	}
}

// TestLevelStrength counts the bars whose [Low, High] range overlaps the
// tolerance band around price and compares the average volume at those
// touches against the series' overall average volume. A zero overall average
// yields a neutral ratio of 1.
func (d *Detector) TestLevelStrength(price, tolerance float64) Strength {
	touches := 0
	totalVolume := 0.0
	for _, b := range d.bars {
		if b.Low <= price*(1+tolerance) && b.High >= price*(1-tolerance) {
			touches++
			totalVolume += b.Volume
		}
	}

	avgAtTouches := 0.0
	if touches > 0 {
		avgAtTouches = totalVolume / float64(touches)
	}

	overallAvg := 0.0
	if len(d.bars) > 0 {
		sum := 0.0
		for _, b := range d.bars {
			sum += b.Volume
		}
		overallAvg = sum / float64(len(d.bars))
	}

	return Strength{
		Touches:     touches,
		VolumeRatio: neutralRatio(avgAtTouches, overallAvg),
	}
}

// MergeAndScore sorts candidates ascending by price, clusters runs of levels
// whose relative distance to the cluster anchor is below the merge threshold,
// and scores each cluster at its mean price:
//
//	score = min(volumeRatio, 3) + min(touches, 10)/10*5 +
//	        min(clusterSize, 5)/5*2 + min(anchor volumeStrength, 2)
//
// The anchor volume-strength term is 0 when the anchor is a formula level.
// The merged level takes the anchor's kind. Deterministic for identical input.
func (d *Detector) MergeAndScore(candidates []Candidate) []domain.SRLevel {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	var merged []domain.SRLevel
	i := 0
	for i < len(sorted) {
		anchor := sorted[i]
		j := i + 1
		for j < len(sorted) {
			if math.Abs(sorted[j].Price-anchor.Price)/anchor.Price < d.cfg.MergeThreshold {
				j++
			} else {
				break
			}
		}
		cluster := sorted[i:j]

		sum := 0.0
		for _, c := range cluster {
			sum += c.Price
		}
		avgPrice := sum / float64(len(cluster))

		strength := d.TestLevelStrength(avgPrice, d.cfg.Tolerance)

		volumeScore := math.Min(strength.VolumeRatio, 3.0)
		touchScore := math.Min(float64(strength.Touches), 10) / 10 * 5
		clusterScore := math.Min(float64(len(cluster)), 5) / 5 * 2
		volStrengthScore := 0.0
		if anchor.HasVolumeStrength && anchor.VolumeStrength != 0 {
			volStrengthScore = math.Min(anchor.VolumeStrength, 2.0)
		}

		merged = append(merged, domain.SRLevel{
			Price:       avgPrice,
			Kind:        anchor.Kind,
			Score:       volumeScore + touchScore + clusterScore + volStrengthScore,
			Touches:     strength.Touches,
			VolumeRatio: strength.VolumeRatio,
			ClusterSize: len(cluster),
		})
		i = j
	}
	return merged
}

// TopLevels merges and scores all candidate levels and returns the top
// numLevels supports and resistances by composite score, plus the full
// merged set. Returns ports.ErrNoLevelsDetected when the series yields no
// candidates at all.
func (d *Detector) TopLevels(numLevels int) (*Levels, error) {
	candidates := append(d.FractalPivots(), d.PivotPoints()...)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: series of %d bars yielded no candidates",
			ports.ErrNoLevelsDetected, len(d.bars))
	}

	merged := d.MergeAndScore(candidates)

	var supports, resistances []domain.SRLevel
	for _, lvl := range merged {
		switch lvl.Kind {
		case domain.Support:
			supports = append(supports, lvl)
		case domain.Resistance:
			resistances = append(resistances, lvl)
		}
	}
	sort.SliceStable(supports, func(i, j int) bool { return supports[i].Score > supports[j].Score })
	sort.SliceStable(resistances, func(i, j int) bool { return resistances[i].Score > resistances[j].Score })

	if len(supports) > numLevels {
		supports = supports[:numLevels]
	}
	if len(resistances) > numLevels {
		resistances = resistances[:numLevels]
	}

	return &Levels{Supports: supports, Resistances: resistances, All: merged}, nil
}

// neutralRatio divides value by avg, treating a zero average as neutral (1).
func neutralRatio(value, avg float64) float64 {
	if avg == 0 {
		return 1
	}
	return value / avg
}
