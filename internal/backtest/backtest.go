// Package backtest summarizes scanned signals into accuracy and
// confirmation-rate statistics.
package backtest

import (
	"sort"

	"trendScanner/internal/domain"
)

// AccuracyReport holds the overall accuracy of signals with breakouts.
// Signals without a breakout or without a valid lookahead bar are excluded
// from the denominator, not counted as inaccurate.
type AccuracyReport struct {
	AccuracyRate      float64 // percentage
	TotalSignals      int
	BreakoutSignals   int // signals with a defined accuracy
	AccurateSignals   int
	InaccurateSignals int
}

// TypeStats is the accuracy breakdown for one signal type.
type TypeStats struct {
	TotalSignals    int
	BreakoutSignals int
	AccurateSignals int
	AccuracyRate    float64 // percentage
}

// Metrics holds confirmation-rate statistics across all signals.
type Metrics struct {
	TotalSignals                int
	BreakoutRate                float64 // percentage of signals with a breakout
	VolumeConfirmationRate      float64 // percentage with a volume-spike time
	CandleConfirmationRate      float64 // percentage with a big-candle time
	SRConfirmationRate          float64 // percentage with S/R confirmation
	SignalsWithSRConfirmation   int
	SignalsWithAllConfirmations int // volume spike + big candle + breakout

	// Average directional price move over the lookahead for breakout
	// signals; sign-flipped for SHORT so a favorable move is positive.
	AvgPriceChange float64
}

// ScoredSignal pairs a signal with its confirmation count for ranking.
type ScoredSignal struct {
	Signal        domain.Signal
	Confirmations int
}

// CalculateAccuracy computes the overall accuracy rate over signals with a
// defined accuracy. Returns a zero-rate report without error when no signal
// qualifies.
func CalculateAccuracy(signals []domain.Signal) AccuracyReport {
	report := AccuracyReport{TotalSignals: len(signals)}
	for _, sig := range signals {
		if sig.Accuracy == nil {
			continue
		}
		report.BreakoutSignals++
		if *sig.Accuracy {
			report.AccurateSignals++
		} else {
			report.InaccurateSignals++
		}
	}
	if report.BreakoutSignals > 0 {
		report.AccuracyRate = float64(report.AccurateSignals) / float64(report.BreakoutSignals) * 100
	}
	return report
}

// AnalyzeByType breaks accuracy down by signal type using the same
// defined-accuracy rule as CalculateAccuracy.
func AnalyzeByType(signals []domain.Signal) map[domain.SignalType]TypeStats {
	results := make(map[domain.SignalType]TypeStats)
	for _, sigType := range []domain.SignalType{domain.Long, domain.Short} {
		stats := TypeStats{}
		for _, sig := range signals {
			if sig.Type != sigType {
				continue
			}
			stats.TotalSignals++
			if sig.Accuracy == nil {
				continue
			}
			stats.BreakoutSignals++
			if *sig.Accuracy {
				stats.AccurateSignals++
			}
		}
		if stats.BreakoutSignals > 0 {
			stats.AccuracyRate = float64(stats.AccurateSignals) / float64(stats.BreakoutSignals) * 100
		}
		results[sigType] = stats
	}
	return results
}

// CalculateMetrics computes confirmation-rate statistics across all signals.
func CalculateMetrics(signals []domain.Signal) Metrics {
	m := Metrics{TotalSignals: len(signals)}
	if len(signals) == 0 {
		return m
	}

	withBreakout, withVolume, withCandle, withSR := 0, 0, 0, 0
	var priceChanges []float64

	for _, sig := range signals {
		if sig.BreakoutTime != nil {
			withBreakout++
		}
		if sig.VolumeSpikeTime != nil {
			withVolume++
		}
		if sig.BigCandleTime != nil {
			withCandle++
		}
		if sig.SRConfirmed {
			withSR++
		}

		if sig.BreakoutTime != nil && sig.PriceAfterN != nil && sig.BreakoutPrice != nil {
			change := *sig.PriceAfterN - *sig.BreakoutPrice
			if sig.Type == domain.Short {
				change = -change // for shorts a falling price is favorable
			}
			priceChanges = append(priceChanges, change)
		}
	}

	total := float64(len(signals))
	m.BreakoutRate = float64(withBreakout) / total * 100
	m.VolumeConfirmationRate = float64(withVolume) / total * 100
	m.CandleConfirmationRate = float64(withCandle) / total * 100
	m.SRConfirmationRate = float64(withSR) / total * 100
	m.SignalsWithSRConfirmation = withSR
	m.SignalsWithAllConfirmations = CountFullConfirmations(signals)

	if len(priceChanges) > 0 {
		sum := 0.0
		for _, c := range priceChanges {
			sum += c
		}
		m.AvgPriceChange = sum / float64(len(priceChanges))
	}
	return m
}

// CountFullConfirmations counts signals carrying all of volume spike, big
// candle, and breakout.
func CountFullConfirmations(signals []domain.Signal) int {
	count := 0
	for _, sig := range signals {
		if sig.VolumeSpikeTime != nil && sig.BigCandleTime != nil && sig.BreakoutTime != nil {
			count++
		}
	}
	return count
}

// BestSignals returns the signals with at least minConfirmations pieces of
// evidence, sorted descending by confirmation count. The sort is stable, so
// equally-confirmed signals keep series order.
func BestSignals(signals []domain.Signal, minConfirmations int) []ScoredSignal {
	var best []ScoredSignal
	for _, sig := range signals {
		if n := sig.ConfirmationCount(); n >= minConfirmations {
			best = append(best, ScoredSignal{Signal: sig, Confirmations: n})
		}
	}
	sort.SliceStable(best, func(i, j int) bool {
		return best[i].Confirmations > best[j].Confirmations
	})
	return best
}
