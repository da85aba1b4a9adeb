package scanner

import (
	"time"

	"trendScanner/internal/domain"
	"trendScanner/internal/indicators"
)

// ProgressionEvent is the set of events re-detected at one bar after a
// crossover during a progression trace.
type ProgressionEvent struct {
	BarsAfterCross int
	BarIndex       int
	Timestamp      time.Time
	Price          float64 // close of the bar
	Events         []string
}

// Progression is a diagnostic replay of the bars following a crossover.
// It is reporting-only; signal creation never consults it. The breakout
// fields reflect the last breakout seen in the replay window.
type Progression struct {
	CrossIndex    int
	CrossTime     time.Time
	Events        []ProgressionEvent
	BreakoutIndex int // -1 when no breakout was seen in the replay window
	BreakoutTime  *time.Time
	BreakoutPrice *float64
}

// BreakoutCheck is the result of testing a single bar for a breakout against
// its swing level. Unlike the confirmation scan, the test uses the bar's High
// (Low for SHORT) rather than its close.
type BreakoutCheck struct {
	Occurred         bool
	BreakoutPrice    float64
	SwingLevelBroken float64
}

// TraceProgression replays up to 10 bars after the crossover at crossIdx,
// independently re-detecting volume spikes, big candles, and breakouts per
// bar.
func (s *Scanner) TraceProgression(bars []domain.AnnotatedBar, crossIdx int, sigType domain.SignalType) *Progression {
	prog := &Progression{
		CrossIndex:    crossIdx,
		CrossTime:     bars[crossIdx].Timestamp,
		BreakoutIndex: -1,
	}

	for offset := 1; offset <= 10; offset++ {
		j := crossIdx + offset
		if j >= len(bars) {
			break
		}

		var events []string
		if bars[j].VolumeSpike {
			events = append(events, "Volume_Spike")
		}
		if bars[j].BigCandle {
			events = append(events, "Big_Candle")
		}

		check := s.CheckBreakoutAt(bars, j, sigType)
		if check.Occurred {
			events = append(events, "Breakout")
			t := bars[j].Timestamp
			price := check.BreakoutPrice
			prog.BreakoutIndex = j
			prog.BreakoutTime = &t
			prog.BreakoutPrice = &price
		}

		if len(events) > 0 {
			prog.Events = append(prog.Events, ProgressionEvent{
				BarsAfterCross: offset,
				BarIndex:       j,
				Timestamp:      bars[j].Timestamp,
				Price:          bars[j].Close,
				Events:         events,
			})
		}
	}
	return prog
}

// CheckBreakoutAt tests whether a breakout occurred at the given bar: High
// above the swing high for LONG, Low below the swing low for SHORT.
func (s *Scanner) CheckBreakoutAt(bars []domain.AnnotatedBar, j int, sigType domain.SignalType) BreakoutCheck {
	if sigType == domain.Long {
		swingHigh, ok := indicators.SwingHighAt(bars, j, s.cfg.SwingLookback)
		if ok && bars[j].High > swingHigh {
			return BreakoutCheck{Occurred: true, BreakoutPrice: bars[j].High, SwingLevelBroken: swingHigh}
		}
		return BreakoutCheck{}
	}
	swingLow, ok := indicators.SwingLowAt(bars, j, s.cfg.SwingLookback)
	if ok && bars[j].Low < swingLow {
		return BreakoutCheck{Occurred: true, BreakoutPrice: bars[j].Low, SwingLevelBroken: swingLow}
	}
	return BreakoutCheck{}
}
