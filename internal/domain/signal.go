package domain

import "time"

// SignalType represents the direction of a trading signal.
type SignalType string

const (
	Long  SignalType = "LONG"
	Short SignalType = "SHORT"
)

// Signal is one qualifying crossover candidate after the confirmation scan.
// Optional fields are nil when the corresponding event never occurred.
// A Signal is created once and never mutated afterwards.
type Signal struct {
	Type SignalType

	// Crossover that started the candidate. CrossTime is the bar the crossing
	// flag was raised on; CrossPrice is that bar's close.
	CrossTime  time.Time
	CrossPrice float64

	// First volume spike seen for this candidate (seeded by the gating spike).
	VolumeSpikeTime *time.Time

	// First big candle inside the confirmation window.
	BigCandleTime *time.Time

	// First close beyond the swing level inside the confirmation window.
	BreakoutTime  *time.Time
	BreakoutPrice *float64

	// Close N bars after the breakout and whether it continued in the signal
	// direction. Accuracy is non-nil iff a breakout exists and the lookahead
	// bar is within the series.
	PriceAfterN *float64
	Accuracy    *bool

	// Support/resistance confirmation attached at breakout time.
	SRConfirmed   bool
	SRLevelBroken *float64
}

// HasBreakout reports whether the confirmation scan found a breakout.
func (s *Signal) HasBreakout() bool {
	return s.BreakoutTime != nil
}

// ConfirmationCount counts the evidence attached to the signal
// (volume spike, big candle, breakout).
func (s *Signal) ConfirmationCount() int {
	n := 0
	if s.VolumeSpikeTime != nil {
		n++
	}
	if s.BigCandleTime != nil {
		n++
	}
	if s.BreakoutTime != nil {
		n++
	}
	return n
}
