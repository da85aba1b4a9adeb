package domain

import "time"

// Bar represents a single OHLCV sample at a timestamp.
// Bars are immutable once loaded; all pipeline stages treat the series as read-only.
type Bar struct {
	Timestamp time.Time // Bar timestamp, unique and strictly increasing across a series
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Traded volume
}

// TypicalPrice returns (High + Low + Close) / 3, the price used for VWAP.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// AnnotatedBar is a Bar together with all derived per-bar features produced
// by the indicator engine. Annotation never mutates the input series; a fresh
// annotated slice is produced instead.
type AnnotatedBar struct {
	Bar

	// EMA crossover
	EMAFast      float64
	EMASlow      float64
	BullishCross bool // fast crossed above slow between the previous bar and this one
	BearishCross bool // fast crossed below slow between the previous bar and this one

	// Candle body
	Body         float64 // |Close - Open|
	AvgBody      float64 // rolling body average over the window preceding this bar (excludes it)
	AvgBodyValid bool    // false until the body lookback window is filled
	BigCandle    bool

	// Volume
	AvgVolume      float64 // rolling volume average over a window ending at this bar (includes it)
	AvgVolumeValid bool    // false until the volume lookback window is filled
	VolumeSpike    bool

	// Cumulative VWAP from the start of the series (not session-reset, not windowed)
	VWAP float64

	// Pivot flags over a centered window; false near the series edges
	PivotHigh bool
	PivotLow  bool
}

// RawBars extracts the underlying immutable bar series from an annotated series.
func RawBars(bars []AnnotatedBar) []Bar {
	raw := make([]Bar, len(bars))
	for i, b := range bars {
		raw[i] = b.Bar
	}
	return raw
}
