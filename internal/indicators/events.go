package indicators

import (
	"time"

	"trendScanner/internal/domain"
)

// EventKind identifies the type of a logged indicator event.
type EventKind string

const (
	EventVolumeSpike EventKind = "Volume_Spike"
	EventBigCandle   EventKind = "Big_Candle"
)

// CandleDirection classifies a big candle by its close relative to its open.
type CandleDirection string

const (
	CandleBullish CandleDirection = "Bullish"
	CandleBearish CandleDirection = "Bearish"
)

// Event is one volume-spike or big-candle occurrence with its context.
// The event log is diagnostic only; the scanner does not consume it.
type Event struct {
	Kind      EventKind
	BarIndex  int
	Timestamp time.Time
	Price     float64 // close of the bar

	// Volume spike fields
	Volume      float64
	VolumeRatio float64 // volume vs rolling average; 1 when the average is zero

	// Big candle fields
	BodySize  float64
	BodyRatio float64 // body vs rolling average; 1 when the average is zero
	Direction CandleDirection
}

// EventLog builds a flat chronological log of volume-spike and big-candle
// occurrences from an annotated series. Within one bar the volume spike is
// logged before the big candle.
func EventLog(bars []domain.AnnotatedBar) []Event {
	var events []Event
	for i := range bars {
		b := &bars[i]
		if b.VolumeSpike {
			events = append(events, Event{
				Kind:        EventVolumeSpike,
				BarIndex:    i,
				Timestamp:   b.Timestamp,
				Price:       b.Close,
				Volume:      b.Volume,
				VolumeRatio: neutralRatio(b.Volume, b.AvgVolume),
			})
		}
		if b.BigCandle {
			dir := CandleBearish
			if b.Close > b.Open {
				dir = CandleBullish
			}
			events = append(events, Event{
				Kind:      EventBigCandle,
				BarIndex:  i,
				Timestamp: b.Timestamp,
				Price:     b.Close,
				BodySize:  b.Body,
				BodyRatio: neutralRatio(b.Body, b.AvgBody),
				Direction: dir,
			})
		}
	}
	return events
}

// EventsAtBar returns all events that occurred at the given bar index.
func EventsAtBar(events []Event, barIndex int) []Event {
	var out []Event
	for _, ev := range events {
		if ev.BarIndex == barIndex {
			out = append(out, ev)
		}
	}
	return out
}

// neutralRatio divides value by avg, treating a zero average as neutral (1).
func neutralRatio(value, avg float64) float64 {
	if avg == 0 {
		return 1
	}
	return value / avg
}
