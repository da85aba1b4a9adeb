package indicators

import (
	"testing"
	"time"

	"trendScanner/internal/domain"
)

func TestEventLog(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []domain.AnnotatedBar{
		{Bar: domain.Bar{Timestamp: base, Open: 100, Close: 101, Volume: 100}},
		{
			Bar:         domain.Bar{Timestamp: base.Add(time.Hour), Open: 100, Close: 104, Volume: 900},
			VolumeSpike: true, AvgVolume: 300, AvgVolumeValid: true,
			BigCandle: true, Body: 4, AvgBody: 2, AvgBodyValid: true,
		},
		{
			Bar:       domain.Bar{Timestamp: base.Add(2 * time.Hour), Open: 105, Close: 101, Volume: 100},
			BigCandle: true, Body: 4, AvgBody: 0, AvgBodyValid: true,
		},
	}

	events := EventLog(bars)
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	// Bar 1: volume spike logged before the big candle
	if events[0].Kind != EventVolumeSpike || events[0].BarIndex != 1 {
		t.Errorf("Expected volume spike at bar 1 first, got %+v", events[0])
	}
	if events[0].VolumeRatio != 3 {
		t.Errorf("Expected volume ratio 3, got %f", events[0].VolumeRatio)
	}

	if events[1].Kind != EventBigCandle || events[1].Direction != CandleBullish {
		t.Errorf("Expected bullish big candle at bar 1, got %+v", events[1])
	}
	if events[1].BodyRatio != 2 {
		t.Errorf("Expected body ratio 2, got %f", events[1].BodyRatio)
	}

	// Bar 2: bearish candle with a zero average body yields a neutral ratio
	if events[2].Direction != CandleBearish {
		t.Errorf("Expected bearish candle at bar 2, got %+v", events[2])
	}
	if events[2].BodyRatio != 1 {
		t.Errorf("Expected neutral body ratio 1 for zero average, got %f", events[2].BodyRatio)
	}
}

func TestEventsAtBar(t *testing.T) {
	events := []Event{
		{Kind: EventVolumeSpike, BarIndex: 3},
		{Kind: EventBigCandle, BarIndex: 3},
		{Kind: EventVolumeSpike, BarIndex: 7},
	}

	at3 := EventsAtBar(events, 3)
	if len(at3) != 2 {
		t.Fatalf("Expected 2 events at bar 3, got %d", len(at3))
	}
	if len(EventsAtBar(events, 5)) != 0 {
		t.Error("Expected no events at bar 5")
	}
}
