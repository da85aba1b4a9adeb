package indicators

import (
	"context"
	"math"
	"testing"
	"time"

	"trendScanner/internal/domain"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func testConfig() Config {
	return Config{
		EMAFast:             3,
		EMASlow:             5,
		BigCandleMultiplier: 1.5,
		BigCandleLookback:   5,
		VolumeMultiplier:    1.5,
		VolumeLookback:      5,
		SwingLookback:       8,
		PivotWindow:         2,
	}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := New(cfg, &mockLogger{})
	if err != nil {
		t.Fatalf("Unexpected error creating engine: %v", err)
	}
	return engine
}

// makeBars builds a series with open = previous close, high = close + 1,
// low = close - 1, and constant volume 100.
func makeBars(closes []float64) []domain.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	prev := closes[0]
	for i, c := range closes {
		bars[i] = domain.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      prev,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
		prev = c
	}
	return bars
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "zero fast period", mutate: func(c *Config) { c.EMAFast = 0 }, wantErr: true},
		{name: "fast not below slow", mutate: func(c *Config) { c.EMAFast = 5 }, wantErr: true},
		{name: "zero volume lookback", mutate: func(c *Config) { c.VolumeLookback = 0 }, wantErr: true},
		{name: "negative multiplier", mutate: func(c *Config) { c.BigCandleMultiplier = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, &mockLogger{})
			if tt.wantErr && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestAnnotate_EmptySeries(t *testing.T) {
	engine := newTestEngine(t, testConfig())
	if _, err := engine.Annotate(context.Background(), nil); err == nil {
		t.Error("Expected error for empty series")
	}
}

func TestAnnotate_SingleBullishCrossover(t *testing.T) {
	// Flat closes keep the EMAs equal; one upward jump at bar 10 must raise
	// exactly one bullish flag there.
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 104, 104.5, 105, 105.5, 106}
	engine := newTestEngine(t, testConfig())

	bars, err := engine.Annotate(context.Background(), makeBars(closes))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := range bars {
		wantBull := i == 10
		if bars[i].BullishCross != wantBull {
			t.Errorf("bar %d: expected BullishCross=%v, got %v", i, wantBull, bars[i].BullishCross)
		}
		if bars[i].BearishCross {
			t.Errorf("bar %d: unexpected BearishCross", i)
		}
	}

	// EMA values at the crossing bar: fast alpha 0.5, slow alpha 1/3
	if math.Abs(bars[10].EMAFast-102.0) > 1e-9 {
		t.Errorf("Expected fast EMA 102.0 at bar 10, got %f", bars[10].EMAFast)
	}
	if math.Abs(bars[10].EMASlow-(100+4.0/3.0)) > 1e-9 {
		t.Errorf("Expected slow EMA %f at bar 10, got %f", 100+4.0/3.0, bars[10].EMASlow)
	}
}

func TestAnnotate_SingleBearishCrossover(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 96, 95.5, 95, 94.5, 94}
	engine := newTestEngine(t, testConfig())

	bars, err := engine.Annotate(context.Background(), makeBars(closes))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := range bars {
		wantBear := i == 10
		if bars[i].BearishCross != wantBear {
			t.Errorf("bar %d: expected BearishCross=%v, got %v", i, wantBear, bars[i].BearishCross)
		}
		if bars[i].BullishCross {
			t.Errorf("bar %d: unexpected BullishCross", i)
		}
	}
}

func TestAnnotate_BigCandle(t *testing.T) {
	// Bodies: 0 for the flat bars, then 4 at bar 10 (open 100, close 104).
	// With lookback 5 the average excludes the current bar, so bar 10's
	// average is 0 and the 4-point body is flagged.
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 104, 104.5, 105}
	engine := newTestEngine(t, testConfig())

	bars, err := engine.Annotate(context.Background(), makeBars(closes))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if bars[i].AvgBodyValid {
			t.Errorf("bar %d: body average should be undefined before the window fills", i)
		}
		if bars[i].BigCandle {
			t.Errorf("bar %d: big candle flagged before the window fills", i)
		}
	}

	if !bars[10].BigCandle {
		t.Error("Expected big candle at bar 10")
	}
	if bars[10].AvgBody != 0 {
		t.Errorf("Expected body average 0 at bar 10 (preceding window excludes the jump), got %f", bars[10].AvgBody)
	}
	// Bar 11's average now includes bar 10's 4-point body: (0+0+0+0+4)/5 = 0.8
	if math.Abs(bars[11].AvgBody-0.8) > 1e-9 {
		t.Errorf("Expected body average 0.8 at bar 11, got %f", bars[11].AvgBody)
	}
	if bars[11].BigCandle {
		t.Error("Bar 11 body 0.5 should not beat 1.5 x 0.8")
	}
}

func TestAnnotate_VolumeSpike(t *testing.T) {
	closes := make([]float64, 12)
	for i := range closes {
		closes[i] = 100
	}
	bars := makeBars(closes)
	bars[8].Volume = 1000

	engine := newTestEngine(t, testConfig())
	annotated, err := engine.Annotate(context.Background(), bars)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 0; i < 4; i++ {
		if annotated[i].AvgVolumeValid {
			t.Errorf("bar %d: volume average should be undefined before the window fills", i)
		}
	}

	// The window includes the current bar: avg at bar 8 is (100*4+1000)/5 = 280
	if math.Abs(annotated[8].AvgVolume-280) > 1e-9 {
		t.Errorf("Expected volume average 280 at bar 8, got %f", annotated[8].AvgVolume)
	}
	for i := range annotated {
		wantSpike := i == 8 // 1000 > 1.5*280; later windows still average 280 but volume is back to 100
		if annotated[i].VolumeSpike != wantSpike {
			t.Errorf("bar %d: expected VolumeSpike=%v, got %v", i, wantSpike, annotated[i].VolumeSpike)
		}
	}
}

func TestAnnotate_VWAP(t *testing.T) {
	bars := []domain.Bar{
		{Timestamp: time.Now(), Open: 100, High: 110, Low: 90, Close: 100, Volume: 10},
		{Timestamp: time.Now().Add(time.Hour), Open: 100, High: 120, Low: 100, Close: 110, Volume: 30},
	}
	engine := newTestEngine(t, testConfig())

	annotated, err := engine.Annotate(context.Background(), bars)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Typical prices: 100 and 110. VWAP(0)=100, VWAP(1)=(100*10+110*30)/40=107.5
	if math.Abs(annotated[0].VWAP-100) > 1e-9 {
		t.Errorf("Expected VWAP 100 at bar 0, got %f", annotated[0].VWAP)
	}
	if math.Abs(annotated[1].VWAP-107.5) > 1e-9 {
		t.Errorf("Expected VWAP 107.5 at bar 1, got %f", annotated[1].VWAP)
	}
}

func TestAnnotate_PivotFlags(t *testing.T) {
	// A clear peak at bar 4 and trough at bar 8 with pivot window 2.
	closes := []float64{100, 101, 102, 103, 110, 103, 102, 101, 90, 101, 102, 103}
	engine := newTestEngine(t, testConfig())

	bars, err := engine.Annotate(context.Background(), makeBars(closes))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !bars[4].PivotHigh {
		t.Error("Expected pivot high at bar 4")
	}
	if !bars[8].PivotLow {
		t.Error("Expected pivot low at bar 8")
	}
	if bars[0].PivotHigh || bars[len(bars)-1].PivotLow {
		t.Error("Edge bars must never carry pivot flags")
	}
}
