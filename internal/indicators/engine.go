// Package indicators derives per-bar features from an OHLCV bar series.
package indicators

import (
	"context"
	"fmt"
	"math"

	"trendScanner/internal/domain"
	"trendScanner/internal/ports"
)

// Config holds parameters for the indicator engine.
type Config struct {
	EMAFast             int     // e.g., 9
	EMASlow             int     // e.g., 15
	BigCandleMultiplier float64 // e.g., 1.5
	BigCandleLookback   int     // e.g., 20
	VolumeMultiplier    float64 // e.g., 1.5
	VolumeLookback      int     // e.g., 20
	SwingLookback       int     // e.g., 8
	PivotWindow         int     // e.g., 5
}

// Engine computes all derived features for a bar series in one call.
type Engine struct {
	cfg    Config
	logger ports.Logger
}

// New creates a new indicator engine.
func New(cfg Config, logger ports.Logger) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for indicator engine")
	}
	if cfg.EMAFast <= 0 || cfg.EMASlow <= 0 {
		return nil, fmt.Errorf("%w: EMA periods must be positive", ports.ErrConfigurationError)
	}
	if cfg.EMAFast >= cfg.EMASlow {
		return nil, fmt.Errorf("%w: fast EMA period must be less than slow EMA period", ports.ErrConfigurationError)
	}
	if cfg.BigCandleLookback <= 0 || cfg.VolumeLookback <= 0 || cfg.SwingLookback <= 0 || cfg.PivotWindow <= 0 {
		return nil, fmt.Errorf("%w: lookback windows must be positive", ports.ErrConfigurationError)
	}
	if cfg.BigCandleMultiplier <= 0 || cfg.VolumeMultiplier <= 0 {
		return nil, fmt.Errorf("%w: multipliers must be positive", ports.ErrConfigurationError)
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Annotate computes all per-bar features over an immutable input series and
// returns a fresh annotated series. The input is never modified.
func (e *Engine) Annotate(ctx context.Context, bars []domain.Bar) ([]domain.AnnotatedBar, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("cannot annotate: %w", ports.ErrEmptyDataset)
	}

	annotated := make([]domain.AnnotatedBar, len(bars))
	for i, b := range bars {
		annotated[i].Bar = b
	}

	e.applyEMACrossovers(annotated)
	e.applyBigCandles(annotated)
	e.applyVolumeSpikes(annotated)
	e.applyVWAP(annotated)
	e.applyPivotFlags(annotated)

	bullish, bearish := 0, 0
	for i := range annotated {
		if annotated[i].BullishCross {
			bullish++
		}
		if annotated[i].BearishCross {
			bearish++
		}
	}
	e.logger.Debug(ctx, "Indicators calculated", map[string]interface{}{
		"bars":               len(annotated),
		"bullish_crossovers": bullish,
		"bearish_crossovers": bearish,
	})

	return annotated, nil
}

// applyEMACrossovers computes fast/slow EMAs with smoothing factor
// alpha = 2/(period+1), seeded with the first bar's close (no warm-up
// averaging), and flags crossings between consecutive bars. The flag sits on
// bar i but marks a crossing that occurred between i-1 and i.
func (e *Engine) applyEMACrossovers(bars []domain.AnnotatedBar) {
	alphaFast := 2.0 / float64(e.cfg.EMAFast+1)
	alphaSlow := 2.0 / float64(e.cfg.EMASlow+1)

	fast := bars[0].Close
	slow := bars[0].Close
	bars[0].EMAFast = fast
	bars[0].EMASlow = slow

	for i := 1; i < len(bars); i++ {
		prevFast, prevSlow := fast, slow
		fast = alphaFast*bars[i].Close + (1-alphaFast)*fast
		slow = alphaSlow*bars[i].Close + (1-alphaSlow)*slow
		bars[i].EMAFast = fast
		bars[i].EMASlow = slow
		bars[i].BullishCross = prevFast <= prevSlow && fast > slow
		bars[i].BearishCross = prevFast >= prevSlow && fast < slow
	}
}

// applyBigCandles flags candles whose body exceeds the multiplier times the
// rolling body average over the window immediately preceding the bar. The
// current bar is excluded from the average; the flag stays false until the
// window is filled.
func (e *Engine) applyBigCandles(bars []domain.AnnotatedBar) {
	lookback := e.cfg.BigCandleLookback
	for i := range bars {
		bars[i].Body = math.Abs(bars[i].Close - bars[i].Open)
	}
	for i := range bars {
		if i < lookback {
			continue
		}
		sum := 0.0
		for j := i - lookback; j < i; j++ {
			sum += bars[j].Body
		}
		avg := sum / float64(lookback)
		bars[i].AvgBody = avg
		bars[i].AvgBodyValid = true
		bars[i].BigCandle = bars[i].Body > e.cfg.BigCandleMultiplier*avg
	}
}

// applyVolumeSpikes flags bars whose volume exceeds the multiplier times the
// rolling volume average over a window that includes the current bar. Note
// the asymmetry with the big-candle average, which excludes the current bar;
// both conventions are intentional.
func (e *Engine) applyVolumeSpikes(bars []domain.AnnotatedBar) {
	lookback := e.cfg.VolumeLookback
	for i := range bars {
		if i < lookback-1 {
			continue
		}
		sum := 0.0
		for j := i - lookback + 1; j <= i; j++ {
			sum += bars[j].Volume
		}
		avg := sum / float64(lookback)
		bars[i].AvgVolume = avg
		bars[i].AvgVolumeValid = true
		bars[i].VolumeSpike = bars[i].Volume > e.cfg.VolumeMultiplier*avg
	}
}

// applyVWAP computes the cumulative volume weighted average price from the
// start of the series. Not session-reset, not windowed.
func (e *Engine) applyVWAP(bars []domain.AnnotatedBar) {
	var cumPV, cumVol float64
	for i := range bars {
		cumPV += bars[i].TypicalPrice() * bars[i].Volume
		cumVol += bars[i].Volume
		if cumVol > 0 {
			bars[i].VWAP = cumPV / cumVol
		}
	}
}

// applyPivotFlags marks bars whose High (Low) equals the max (min) over a
// centered window of 2w+1 bars. Bars too close to either edge for a full
// window are never flagged.
func (e *Engine) applyPivotFlags(bars []domain.AnnotatedBar) {
	w := e.cfg.PivotWindow
	for i := w; i < len(bars)-w; i++ {
		maxHigh := bars[i-w].High
		minLow := bars[i-w].Low
		for j := i - w + 1; j <= i+w; j++ {
			if bars[j].High > maxHigh {
				maxHigh = bars[j].High
			}
			if bars[j].Low < minLow {
				minLow = bars[j].Low
			}
		}
		bars[i].PivotHigh = bars[i].High == maxHigh
		bars[i].PivotLow = bars[i].Low == minLow
	}
}
