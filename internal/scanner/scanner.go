// Package scanner walks an annotated bar series, turning EMA crossovers into
// confirmed trend-reversal signals with forward-looking accuracy scores.
package scanner

import (
	"context"
	"fmt"

	"trendScanner/internal/domain"
	"trendScanner/internal/indicators"
	"trendScanner/internal/ports"
	"trendScanner/internal/srlevels"
)

// Config holds parameters for the signal scanner.
type Config struct {
	ConfirmationBars  int // bars after a crossover to search for confirmations (e.g., 7)
	LookaheadBars     int // bars after a breakout used to judge accuracy (e.g., 5)
	VolspikeLookahead int // bars after a crossover in which a volume spike must appear (e.g., 12)
	SwingLookback     int // trailing window for swing high/low lookups (e.g., 8)
	SRLookahead       int // bars after a breakout to search for an S/R break (e.g., 12)
	SRNumLevels       int // top-N supports/resistances consulted for confirmation (e.g., 4)
}

// DetectorFactory builds a fresh S/R detector over the full series. Levels
// are recomputed from scratch on every confirmation; any cache behind the
// factory must stay observably equivalent to that.
type DetectorFactory func() *srlevels.Detector

// Scanner detects crossover events and confirms them. It holds no state
// between Scan calls.
type Scanner struct {
	cfg     Config
	logger  ports.Logger
	factory DetectorFactory
}

// New creates a new signal scanner.
func New(cfg Config, logger ports.Logger, factory DetectorFactory) (*Scanner, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for scanner")
	}
	if factory == nil {
		return nil, fmt.Errorf("S/R detector factory is required for scanner")
	}
	if cfg.ConfirmationBars <= 0 || cfg.LookaheadBars <= 0 || cfg.VolspikeLookahead <= 0 {
		return nil, fmt.Errorf("%w: scan windows must be positive", ports.ErrConfigurationError)
	}
	if cfg.SwingLookback <= 0 || cfg.SRLookahead <= 0 || cfg.SRNumLevels <= 0 {
		return nil, fmt.Errorf("%w: lookback parameters must be positive", ports.ErrConfigurationError)
	}
	return &Scanner{cfg: cfg, logger: logger, factory: factory}, nil
}

// Scan walks the annotated series and returns all qualifying signals in
// series order. A crossover flagged at bar i-1 starts a candidate at bar i;
// the candidate is discarded unless a volume spike occurs within
// VolspikeLookahead bars from i. An empty result is not an error.
func (s *Scanner) Scan(ctx context.Context, bars []domain.AnnotatedBar) ([]domain.Signal, error) {
	var signals []domain.Signal

	for i := 1; i < len(bars); i++ {
		if bars[i-1].BullishCross {
			if spikeIdx, ok := s.findVolumeSpike(bars, i); ok {
				sig, err := s.confirm(bars, i, spikeIdx, domain.Long)
				if err != nil {
					return nil, err
				}
				signals = append(signals, *sig)
			}
		}
		if bars[i-1].BearishCross {
			if spikeIdx, ok := s.findVolumeSpike(bars, i); ok {
				sig, err := s.confirm(bars, i, spikeIdx, domain.Short)
				if err != nil {
					return nil, err
				}
				signals = append(signals, *sig)
			}
		}
	}

	s.logger.Info(ctx, "Signal scan complete", map[string]interface{}{
		"bars":    len(bars),
		"signals": len(signals),
	})
	return signals, nil
}

// findVolumeSpike searches forward from start for the first volume spike
// within the VolspikeLookahead window.
func (s *Scanner) findVolumeSpike(bars []domain.AnnotatedBar, start int) (int, bool) {
	end := start + s.cfg.VolspikeLookahead
	if end > len(bars) {
		end = len(bars)
	}
	for j := start; j < end; j++ {
		if bars[j].VolumeSpike {
			return j, true
		}
	}
	return 0, false
}

// confirm runs the confirmation scan for one gated crossover candidate.
// startIdx is the bar after the crossover flag; spikeIdx is the gating spike.
// Within the confirmation window it records the first big candle and stops on
// the first close beyond the swing level, scoring accuracy and S/R
// confirmation at that breakout.
func (s *Scanner) confirm(bars []domain.AnnotatedBar, startIdx, spikeIdx int, sigType domain.SignalType) (*domain.Signal, error) {
	crossIdx := startIdx - 1
	spikeTime := bars[spikeIdx].Timestamp

	sig := &domain.Signal{
		Type:            sigType,
		CrossTime:       bars[crossIdx].Timestamp,
		CrossPrice:      bars[crossIdx].Close,
		VolumeSpikeTime: &spikeTime,
	}

	end := startIdx + s.cfg.ConfirmationBars
	if end > len(bars) {
		end = len(bars)
	}

	for j := startIdx; j < end; j++ {
		// The gating spike always pre-seeds VolumeSpikeTime, so this capture
		// only matters if that invariant ever changes.
		if sig.VolumeSpikeTime == nil && bars[j].VolumeSpike {
			t := bars[j].Timestamp
			sig.VolumeSpikeTime = &t
		}

		if sig.BigCandleTime == nil && bars[j].BigCandle {
			t := bars[j].Timestamp
			sig.BigCandleTime = &t
		}

		if s.closedBeyondSwing(bars, j, sigType) {
			t := bars[j].Timestamp
			price := bars[j].Close
			sig.BreakoutTime = &t
			sig.BreakoutPrice = &price

			if j+s.cfg.LookaheadBars < len(bars) {
				future := bars[j+s.cfg.LookaheadBars].Close
				sig.PriceAfterN = &future
				accurate := future > price
				if sigType == domain.Short {
					accurate = future < price
				}
				sig.Accuracy = &accurate
			}

			confirmed, level, err := s.checkSRBreakout(bars, j, sigType)
			if err != nil {
				return nil, err
			}
			sig.SRConfirmed = confirmed
			sig.SRLevelBroken = level

			break // only the first breakout counts
		}
	}
	return sig, nil
}

// closedBeyondSwing reports whether bar j closed beyond its swing level:
// above the swing high for LONG, below the swing low for SHORT.
func (s *Scanner) closedBeyondSwing(bars []domain.AnnotatedBar, j int, sigType domain.SignalType) bool {
	if sigType == domain.Long {
		swingHigh, ok := indicators.SwingHighAt(bars, j, s.cfg.SwingLookback)
		return ok && bars[j].Close > swingHigh
	}
	swingLow, ok := indicators.SwingLowAt(bars, j, s.cfg.SwingLookback)
	return ok && bars[j].Close < swingLow
}

// checkSRBreakout recomputes S/R levels over the entire series and scans the
// SRLookahead bars after the breakout for a High (Low) beyond a significant
// resistance (support) on the breakout side of the breakout-bar close.
// Recomputing on the full series looks ahead of the breakout by construction;
// backtest consumers must treat S/R confirmation as a hindsight measure.
func (s *Scanner) checkSRBreakout(bars []domain.AnnotatedBar, breakoutIdx int, sigType domain.SignalType) (bool, *float64, error) {
	detector := s.factory()
	levels, err := detector.TopLevels(s.cfg.SRNumLevels)
	if err != nil {
		return false, nil, fmt.Errorf("S/R confirmation failed: %w", err)
	}

	basePrice := bars[breakoutIdx].Close
	end := breakoutIdx + 1 + s.cfg.SRLookahead
	if end > len(bars) {
		end = len(bars)
	}

	if sigType == domain.Long {
		var relevant []domain.SRLevel
		for _, r := range levels.Resistances {
			if r.Price > basePrice {
				relevant = append(relevant, r)
			}
		}
		for j := breakoutIdx + 1; j < end; j++ {
			for _, r := range relevant {
				if bars[j].High > r.Price && basePrice < r.Price {
					price := r.Price
					return true, &price, nil
				}
			}
		}
		return false, nil, nil
	}

	var relevant []domain.SRLevel
	for _, lvl := range levels.Supports {
		if lvl.Price < basePrice {
			relevant = append(relevant, lvl)
		}
	}
	for j := breakoutIdx + 1; j < end; j++ {
		for _, lvl := range relevant {
			if bars[j].Low < lvl.Price && basePrice > lvl.Price {
				price := lvl.Price
				return true, &price, nil
			}
		}
	}
	return false, nil, nil
}
