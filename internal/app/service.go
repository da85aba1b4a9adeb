// Package app wires the analysis pipeline together: dataset loading,
// indicator annotation, S/R detection, signal scanning, and backtest
// aggregation, with per-user history persistence.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trendScanner/config"
	"trendScanner/internal/backtest"
	"trendScanner/internal/dataset"
	"trendScanner/internal/domain"
	"trendScanner/internal/indicators"
	"trendScanner/internal/ports"
	"trendScanner/internal/scanner"
	"trendScanner/internal/srlevels"
)

// Result is the output of one analysis run, handed to external
// renderers/persisters unchanged.
type Result struct {
	Bars     []domain.AnnotatedBar
	Events   []indicators.Event
	Signals  []domain.Signal
	Levels   *srlevels.Levels
	Accuracy backtest.AccuracyReport
	ByType   map[domain.SignalType]backtest.TypeStats
	Metrics  backtest.Metrics

	// Progressions holds the diagnostic replay for each signal, aligned with
	// Signals by index. An entry is nil when the cross bar cannot be located.
	Progressions []*scanner.Progression
}

// AnalysisService runs the full pipeline over one CSV dataset.
type AnalysisService struct {
	cfg     *config.Config
	logger  ports.Logger
	history ports.HistoryStore
}

// NewAnalysisService creates the analysis service. The history store may be
// nil, in which case runs are not recorded.
func NewAnalysisService(cfg *config.Config, logger ports.Logger, history ports.HistoryStore) (*AnalysisService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required for analysis service")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for analysis service")
	}
	return &AnalysisService{cfg: cfg, logger: logger, history: history}, nil
}

// Run loads the dataset at csvPath and executes the pipeline:
// load -> annotate -> S/R levels -> scan -> aggregate. Each stage consumes an
// immutable input and runs to completion before the next begins. The run is
// recorded in the user's history when a store is configured.
func (s *AnalysisService) Run(ctx context.Context, user, csvPath string) (*Result, error) {
	bars, err := dataset.LoadCSV(csvPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Dataset loaded", map[string]interface{}{"path": csvPath, "bars": len(bars)})

	engine, err := indicators.New(indicators.Config{
		EMAFast:             s.cfg.EMAFast,
		EMASlow:             s.cfg.EMASlow,
		BigCandleMultiplier: s.cfg.BigCandleMultiplier,
		BigCandleLookback:   s.cfg.BigCandleLookback,
		VolumeMultiplier:    s.cfg.VolumeMultiplier,
		VolumeLookback:      s.cfg.VolumeLookback,
		SwingLookback:       s.cfg.SwingLookback,
		PivotWindow:         s.cfg.PivotWindow,
	}, s.logger)
	if err != nil {
		return nil, err
	}

	annotated, err := engine.Annotate(ctx, bars)
	if err != nil {
		return nil, err
	}

	srCfg := srlevels.Config{
		LookbackWindow: s.cfg.SRLookbackWindow,
		MergeThreshold: s.cfg.SRMergeThreshold,
		Tolerance:      srlevels.DefaultConfig().Tolerance,
	}
	// Levels are recomputed from scratch on every detector call; the factory
	// hands the scanner a fresh detector over the full raw series.
	factory := func() *srlevels.Detector {
		return srlevels.New(bars, srCfg)
	}

	levels, err := srlevels.New(bars, srCfg).TopLevels(s.cfg.SRNumLevels)
	if err != nil {
		return nil, err
	}

	scan, err := scanner.New(scanner.Config{
		ConfirmationBars:  s.cfg.ConfirmationBars,
		LookaheadBars:     s.cfg.LookaheadBars,
		VolspikeLookahead: s.cfg.VolspikeLookahead,
		SwingLookback:     s.cfg.SwingLookback,
		SRLookahead:       s.cfg.SRLookahead,
		SRNumLevels:       s.cfg.SRNumLevels,
	}, s.logger, factory)
	if err != nil {
		return nil, err
	}

	signals, err := scan.Scan(ctx, annotated)
	if err != nil {
		return nil, err
	}

	progressions := make([]*scanner.Progression, len(signals))
	for i, sig := range signals {
		if idx := barIndexAt(annotated, sig.CrossTime); idx >= 0 {
			progressions[i] = scan.TraceProgression(annotated, idx, sig.Type)
		}
	}

	result := &Result{
		Bars:         annotated,
		Events:       indicators.EventLog(annotated),
		Signals:      signals,
		Levels:       levels,
		Accuracy:     backtest.CalculateAccuracy(signals),
		ByType:       backtest.AnalyzeByType(signals),
		Metrics:      backtest.CalculateMetrics(signals),
		Progressions: progressions,
	}

	s.recordRun(ctx, user, csvPath, result)
	return result, nil
}

// barIndexAt finds the bar whose timestamp matches t, or -1.
func barIndexAt(bars []domain.AnnotatedBar, t time.Time) int {
	for i, b := range bars {
		if b.Timestamp.Equal(t) {
			return i
		}
	}
	return -1
}

// recordRun appends an AnalysisRecord to the user's history blob. A history
// failure is logged but does not fail the analysis run.
func (s *AnalysisService) recordRun(ctx context.Context, user, csvPath string, result *Result) {
	if s.history == nil || user == "" {
		return
	}

	var records []domain.AnalysisRecord
	blob, err := s.history.Load(ctx, user)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		s.logger.Warn(ctx, "Could not load existing history", map[string]interface{}{
			"user": user, "error": err.Error(),
		})
	}
	if err == nil {
		if err := json.Unmarshal(blob, &records); err != nil {
			s.logger.Warn(ctx, "Discarding unreadable history blob", map[string]interface{}{
				"user": user, "error": err.Error(),
			})
			records = nil
		}
	}

	records = append(records, domain.AnalysisRecord{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		SourceFile:   csvPath,
		BarCount:     len(result.Bars),
		SignalCount:  len(result.Signals),
		AccuracyRate: result.Accuracy.AccuracyRate,
	})

	out, err := json.Marshal(records)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to encode history records", map[string]interface{}{"user": user})
		return
	}
	if err := s.history.Save(ctx, user, out); err != nil {
		s.logger.Error(ctx, err, "Failed to save history", map[string]interface{}{"user": user})
		return
	}
	s.logger.Debug(ctx, "Run recorded in history", map[string]interface{}{"user": user, "entries": len(records)})
}
