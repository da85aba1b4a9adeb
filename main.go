package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"

	"trendScanner/config"
	"trendScanner/internal/adapters/logger"
	"trendScanner/internal/adapters/sqlite"
	"trendScanner/internal/app"
	"trendScanner/internal/backtest"
	"trendScanner/internal/domain"
	"trendScanner/internal/utils"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <dataset.csv> [user]", os.Args[0])
	}
	csvPath := os.Args[1]
	user := "local"
	if len(os.Args) > 2 {
		user = os.Args[2]
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewZerologLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize History Store (Database Adapter)
	store, err := sqlite.NewStore(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize history store")
		log.Fatalf("FATAL: Failed to initialize history store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing history store")
		}
	}()

	// 4. Initialize Analysis Service
	service, err := app.NewAnalysisService(cfg, appLogger, store)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize analysis service")
		log.Fatalf("FATAL: Failed to initialize analysis service: %v", err)
	}

	// 5. Run the pipeline
	ctx := context.Background()
	result, err := service.Run(ctx, user, csvPath)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Analysis run failed")
		log.Fatalf("FATAL: Analysis run failed: %v", err)
	}

	printReport(result)

	// 6. Optional CSV exports for external renderers
	if out := os.Getenv("SIGNALS_OUT"); out != "" {
		if err := utils.WriteSignalsToCSV(result.Signals, out); err != nil {
			appLogger.Error(ctx, err, "Failed to export signals CSV", map[string]interface{}{"path": out})
		} else {
			appLogger.Info(ctx, "Signals exported", map[string]interface{}{"path": out})
		}
	}
	if out := os.Getenv("LEVELS_OUT"); out != "" {
		if err := utils.WriteLevelsToCSV(result.Levels.All, out); err != nil {
			appLogger.Error(ctx, err, "Failed to export levels CSV", map[string]interface{}{"path": out})
		} else {
			appLogger.Info(ctx, "Levels exported", map[string]interface{}{"path": out})
		}
	}
}

func printReport(result *app.Result) {
	fmt.Println("==================================================")
	fmt.Println("BACKTESTING REPORT")
	fmt.Println("==================================================")

	fmt.Println("\nOVERALL PERFORMANCE:")
	fmt.Printf("Accuracy Rate: %.2f%%\n", result.Accuracy.AccuracyRate)
	fmt.Printf("Total signals: %d\n", result.Accuracy.TotalSignals)
	fmt.Printf("Signals with breakouts: %d\n", result.Accuracy.BreakoutSignals)
	fmt.Printf("Accurate signals: %d\n", result.Accuracy.AccurateSignals)

	fmt.Println("\nBY SIGNAL TYPE:")
	for _, sigType := range []domain.SignalType{domain.Long, domain.Short} {
		stats := result.ByType[sigType]
		fmt.Printf("%s:\n", sigType)
		fmt.Printf("  Accuracy: %.2f%%\n", stats.AccuracyRate)
		fmt.Printf("  Breakout signals: %d\n", stats.BreakoutSignals)
	}

	fmt.Println("\nCONFIRMATION ANALYSIS:")
	fmt.Printf("Breakout rate: %.1f%%\n", result.Metrics.BreakoutRate)
	fmt.Printf("Volume confirmation rate: %.1f%%\n", result.Metrics.VolumeConfirmationRate)
	fmt.Printf("Big candle confirmation rate: %.1f%%\n", result.Metrics.CandleConfirmationRate)
	fmt.Printf("Signals with all confirmations: %d\n", result.Metrics.SignalsWithAllConfirmations)
	fmt.Printf("S/R confirmation rate: %.1f%%\n", result.Metrics.SRConfirmationRate)
	fmt.Printf("Signals with S/R confirmation: %d\n", result.Metrics.SignalsWithSRConfirmation)
	fmt.Printf("Average price move after breakout: %.4f\n", result.Metrics.AvgPriceChange)

	if best := backtest.BestSignals(result.Signals, 2); len(best) > 0 {
		fmt.Println("\nBEST SIGNALS:")
		for _, scored := range best {
			sig := scored.Signal
			accuracy := "n/a"
			if sig.Accuracy != nil {
				accuracy = fmt.Sprintf("%t", *sig.Accuracy)
			}
			fmt.Printf("  %s at %s (%d confirmations, accurate: %s)\n",
				sig.Type, sig.CrossTime.Format("2006-01-02 15:04:05"), scored.Confirmations, accuracy)
		}
	}

	for i, prog := range result.Progressions {
		if prog == nil || len(prog.Events) == 0 {
			continue
		}
		sig := result.Signals[i]
		fmt.Printf("\nPROGRESSION FOR %s AT %s:\n", sig.Type, sig.CrossTime.Format("2006-01-02 15:04:05"))
		for _, ev := range prog.Events {
			fmt.Printf("  +%d bars (%.4f): %v\n", ev.BarsAfterCross, ev.Price, ev.Events)
		}
	}

	fmt.Println("\nTOP S/R LEVELS:")
	for _, lvl := range result.Levels.Resistances {
		fmt.Printf("  resistance %.4f (score %.2f, touches %d)\n", lvl.Price, lvl.Score, lvl.Touches)
	}
	for _, lvl := range result.Levels.Supports {
		fmt.Printf("  support    %.4f (score %.2f, touches %d)\n", lvl.Price, lvl.Score, lvl.Touches)
	}
	fmt.Println("==================================================")
}
