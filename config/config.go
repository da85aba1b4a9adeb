package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"trendScanner/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Indicator Parameters
	EMAFast             int     // Fast EMA period (e.g., 9)
	EMASlow             int     // Slow EMA period (e.g., 15)
	BigCandleMultiplier float64 // Body must exceed multiplier x rolling average (e.g., 1.5)
	BigCandleLookback   int     // Rolling body average window, excludes the current bar (e.g., 20)
	VolumeMultiplier    float64 // Volume must exceed multiplier x rolling average (e.g., 1.5)
	VolumeLookback      int     // Rolling volume average window, includes the current bar (e.g., 20)
	SwingLookback       int     // Trailing window for swing high/low lookups (e.g., 8)
	PivotWindow         int     // Half-width of the centered pivot flag window (e.g., 5)

	// Scanner Parameters
	ConfirmationBars  int // Bars after a crossover to search for confirmations (e.g., 7)
	LookaheadBars     int // Bars after a breakout used to judge accuracy (e.g., 5)
	VolspikeLookahead int // Bars after a crossover in which a volume spike must appear (default 12)

	// S/R Detector Parameters
	SRLookahead      int     // Bars after a breakout to search for an S/R break (default 12)
	SRNumLevels      int     // Top-N supports/resistances to return (default 4)
	SRMergeThreshold float64 // Relative price distance below which levels merge (default 0.002)
	SRLookbackWindow int     // Fractal pivot half-window (default 8)

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Indicator Parameters
	cfg.EMAFast = getEnvAsInt("EMA_FAST", 9)
	cfg.EMASlow = getEnvAsInt("EMA_SLOW", 15)
	if cfg.EMAFast <= 0 || cfg.EMASlow <= 0 {
		errs = append(errs, "EMA_FAST and EMA_SLOW must be positive")
	}
	if cfg.EMAFast >= cfg.EMASlow {
		errs = append(errs, "EMA_FAST must be less than EMA_SLOW")
	}

	cfg.BigCandleMultiplier = getEnvAsFloat("BIG_CANDLE_MULTIPLIER", 1.5)
	if cfg.BigCandleMultiplier <= 0 {
		errs = append(errs, "BIG_CANDLE_MULTIPLIER must be positive")
	}
	cfg.BigCandleLookback = getEnvAsInt("BIG_CANDLE_LOOKBACK", 20)
	if cfg.BigCandleLookback <= 0 {
		errs = append(errs, "BIG_CANDLE_LOOKBACK must be positive")
	}

	cfg.VolumeMultiplier = getEnvAsFloat("VOLUME_MULTIPLIER", 1.5)
	if cfg.VolumeMultiplier <= 0 {
		errs = append(errs, "VOLUME_MULTIPLIER must be positive")
	}
	cfg.VolumeLookback = getEnvAsInt("VOLUME_LOOKBACK", 20)
	if cfg.VolumeLookback <= 0 {
		errs = append(errs, "VOLUME_LOOKBACK must be positive")
	}

	cfg.SwingLookback = getEnvAsInt("SWING_LOOKBACK", 8)
	if cfg.SwingLookback <= 0 {
		errs = append(errs, "SWING_LOOKBACK must be positive")
	}
	cfg.PivotWindow = getEnvAsInt("PIVOT_WINDOW", 5)
	if cfg.PivotWindow <= 0 {
		errs = append(errs, "PIVOT_WINDOW must be positive")
	}

	// Scanner Parameters
	cfg.ConfirmationBars = getEnvAsInt("CONFIRMATION_BARS", 7)
	if cfg.ConfirmationBars <= 0 {
		errs = append(errs, "CONFIRMATION_BARS must be positive")
	}
	cfg.LookaheadBars = getEnvAsInt("LOOKAHEAD_BARS", 5)
	if cfg.LookaheadBars <= 0 {
		errs = append(errs, "LOOKAHEAD_BARS must be positive")
	}
	cfg.VolspikeLookahead = getEnvAsInt("VOLSPIKE_LOOKAHEAD", 12)
	if cfg.VolspikeLookahead <= 0 {
		errs = append(errs, "VOLSPIKE_LOOKAHEAD must be positive")
	}

	// S/R Detector Parameters
	cfg.SRLookahead = getEnvAsInt("SR_LOOKAHEAD", 12)
	if cfg.SRLookahead <= 0 {
		errs = append(errs, "SR_LOOKAHEAD must be positive")
	}
	cfg.SRNumLevels = getEnvAsInt("SR_NUM_LEVELS", 4)
	if cfg.SRNumLevels <= 0 {
		errs = append(errs, "SR_NUM_LEVELS must be positive")
	}
	cfg.SRMergeThreshold = getEnvAsFloat("SR_MERGE_THRESHOLD", 0.002)
	if cfg.SRMergeThreshold <= 0 || cfg.SRMergeThreshold >= 1.0 {
		errs = append(errs, "SR_MERGE_THRESHOLD must be between 0.0 and 1.0 (exclusive)")
	}
	cfg.SRLookbackWindow = getEnvAsInt("SR_LOOKBACK_WINDOW", 8)
	if cfg.SRLookbackWindow <= 0 {
		errs = append(errs, "SR_LOOKBACK_WINDOW must be positive")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/history.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
