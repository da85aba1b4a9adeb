package utils

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"trendScanner/internal/domain"
)

// WriteSignalsToCSV exports scanned signals for external renderers. Optional
// fields are written as empty cells when undefined.
func WriteSignalsToCSV(signals []domain.Signal, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{
		"type", "cross_time", "cross_price", "volume_spike_time", "big_candle_time",
		"breakout_time", "breakout_price", "price_after_n", "accuracy",
		"sr_confirmed", "sr_level_broken",
	})

	for _, s := range signals {
		writer.Write([]string{
			string(s.Type),
			s.CrossTime.Format(time.RFC3339),
			formatFloat(s.CrossPrice),
			formatTimePtr(s.VolumeSpikeTime),
			formatTimePtr(s.BigCandleTime),
			formatTimePtr(s.BreakoutTime),
			formatFloatPtr(s.BreakoutPrice),
			formatFloatPtr(s.PriceAfterN),
			formatBoolPtr(s.Accuracy),
			strconv.FormatBool(s.SRConfirmed),
			formatFloatPtr(s.SRLevelBroken),
		})
	}
	return writer.Error()
}

// WriteLevelsToCSV exports merged support/resistance levels.
func WriteLevelsToCSV(levels []domain.SRLevel, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"price", "kind", "score", "touches", "volume_ratio", "cluster_size"})

	for _, lvl := range levels {
		writer.Write([]string{
			formatFloat(lvl.Price),
			string(lvl.Kind),
			formatFloat(lvl.Score),
			strconv.Itoa(lvl.Touches),
			formatFloat(lvl.VolumeRatio),
			strconv.Itoa(lvl.ClusterSize),
		})
	}
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatBoolPtr(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
