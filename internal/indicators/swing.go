package indicators

import "trendScanner/internal/domain"

// SwingHighAt returns the maximum High over the lookback bars strictly before
// index (the current bar is excluded). The second return value is false when
// index <= 0 or the window is empty.
func SwingHighAt(bars []domain.AnnotatedBar, index, lookback int) (float64, bool) {
	if index <= 0 || index > len(bars) {
		return 0, false
	}
	start := index - lookback
	if start < 0 {
		start = 0
	}
	if start >= index {
		return 0, false
	}
	high := bars[start].High
	for j := start + 1; j < index; j++ {
		if bars[j].High > high {
			high = bars[j].High
		}
	}
	return high, true
}

// SwingLowAt returns the minimum Low over the lookback bars strictly before
// index. The second return value is false when index <= 0 or the window is
// empty.
func SwingLowAt(bars []domain.AnnotatedBar, index, lookback int) (float64, bool) {
	if index <= 0 || index > len(bars) {
		return 0, false
	}
	start := index - lookback
	if start < 0 {
		start = 0
	}
	if start >= index {
		return 0, false
	}
	low := bars[start].Low
	for j := start + 1; j < index; j++ {
		if bars[j].Low < low {
			low = bars[j].Low
		}
	}
	return low, true
}
