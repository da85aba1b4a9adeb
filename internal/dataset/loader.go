// Package dataset loads and cleans OHLCV bar series from CSV input.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"trendScanner/internal/domain"
	"trendScanner/internal/ports"
)

// timestampColumns are the recognized names for the timestamp column,
// checked in order; the first match wins.
var timestampColumns = []string{"Timestamp", "Date", "Datetime", "Time"}

// requiredColumns are the numeric OHLCV columns every dataset must carry.
var requiredColumns = []string{"Open", "High", "Low", "Close", "Volume"}

// timestampLayouts are tried in order when parsing the timestamp cell.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadCSV reads a bar series from the CSV file at path.
func LoadCSV(path string) ([]domain.Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %q: %w", path, err)
	}
	defer file.Close()

	bars, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %q: %w", path, err)
	}
	return bars, nil
}

// Parse reads a bar series from CSV data. The first row must be a header
// containing one recognized timestamp column and the five OHLCV columns;
// any other columns are dropped. Rows with missing or unparsable values in
// the required columns are discarded. Returns ports.ErrEmptyDataset when no
// rows survive cleaning.
func Parse(r io.Reader) ([]domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows; they are dropped below

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ports.ErrEmptyDataset
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []domain.Bar
	dropped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		bar, ok := parseRow(record, cols)
		if !ok {
			dropped++
			continue
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w (dropped %d rows)", ports.ErrEmptyDataset, dropped)
	}
	return bars, nil
}

// columnIndexes maps the required columns to their positions in the header.
type columnIndexes struct {
	timestamp int
	open      int
	high      int
	low       int
	close     int
	volume    int
}

func resolveColumns(header []string) (columnIndexes, error) {
	idx := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		return -1
	}

	cols := columnIndexes{timestamp: -1}
	for _, name := range timestampColumns {
		if i := idx(name); i >= 0 {
			cols.timestamp = i
			break
		}
	}
	if cols.timestamp < 0 {
		return cols, fmt.Errorf("%w: rename your date column to one of %v",
			ports.ErrNoTimestampColumn, timestampColumns)
	}

	for _, name := range requiredColumns {
		i := idx(name)
		if i < 0 {
			return cols, fmt.Errorf("%w: %s", ports.ErrMissingColumn, name)
		}
		switch name {
		case "Open":
			cols.open = i
		case "High":
			cols.high = i
		case "Low":
			cols.low = i
		case "Close":
			cols.close = i
		case "Volume":
			cols.volume = i
		}
	}
	return cols, nil
}

// parseRow converts one CSV record to a Bar. Returns false when any required
// cell is absent, empty, or unparsable; such rows are discarded by the caller.
func parseRow(record []string, cols columnIndexes) (domain.Bar, bool) {
	cell := func(i int) (string, bool) {
		if i >= len(record) || record[i] == "" {
			return "", false
		}
		return record[i], true
	}

	tsRaw, ok := cell(cols.timestamp)
	if !ok {
		return domain.Bar{}, false
	}
	ts, ok := parseTimestamp(tsRaw)
	if !ok {
		return domain.Bar{}, false
	}

	nums := [5]float64{}
	for i, col := range [5]int{cols.open, cols.high, cols.low, cols.close, cols.volume} {
		raw, ok := cell(col)
		if !ok {
			return domain.Bar{}, false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Bar{}, false
		}
		nums[i] = v
	}

	return domain.Bar{
		Timestamp: ts,
		Open:      nums[0],
		High:      nums[1],
		Low:       nums[2],
		Close:     nums[3],
		Volume:    nums[4],
	}, true
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
