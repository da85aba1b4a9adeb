package domain

import "time"

// AnalysisRecord is one entry in a user's analysis history. Records are
// serialized to JSON and stored as an opaque blob per user by the history
// store collaborator; the core never reads them back into the pipeline.
type AnalysisRecord struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	SourceFile   string    `json:"source_file"`
	BarCount     int       `json:"bar_count"`
	SignalCount  int       `json:"signal_count"`
	AccuracyRate float64   `json:"accuracy_rate"`
}
