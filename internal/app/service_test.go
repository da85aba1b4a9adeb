package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendScanner/config"
	"trendScanner/internal/domain"
	"trendScanner/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// memoryStore is an in-memory ports.HistoryStore.
type memoryStore struct {
	blobs   map[string][]byte
	loadErr error
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{blobs: make(map[string][]byte)}
}

func (m *memoryStore) Save(_ context.Context, user string, blob []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.blobs[user] = blob
	return nil
}

func (m *memoryStore) Load(_ context.Context, user string) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	blob, ok := m.blobs[user]
	if !ok {
		return nil, fmt.Errorf("%w: no history for user '%s'", ports.ErrNotFound, user)
	}
	return blob, nil
}

func testConfig() *config.Config {
	return &config.Config{
		EMAFast:             3,
		EMASlow:             5,
		BigCandleMultiplier: 1.5,
		BigCandleLookback:   5,
		VolumeMultiplier:    1.5,
		VolumeLookback:      5,
		SwingLookback:       8,
		PivotWindow:         2,
		ConfirmationBars:    7,
		LookaheadBars:       5,
		VolspikeLookahead:   12,
		SRLookahead:         12,
		SRNumLevels:         4,
		SRMergeThreshold:    0.002,
		SRLookbackWindow:    2,
	}
}

// writeDataset writes a flat 30-bar hourly CSV and returns its path.
func writeDataset(t *testing.T) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("Timestamp,Open,High,Low,Close,Volume\n")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		sb.WriteString(fmt.Sprintf("%s,100,101,99,100,500\n", ts.Format("2006-01-02 15:04:05")))
	}

	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestNewAnalysisService_Validation(t *testing.T) {
	_, err := NewAnalysisService(nil, &mockLogger{}, nil)
	require.Error(t, err)

	_, err = NewAnalysisService(testConfig(), nil, nil)
	require.Error(t, err)

	svc, err := NewAnalysisService(testConfig(), &mockLogger{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestRun_Pipeline(t *testing.T) {
	path := writeDataset(t)
	store := newMemoryStore()
	svc, err := NewAnalysisService(testConfig(), &mockLogger{}, store)
	require.NoError(t, err)

	result, err := svc.Run(context.Background(), "alice", path)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Len(t, result.Bars, 30)
	require.NotNil(t, result.Levels)
	assert.NotEmpty(t, result.Levels.All)

	// A flat series never crosses its own EMAs.
	assert.Empty(t, result.Signals)
	assert.Empty(t, result.Progressions)
	assert.Equal(t, 0, result.Accuracy.TotalSignals)
	assert.Contains(t, result.ByType, domain.Long)
	assert.Contains(t, result.ByType, domain.Short)
}

func TestRun_RecordsHistory(t *testing.T) {
	path := writeDataset(t)
	store := newMemoryStore()
	svc, err := NewAnalysisService(testConfig(), &mockLogger{}, store)
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), "alice", path)
	require.NoError(t, err)

	blob, err := store.Load(context.Background(), "alice")
	require.NoError(t, err)

	var records []domain.AnalysisRecord
	require.NoError(t, json.Unmarshal(blob, &records))
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, path, records[0].SourceFile)
	assert.Equal(t, 30, records[0].BarCount)
	assert.Equal(t, 0, records[0].SignalCount)

	// A second run appends rather than replaces.
	_, err = svc.Run(context.Background(), "alice", path)
	require.NoError(t, err)

	blob, err = store.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(blob, &records))
	assert.Len(t, records, 2)
}

func TestRun_HistoryFailureDoesNotFailRun(t *testing.T) {
	path := writeDataset(t)
	store := newMemoryStore()
	store.saveErr = fmt.Errorf("%w: disk full", ports.ErrUpdateFailed)
	svc, err := NewAnalysisService(testConfig(), &mockLogger{}, store)
	require.NoError(t, err)

	result, err := svc.Run(context.Background(), "alice", path)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestRun_HistoryLoadFailureStartsFresh(t *testing.T) {
	path := writeDataset(t)
	store := newMemoryStore()
	store.loadErr = fmt.Errorf("%w: locked", ports.ErrQueryFailed)
	svc, err := NewAnalysisService(testConfig(), &mockLogger{}, store)
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), "alice", path)
	require.NoError(t, err)

	store.loadErr = nil
	blob, err := store.Load(context.Background(), "alice")
	require.NoError(t, err)

	var records []domain.AnalysisRecord
	require.NoError(t, json.Unmarshal(blob, &records))
	assert.Len(t, records, 1)
}

func TestRun_CorruptHistoryDiscarded(t *testing.T) {
	path := writeDataset(t)
	store := newMemoryStore()
	store.blobs["alice"] = []byte("not json")
	svc, err := NewAnalysisService(testConfig(), &mockLogger{}, store)
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), "alice", path)
	require.NoError(t, err)

	var records []domain.AnalysisRecord
	blob, err := store.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(blob, &records))
	assert.Len(t, records, 1)
}

func TestRun_NilStoreSkipsHistory(t *testing.T) {
	path := writeDataset(t)
	svc, err := NewAnalysisService(testConfig(), &mockLogger{}, nil)
	require.NoError(t, err)

	result, err := svc.Run(context.Background(), "alice", path)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestRun_MissingDataset(t *testing.T) {
	svc, err := NewAnalysisService(testConfig(), &mockLogger{}, nil)
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), "alice", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
