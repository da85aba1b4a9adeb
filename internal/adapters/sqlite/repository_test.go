package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendScanner/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestStore creates a temporary database for testing
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "trend-scanner-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewStore(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	blob := []byte(`[{"id":"abc","bar_count":100}]`)
	require.NoError(t, store.Save(ctx, "alice", blob))

	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice", []byte("first")))
	require.NoError(t, store.Save(ctx, "alice", []byte("second")))

	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestStore_LoadUnknownUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.Load(context.Background(), "nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStore_UsersAreIsolated(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice", []byte("alice-history")))
	require.NoError(t, store.Save(ctx, "bob", []byte("bob-history")))

	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("alice-history"), got)

	got, err = store.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []byte("bob-history"), got)
}

func TestStore_EmptyUserRejected(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := store.Save(ctx, "", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	_, err = store.Load(ctx, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestNewStore_RequiresLogger(t *testing.T) {
	_, err := NewStore(Config{DBPath: "ignored.db"})
	require.Error(t, err)
}
