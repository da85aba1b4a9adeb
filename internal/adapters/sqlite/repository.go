// Package sqlite provides a SQLite-backed implementation of the
// ports.HistoryStore key-value interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trendScanner/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store implements the ports.HistoryStore interface using SQLite.
// Each user maps to one opaque history blob.
type Store struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite store.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewStore creates a new SQLite history store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite store")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/history.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db, logger: cfg.Logger}
	if err := store.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite history store ready", map[string]interface{}{"path": dbPath})

	return store, nil
}

func (s *Store) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS history (
		user TEXT PRIMARY KEY,
		blob BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// Save stores the history blob for a user, replacing any previous value.
func (s *Store) Save(ctx context.Context, user string, blob []byte) error {
	if user == "" {
		return fmt.Errorf("%w: user must not be empty", ports.ErrInvalidRequest)
	}
	const query = `
	INSERT INTO history (user, blob, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(user) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at;`

	if _, err := s.db.ExecContext(ctx, query, user, blob, time.Now().UTC()); err != nil {
		err = fmt.Errorf("%w: failed to save history for user '%s': %v", ports.ErrUpdateFailed, user, err)
		s.logger.Error(ctx, err, "History save failed", map[string]interface{}{"user": user})
		return err
	}
	s.logger.Debug(ctx, "History saved", map[string]interface{}{"user": user, "bytes": len(blob)})
	return nil
}

// Load retrieves the history blob for a user.
// Returns ports.ErrNotFound when the user has no stored history.
func (s *Store) Load(ctx context.Context, user string) ([]byte, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user must not be empty", ports.ErrInvalidRequest)
	}
	const query = `SELECT blob FROM history WHERE user = ?;`

	var blob []byte
	err := s.db.QueryRowContext(ctx, query, user).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no history for user '%s'", ports.ErrNotFound, user)
	}
	if err != nil {
		err = fmt.Errorf("%w: failed to load history for user '%s': %v", ports.ErrQueryFailed, user, err)
		s.logger.Error(ctx, err, "History load failed", map[string]interface{}{"user": user})
		return nil, err
	}
	return blob, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.logger.Info(context.Background(), "Closing SQLite history store")
	return s.db.Close()
}
