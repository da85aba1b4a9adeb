package ports

import "errors"

// Standard application-level errors.
// Adapters and pipeline stages wrap underlying errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Dataset Errors
	ErrNoTimestampColumn = errors.New("no recognized timestamp column found")
	ErrMissingColumn     = errors.New("required OHLCV column is missing")
	ErrEmptyDataset      = errors.New("no rows remain after cleaning")

	// Detection Errors
	ErrNoLevelsDetected = errors.New("no support/resistance levels detected")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
