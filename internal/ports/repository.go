package ports

import "context"

// HistoryStore defines a simple key-value persistence interface for per-user
// analysis history. The stored value is an opaque blob; serialization is the
// caller's concern. Implementations live outside the analysis core.
type HistoryStore interface {
	// Save stores the blob for a user, replacing any previous value.
	Save(ctx context.Context, user string, blob []byte) error
	// Load retrieves the blob for a user.
	// Returns nil, ErrNotFound when the user has no stored history.
	Load(ctx context.Context, user string) ([]byte, error)
}
