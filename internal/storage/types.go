package storage

import (
	"context"
	"errors"

	"fgfbot/internal/model"
)

// ErrCorrupt wraps failures to decode existing state. It is distinct from a
// missing state file, which loads as an empty sequence.
var ErrCorrupt = errors.New("storage: corrupt state")

// Config configures storage.
//
// Driver values:
//   - "file" (or empty): JSON array file at Path
//   - "sqlite": SQLite database file at Path
type Config struct {
	Driver string
	Path   string
}

// Store is the persistence API used by the ingest pipeline.
type Store interface {
	// Load returns every saved post in discovery order. Absent state is empty, not an error.
	Load(ctx context.Context) ([]model.SavedPost, error)
	// Save persists the full sequence. Entries already stored must be a prefix of all.
	Save(ctx context.Context, all []model.SavedPost) error
	Close() error
}
