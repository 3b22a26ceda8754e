package offset

import (
	"context"
	"time"
)

// Store persists how far each input file has been converted.
// Checkpoints are keyed by file identity (see logreader.Identify), not by
// path, so they survive log rotation.
type Store interface {
	// Get returns the checkpoint for key; the zero Checkpoint if none is stored
	Get(ctx context.Context, key string) (Checkpoint, error)

	// Set stores the checkpoint for key
	Set(ctx context.Context, key string, cp Checkpoint) error

	// Delete removes the checkpoint for key
	Delete(ctx context.Context, key string) error

	// List returns all stored checkpoints by key
	List(ctx context.Context) (map[string]Checkpoint, error)

	// Close closes the store
	Close() error
}

// Checkpoint is the resume position of one input file
type Checkpoint struct {
	Offset    uint64 // bytes consumed, decompressed for .gz/.zst inputs
	Lines     uint64 // lines consumed
	UpdatedAt time.Time
	Path      string // where the file was last read
}
