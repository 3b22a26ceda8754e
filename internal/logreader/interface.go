package logreader

import (
	"context"
)

// LineReader reads raw log lines in input order
type LineReader interface {
	// Read returns the next line.
	// Returns io.EOF when no more lines are available
	Read(ctx context.Context) (Line, error)

	// Offset returns the number of input bytes consumed so far
	// (decompressed bytes for compressed files)
	Offset() uint64

	// Close closes the reader and releases resources
	Close() error
}

// Line is a single line read from the input
type Line struct {
	Text   string
	Number int // 1-based, counted from the start offset
}
