package writer

import (
	"context"

	"github.com/SteelMorgan/ufwlog/internal/domain"
)

// RecordSink receives every successfully parsed record in input order
type RecordSink interface {
	// Write adds a record to the pending batch, flushing when it is full
	Write(ctx context.Context, record *domain.LogRecord) error

	// Flush forces writing all pending records
	Flush(ctx context.Context) error

	// Close flushes pending records and releases the sink
	Close() error
}

// Inserter sends a batch of rows to a table
type Inserter interface {
	Insert(ctx context.Context, table string, rows [][]any) error
}

// BatchConfig configures batch behavior
type BatchConfig struct {
	MaxSize      int   // Maximum records per batch
	FlushTimeout int64 // Maximum milliseconds to wait before flush
}
