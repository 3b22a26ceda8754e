package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/SteelMorgan/ufwlog/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateTableSQL returns the DDL for the records table.
// Column names follow the export header, lowercased; IN and OUT become
// in_iface and out_iface.
func CreateTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
    run_id UUID,
    ingested_at DateTime64(3),
    month UInt8,
    day UInt8,
    time String,
    hostname LowCardinality(String),
    uptime String,
    action LowCardinality(String),
    in_iface Nullable(String),
    out_iface Nullable(String),
    mac Nullable(String),
    src String,
    dst String,
    len UInt32,
    tos Nullable(String),
    prec Nullable(String),
    ttl Nullable(UInt16),
    id Nullable(UInt32),
    df Bool,
    proto LowCardinality(String),
    spt Nullable(UInt16),
    dpt Nullable(UInt16),
    window Nullable(UInt32),
    res String,
    control_bits String,
    urgp Nullable(UInt16),
    tc Nullable(UInt8),
    hoplimit Nullable(UInt8),
    flowlbl Nullable(UInt32),
    type Nullable(UInt8),
    code Nullable(UInt8),
    seq Nullable(UInt32),
    mtu Nullable(UInt16),
    mark Nullable(String),
    physin Nullable(String),
    physout Nullable(String),
    origin String,
    record_hash String
) ENGINE = ReplacingMergeTree
ORDER BY (hostname, month, day, time, record_hash)`
}

// ClickHouseWriter writes records to ClickHouse in batches
type ClickHouseWriter struct {
	ins   Inserter
	table string
	runID uuid.UUID
	cfg   BatchConfig

	batch     [][]any
	lastFlush time.Time
	written   uint64

	controlBits func(*domain.LogRecord) string
	now         func() time.Time
}

// NewClickHouseWriter creates a new ClickHouse batch writer.
// controlBits renders the TCP control bits column the same way the file export does.
func NewClickHouseWriter(ins Inserter, table string, runID uuid.UUID, cfg BatchConfig, controlBits func(*domain.LogRecord) string) *ClickHouseWriter {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	return &ClickHouseWriter{
		ins:         ins,
		table:       table,
		runID:       runID,
		cfg:         cfg,
		batch:       make([][]any, 0, cfg.MaxSize),
		lastFlush:   time.Now(),
		controlBits: controlBits,
		now:         time.Now,
	}
}

// Write adds a record to the batch
func (w *ClickHouseWriter) Write(ctx context.Context, record *domain.LogRecord) error {
	w.batch = append(w.batch, w.row(record))

	if len(w.batch) >= w.cfg.MaxSize ||
		(w.cfg.FlushTimeout > 0 && w.now().Sub(w.lastFlush).Milliseconds() >= w.cfg.FlushTimeout) {
		return w.Flush(ctx)
	}
	return nil
}

// Flush forces writing all pending records
func (w *ClickHouseWriter) Flush(ctx context.Context) error {
	w.lastFlush = w.now()
	if len(w.batch) == 0 {
		return nil
	}

	startTime := time.Now()
	size := len(w.batch)
	if err := w.ins.Insert(ctx, w.table, w.batch); err != nil {
		log.Error().
			Err(err).
			Str("table", w.table).
			Int("batch_size", size).
			Msg("Failed to send batch to ClickHouse")
		return fmt.Errorf("failed to send batch (size=%d): %w", size, err)
	}

	w.batch = w.batch[:0]
	w.written += uint64(size)

	log.Debug().
		Str("table", w.table).
		Int("batch_size", size).
		Uint64("total_written", w.written).
		Dur("duration", time.Since(startTime)).
		Msg("Batch written to ClickHouse")
	return nil
}

// Written returns the number of records sent so far
func (w *ClickHouseWriter) Written() uint64 {
	return w.written
}

// Close flushes and closes the writer
func (w *ClickHouseWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return w.Flush(ctx)
}

func (w *ClickHouseWriter) row(r *domain.LogRecord) []any {
	return []any{
		w.runID,
		w.now().UTC(),
		r.Month,
		r.Day,
		r.Time,
		r.Hostname,
		r.Uptime,
		r.Event,
		r.In,
		r.Out,
		r.MAC,
		r.Src,
		r.Dst,
		r.Len,
		r.TOS,
		r.Prec,
		r.TTL,
		r.ID,
		r.DF,
		r.Proto,
		r.SPT,
		r.DPT,
		r.Window,
		r.Res,
		w.controlBits(r),
		r.URGP,
		r.TC,
		r.HopLimit,
		r.FlowLabel,
		r.Type,
		r.Code,
		r.Seq,
		r.MTU,
		r.Mark,
		r.PhysIn,
		r.PhysOut,
		r.Origin,
		recordHash(r),
	}
}
