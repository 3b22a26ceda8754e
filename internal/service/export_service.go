package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/SteelMorgan/ufwlog/internal/clickhouse"
	"github.com/SteelMorgan/ufwlog/internal/config"
	"github.com/SteelMorgan/ufwlog/internal/export"
	"github.com/SteelMorgan/ufwlog/internal/logreader"
	"github.com/SteelMorgan/ufwlog/internal/observability"
	"github.com/SteelMorgan/ufwlog/internal/offset"
	"github.com/SteelMorgan/ufwlog/internal/upload"
	"github.com/SteelMorgan/ufwlog/internal/writer"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// StdinInput is the input name that reads from standard input
const StdinInput = "-"

// Uploader stores the finished export file somewhere else
type Uploader interface {
	UploadFile(ctx context.Context, localPath string) (string, error)
}

// Summary describes a finished export run
type Summary struct {
	RunID     uuid.UUID
	Output    string
	Files     int
	Resumed   bool
	Stats     Stats
	UploadKey string
	Duration  time.Duration
}

// ExportService converts UFW logs into an export file
type ExportService struct {
	cfg   *config.Config
	runID uuid.UUID
	stdin io.Reader

	sink     writer.RecordSink
	chWriter *writer.ClickHouseWriter
	uploader Uploader
	closers  []io.Closer
}

// Option configures an ExportService
type Option func(*ExportService)

// WithSink sets the record sink instead of building one from config
func WithSink(sink writer.RecordSink) Option {
	return func(s *ExportService) { s.sink = sink }
}

// WithUploader sets the uploader instead of building one from config
func WithUploader(u Uploader) Option {
	return func(s *ExportService) { s.uploader = u }
}

// WithStdin sets the stream read when the input is "-"
func WithStdin(r io.Reader) Option {
	return func(s *ExportService) { s.stdin = r }
}

// NewExportService creates a new export service
func NewExportService(cfg *config.Config, opts ...Option) (*ExportService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	s := &ExportService{
		cfg:   cfg,
		runID: uuid.New(),
		stdin: os.Stdin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunID identifies this run in logs, traces and the ClickHouse table
func (s *ExportService) RunID() uuid.UUID {
	return s.runID
}

// Run performs the export
func (s *ExportService) Run(ctx context.Context) (summary Summary, err error) {
	startTime := time.Now()
	logger := log.With().Str("run_id", s.runID.String()).Logger()
	ctx = logger.WithContext(ctx)

	ctx, span := observability.Tracer().Start(ctx, "ufwlog.export")
	defer func() {
		span.SetAttributes(
			attribute.String("ufwlog.run_id", s.runID.String()),
			attribute.String("ufwlog.output", summary.Output),
			attribute.Int("ufwlog.files", summary.Files),
			attribute.Int64("ufwlog.lines", int64(summary.Stats.Lines)),
			attribute.Int64("ufwlog.rows", int64(summary.Stats.Rows)),
			attribute.Int64("ufwlog.failed", int64(summary.Stats.Failed)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	summary.RunID = s.runID

	format, err := export.ParseFormat(s.cfg.Format)
	if err != nil {
		return summary, err
	}
	outPath, err := export.ResolvePath(s.cfg.Output, format)
	if err != nil {
		return summary, err
	}
	summary.Output = outPath

	inputs, err := s.inputs()
	if err != nil {
		return summary, err
	}

	var store offset.Store
	if s.cfg.StatePath != "" && !s.isStdin() {
		bolt, err := offset.NewBoltDBStore(s.cfg.StatePath)
		if err != nil {
			return summary, err
		}
		defer bolt.Close()
		store = bolt
	}

	// Resume appends to the previous output, without a second header
	mode := export.ModeCreate
	switch {
	case s.cfg.Overwrite:
		mode = export.ModeOverwrite
		if store != nil {
			if err := resetCheckpoints(ctx, store); err != nil {
				return summary, err
			}
		}
	case store != nil && export.Exists(outPath):
		mode = export.ModeAppend
		summary.Resumed = true
	}

	defer s.closeSinks()
	if err := s.openSinks(ctx); err != nil {
		return summary, err
	}

	out, err := export.OpenOutput(outPath, mode)
	if err != nil {
		return summary, err
	}
	rows, err := export.NewWriter(out, format)
	if err != nil {
		out.Close()
		return summary, err
	}
	if mode != export.ModeAppend {
		if err := rows.WriteHeader(); err != nil {
			out.Close()
			return summary, fmt.Errorf("failed to write header: %w", err)
		}
	}

	logger.Info().
		Str("output", outPath).
		Str("format", string(format)).
		Int("inputs", len(inputs)).
		Bool("resume", summary.Resumed).
		Msg("Export starting")

	conv := NewConverter(rows, s.sink, s.cfg.OnError, s.cfg.ProgressEvery)
	convErr := s.convertAll(ctx, conv, rows, store, inputs, summary.Resumed)
	summary.Files = len(inputs)
	summary.Stats = conv.Totals()

	if err := rows.Flush(); err != nil && convErr == nil {
		convErr = fmt.Errorf("failed to flush output: %w", err)
	}
	if err := out.Close(); err != nil && convErr == nil {
		convErr = fmt.Errorf("failed to close output: %w", err)
	}
	if convErr != nil {
		return summary, convErr
	}

	if s.sink != nil {
		if err := s.sink.Flush(ctx); err != nil {
			return summary, fmt.Errorf("failed to flush record sink: %w", err)
		}
	}

	if s.uploader != nil {
		key, err := s.uploader.UploadFile(ctx, outPath)
		if err != nil {
			return summary, err
		}
		summary.UploadKey = key
	}

	summary.Duration = time.Since(startTime)
	event := logger.Info()
	if s.chWriter != nil {
		event = event.Uint64("clickhouse_rows", s.chWriter.Written())
	}
	event.
		Str("output", outPath).
		Int("files", summary.Files).
		Uint64("lines", summary.Stats.Lines).
		Uint64("rows", summary.Stats.Rows).
		Uint64("failed", summary.Stats.Failed).
		Uint64("warnings", summary.Stats.Warnings).
		Dur("duration", summary.Duration).
		Msg("Export complete")
	return summary, nil
}

func (s *ExportService) isStdin() bool {
	return s.cfg.Input == StdinInput
}

func (s *ExportService) inputs() ([]logreader.LogFile, error) {
	if s.isStdin() {
		return []logreader.LogFile{{Path: StdinInput}}, nil
	}
	return logreader.ResolveInputs(s.cfg.Input, s.cfg.InputBaseName)
}

// convertAll converts every input in order. After each input the rows
// written so far are flushed to the output and the record sink, then the
// input's checkpoint is stored, also when the input stopped on a bad line.
// A later run then neither repeats nor loses rows.
func (s *ExportService) convertAll(ctx context.Context, conv *Converter, rows export.Writer, store offset.Store, inputs []logreader.LogFile, resume bool) error {
	logger := zerolog.Ctx(ctx)

	for _, in := range inputs {
		if s.isStdin() {
			r := logreader.NewReader(s.stdin, logreader.WithMaxLineSize(s.cfg.MaxLineSize))
			_, _, err := conv.Convert(ctx, "stdin", r)
			if err != nil {
				return err
			}
			continue
		}

		var (
			key string
			cp  offset.Checkpoint
		)
		opts := []logreader.Option{logreader.WithMaxLineSize(s.cfg.MaxLineSize)}
		if store != nil {
			var err error
			if key, err = logreader.Identify(in.Path, s.cfg.MaxLineSize); err != nil {
				return err
			}
			if resume && key != "" {
				if cp, err = store.Get(ctx, key); err != nil {
					return err
				}
				if cp.Offset > 0 {
					logger.Debug().
						Str("file", in.Path).
						Str("last_path", cp.Path).
						Uint64("offset", cp.Offset).
						Msg("Resuming input")
				}
			}
			opts = append(opts, logreader.WithLinesConsumed(cp.Lines), logreader.WithHoldPartialLine())
		}

		r, err := logreader.Open(in.Path, cp.Offset, opts...)
		if err != nil {
			return err
		}
		// a truncated file is read from the start again
		if r.Offset() < cp.Offset {
			cp = offset.Checkpoint{}
		}

		stats, pos, convErr := conv.Convert(ctx, in.Path, r)
		r.Close()

		logger.Debug().
			Str("file", in.Path).
			Uint64("lines", stats.Lines).
			Uint64("rows", stats.Rows).
			Uint64("offset", pos.Offset).
			Msg("Input converted")

		if store != nil {
			if err := rows.Flush(); err != nil {
				return errors.Join(convErr, fmt.Errorf("failed to flush output: %w", err))
			}
			if s.sink != nil {
				if err := s.sink.Flush(ctx); err != nil {
					return errors.Join(convErr, fmt.Errorf("failed to flush record sink: %w", err))
				}
			}
			// no complete line yet, nothing to remember
			if key != "" {
				next := offset.Checkpoint{
					Offset: pos.Offset,
					Lines:  cp.Lines + pos.Lines,
					Path:   in.Path,
				}
				if err := store.Set(ctx, key, next); err != nil {
					return errors.Join(convErr, err)
				}
			}
		}
		if convErr != nil {
			return convErr
		}
	}
	return nil
}

// resetCheckpoints drops every stored position. An overwritten output
// starts each input from the beginning, and positions of files that were
// rotated away are not needed anymore.
func resetCheckpoints(ctx context.Context, store offset.Store) error {
	all, err := store.List(ctx)
	if err != nil {
		return err
	}
	for key, cp := range all {
		if err := store.Delete(ctx, key); err != nil {
			return err
		}
		log.Debug().
			Str("key", key).
			Str("file_path", cp.Path).
			Msg("Checkpoint reset")
	}
	return nil
}

// openSinks builds the ClickHouse sink and the S3 uploader when enabled
// and not already injected.
func (s *ExportService) openSinks(ctx context.Context) error {
	if s.cfg.ClickHouse.Enabled && s.sink == nil {
		client, err := clickhouse.NewClient(ctx, s.cfg.ClickHouse)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, client)

		table := s.cfg.ClickHouse.Database + "." + s.cfg.ClickHouse.Table
		if err := client.Exec(ctx, writer.CreateTableSQL(table)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
		s.chWriter = writer.NewClickHouseWriter(client, table, s.runID, writer.BatchConfig{
			MaxSize:      s.cfg.ClickHouse.BatchSize,
			FlushTimeout: s.cfg.ClickHouse.FlushTimeoutMs,
		}, export.ControlBits)
		s.sink = s.chWriter
	}

	if s.cfg.S3.Enabled && s.uploader == nil {
		u, err := upload.NewS3Uploader(ctx, s.cfg.S3)
		if err != nil {
			return err
		}
		s.uploader = u
	}
	return nil
}

func (s *ExportService) closeSinks() {
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close record sink")
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close connection")
		}
	}
}
