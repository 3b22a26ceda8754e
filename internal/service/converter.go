package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SteelMorgan/ufwlog/internal/config"
	"github.com/SteelMorgan/ufwlog/internal/export"
	"github.com/SteelMorgan/ufwlog/internal/logreader"
	"github.com/SteelMorgan/ufwlog/internal/ufw"
	"github.com/SteelMorgan/ufwlog/internal/writer"
	"github.com/rs/zerolog"
)

// Stats counts what happened to the lines of one conversion
type Stats struct {
	Lines    uint64 // lines read, blank ones included
	Rows     uint64 // records written
	Failed   uint64 // lines that did not parse (skip policy)
	Blank    uint64 // whitespace-only lines, ignored
	Warnings uint64 // records with missing required fields
}

func (s *Stats) add(o Stats) {
	s.Lines += o.Lines
	s.Rows += o.Rows
	s.Failed += o.Failed
	s.Blank += o.Blank
	s.Warnings += o.Warnings
}

// Position is how far a reader was handled: the offset just past the
// last finished line and the number of lines up to it
type Position struct {
	Offset uint64
	Lines  uint64
}

// Converter drives lines from a reader through the parser into a row
// writer and, when set, a record sink. Lines are handled strictly in order.
type Converter struct {
	out           export.Writer
	sink          writer.RecordSink
	onError       string
	progressEvery uint64

	total Stats
}

// NewConverter creates a converter. sink may be nil.
func NewConverter(out export.Writer, sink writer.RecordSink, onError string, progressEvery int) *Converter {
	if onError == "" {
		onError = config.OnErrorFailFast
	}
	var every uint64
	if progressEvery > 0 {
		every = uint64(progressEvery)
	}
	return &Converter{
		out:           out,
		sink:          sink,
		onError:       onError,
		progressEvery: every,
	}
}

// Convert reads r to the end. It returns the stats for r and the position
// after the last line that was fully handled, which is where a later run
// has to resume. With the fail-fast policy the first bad line stops the
// conversion and its error is returned.
func (c *Converter) Convert(ctx context.Context, name string, r logreader.LineReader) (Stats, Position, error) {
	var stats Stats
	pos := Position{Offset: r.Offset()}
	commit := func() {
		pos.Offset = r.Offset()
		pos.Lines = stats.Lines
	}
	logger := zerolog.Ctx(ctx)

	for {
		line, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.total.add(stats)
			return stats, pos, err
		}
		stats.Lines++
		c.reportProgress(logger, name, stats)

		if strings.TrimSpace(line.Text) == "" {
			stats.Blank++
			commit()
			continue
		}

		res := ufw.ParseLine(line.Number, line.Text)
		if res.Err != nil {
			if c.onError == config.OnErrorFailFast {
				c.total.add(stats)
				return stats, pos, fmt.Errorf("%s: %w", name, res.Err)
			}
			stats.Failed++
			logger.Warn().
				Err(res.Err).
				Str("file", name).
				Int("line", line.Number).
				Msg("Skipping line that could not be parsed")
			commit()
			continue
		}

		if missing := res.Record.MissingRequired(); len(missing) > 0 {
			stats.Warnings++
			logger.Warn().
				Str("file", name).
				Int("line", line.Number).
				Strs("missing", missing).
				Msg("Record is missing required fields, defaulted to empty")
		}

		if err := c.out.Write(res.Record); err != nil {
			c.total.add(stats)
			return stats, pos, fmt.Errorf("failed to write row for %s line %d: %w", name, line.Number, err)
		}
		if c.sink != nil {
			if err := c.sink.Write(ctx, res.Record); err != nil {
				c.total.add(stats)
				return stats, pos, fmt.Errorf("failed to write record for %s line %d: %w", name, line.Number, err)
			}
		}
		stats.Rows++
		commit()
	}

	c.total.add(stats)
	return stats, pos, nil
}

func (c *Converter) reportProgress(logger *zerolog.Logger, name string, stats Stats) {
	lines := c.total.Lines + stats.Lines
	if c.progressEvery == 0 || lines%c.progressEvery != 0 {
		return
	}
	logger.Info().
		Str("file", name).
		Uint64("lines", lines).
		Uint64("rows", c.total.Rows+stats.Rows).
		Uint64("failed", c.total.Failed+stats.Failed).
		Msg("Conversion progress")
}

// Totals returns the stats accumulated over every Convert call
func (c *Converter) Totals() Stats {
	return c.total
}
