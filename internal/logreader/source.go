package logreader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxLineSize = 1024 * 1024 // 1MB
	defaultBufferSize  = 64 * 1024
)

const utf8BOM = "\ufeff"

// FileReader reads lines from a UFW log file. Files ending in .gz or .zst
// (rotated logs) are decompressed on the fly.
type FileReader struct {
	path       string
	file       *os.File
	closer     io.Closer
	scanner    *bufio.Scanner
	start      uint64
	offset     uint64
	lineNumber int
	maxSize    int

	holdPartial bool
	held        int
}

// Option configures a FileReader
type Option func(*FileReader)

// WithMaxLineSize sets the maximum accepted line length
func WithMaxLineSize(size int) Option {
	return func(r *FileReader) {
		r.maxSize = size
	}
}

// WithLinesConsumed continues line numbering after n lines already read
// from a previous run. Ignored when the reader falls back to the start.
func WithLinesConsumed(n uint64) Option {
	return func(r *FileReader) {
		r.lineNumber = int(n)
	}
}

// WithHoldPartialLine stops before a final line that has no terminator.
// Such a line is still being written; its bytes are not counted in Offset
// so the next run reads it whole.
func WithHoldPartialLine() Option {
	return func(r *FileReader) {
		r.holdPartial = true
	}
}

// Open opens path and positions the reader at startOffset.
// If the file is now shorter than startOffset (it was rotated or
// truncated) reading restarts from the beginning.
func Open(path string, startOffset uint64, opts ...Option) (*FileReader, error) {
	r := &FileReader{
		path:    path,
		maxSize: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.open(startOffset); err != nil {
		return nil, err
	}
	return r, nil
}

// NewReader wraps an already open stream (e.g. stdin). No offset is skipped.
func NewReader(input io.Reader, opts ...Option) *FileReader {
	r := &FileReader{
		path:    "-",
		maxSize: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.initScanner(input)
	return r
}

func (r *FileReader) open(startOffset uint64) error {
	f, input, closer, err := openStream(r.path)
	if err != nil {
		return err
	}
	r.file, r.closer = f, closer

	if startOffset > 0 {
		skipped, err := r.skip(input, startOffset)
		if err != nil {
			r.Close()
			return err
		}
		if !skipped {
			log.Warn().
				Str("file", r.path).
				Uint64("offset", startOffset).
				Msg("Stored offset is beyond end of file, file was rotated; reading from start")
			r.Close()
			return r.open(0)
		}
		r.offset = startOffset
		r.start = startOffset
	} else {
		r.lineNumber = 0
	}

	r.initScanner(input)
	return nil
}

// openStream opens path and wraps it in a decompressor chosen by extension.
// closer is nil for plain files.
func openStream(path string) (*os.File, io.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return f, gz, gz, nil
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return f, dec, dec.IOReadCloser(), nil
	}
	return f, f, nil, nil
}

// skip positions input at offset. It reports false when the input is
// shorter than offset.
func (r *FileReader) skip(input io.Reader, offset uint64) (bool, error) {
	if r.closer == nil {
		info, err := r.file.Stat()
		if err != nil {
			return false, fmt.Errorf("failed to stat log file: %w", err)
		}
		if uint64(info.Size()) < offset {
			return false, nil
		}
		if _, err := r.file.Seek(int64(offset), io.SeekStart); err != nil {
			return false, fmt.Errorf("failed to seek log file: %w", err)
		}
		return true, nil
	}

	n, err := io.CopyN(io.Discard, input, int64(offset))
	if errors.Is(err, io.EOF) || (err == nil && uint64(n) < offset) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to skip to offset: %w", err)
	}
	return true, nil
}

func (r *FileReader) initScanner(input io.Reader) {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, defaultBufferSize), r.maxSize)
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && r.holdPartial && len(data) > 0 && bytes.IndexByte(data, '\n') < 0 {
			r.held = len(data)
			return 0, nil, nil
		}
		advance, token, err := bufio.ScanLines(data, atEOF)
		r.offset += uint64(advance)
		return advance, token, err
	})
	r.scanner = scanner
}

// Read returns the next line or io.EOF
func (r *FileReader) Read(ctx context.Context) (Line, error) {
	if err := ctx.Err(); err != nil {
		return Line{}, err
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return Line{}, fmt.Errorf("failed to read line %d of %s: %w", r.lineNumber+1, r.path, err)
		}
		if r.held > 0 {
			log.Debug().
				Str("file", r.path).
				Int("bytes", r.held).
				Uint64("offset", r.offset).
				Msg("Unterminated last line left for the next run")
			r.held = 0
		}
		return Line{}, io.EOF
	}

	r.lineNumber++
	text := r.scanner.Text()
	if r.lineNumber == 1 && r.start == 0 {
		text = strings.TrimPrefix(text, utf8BOM)
	}
	return Line{Text: text, Number: r.lineNumber}, nil
}

// Offset returns the bytes consumed so far, including line terminators
func (r *FileReader) Offset() uint64 {
	return r.offset
}

// Close closes the decompressor and the file
func (r *FileReader) Close() error {
	var errs []error
	if r.closer != nil {
		errs = append(errs, r.closer.Close())
		r.closer = nil
	}
	if r.file != nil {
		errs = append(errs, r.file.Close())
		r.file = nil
	}
	return errors.Join(errs...)
}
