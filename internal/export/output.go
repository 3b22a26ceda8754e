package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultOutput is used when no output name is given.
const DefaultOutput = "./ufwlog"

// ErrOutputExists is returned when the output file exists and neither
// overwrite nor append was requested.
var ErrOutputExists = errors.New("output file already exists")

// ResolvePath checks the output name and appends the format extension when
// the name has none. An empty name resolves to DefaultOutput.
func ResolvePath(name string, format Format) (string, error) {
	if name == "" {
		name = DefaultOutput
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, string(filepath.Separator)) {
		return "", fmt.Errorf("output %q does not name a file", name)
	}
	base := filepath.Base(name)
	if base == "." || base == ".." {
		return "", fmt.Errorf("output %q does not name a file", name)
	}
	if filepath.Ext(base) == "" {
		name += "." + format.Extension()
	}
	return name, nil
}

// OutputMode selects how an existing output file is treated.
type OutputMode int

const (
	// ModeCreate fails when the file exists.
	ModeCreate OutputMode = iota
	// ModeOverwrite truncates an existing file.
	ModeOverwrite
	// ModeAppend appends to an existing file.
	ModeAppend
)

// Output is an opened output file, transparently compressed by extension:
// ".gz" uses gzip and ".zst" uses zstd.
type Output struct {
	file *os.File
	comp io.WriteCloser
	w    io.Writer
	Path string
}

// OpenOutput opens path for writing according to mode.
func OpenOutput(path string, mode OutputMode) (*Output, error) {
	flags := os.O_WRONLY | os.O_CREATE
	switch mode {
	case ModeCreate:
		flags |= os.O_EXCL
	case ModeOverwrite:
		flags |= os.O_TRUNC
	case ModeAppend:
		flags |= os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s (use --overwrite to replace it)", ErrOutputExists, path)
		}
		return nil, fmt.Errorf("failed to open output: %w", err)
	}

	out := &Output{file: f, w: f, Path: path}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz := gzip.NewWriter(f)
		out.comp, out.w = gz, gz
	case ".zst":
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		out.comp, out.w = enc, enc
	}
	return out, nil
}

// Write implements io.Writer.
func (o *Output) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

// Close finishes the compressed stream, if any, and closes the file.
func (o *Output) Close() error {
	var errs []error
	if o.comp != nil {
		errs = append(errs, o.comp.Close())
	}
	errs = append(errs, o.file.Close())
	return errors.Join(errs...)
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
