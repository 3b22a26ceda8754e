package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/SteelMorgan/ufwlog/internal/domain"
)

// Format is an output format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates a format name (case-insensitive).
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatJSONL:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use csv or jsonl)", name)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Writer writes records as rows. Rows are emitted in call order.
type Writer interface {
	// WriteHeader writes the header row. Call it once, before any record.
	WriteHeader() error
	Write(rec *domain.LogRecord) error
	Flush() error
}

// NewWriter returns a writer for format on top of w.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// CSVWriter writes rows as RFC 4180 CSV.
type CSVWriter struct {
	w *csv.Writer
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write(Header[:])
}

func (c *CSVWriter) Write(rec *domain.LogRecord) error {
	return c.w.Write(Row(rec))
}

func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// JSONLWriter writes one JSON object per record, keyed by header column
// and keeping header order. It has no header line.
type JSONLWriter struct {
	w   *bufio.Writer
	buf bytes.Buffer
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

func (j *JSONLWriter) WriteHeader() error { return nil }

func (j *JSONLWriter) Write(rec *domain.LogRecord) error {
	j.buf.Reset()
	j.buf.WriteByte('{')
	for i, value := range Row(rec) {
		if i > 0 {
			j.buf.WriteByte(',')
		}
		key, err := json.Marshal(Header[i])
		if err != nil {
			return err
		}
		val, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode column %s: %w", Header[i], err)
		}
		j.buf.Write(key)
		j.buf.WriteByte(':')
		j.buf.Write(val)
	}
	j.buf.WriteString("}\n")

	_, err := j.w.Write(j.buf.Bytes())
	return err
}

func (j *JSONLWriter) Flush() error {
	return j.w.Flush()
}
