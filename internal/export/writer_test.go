package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "csv", want: FormatCSV},
		{input: "CSV", want: FormatCSV},
		{input: "", want: FormatCSV},
		{input: "jsonl", want: FormatJSONL},
		{input: "xlsx", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader returned error: %v", err)
	}
	first := mustParse(t, scenarioLine)
	second := mustParse(t, "Apr 12 01:00:00 other kernel: [2.0] [UFW ALLOW] SRC=9.9.9.9 DST=8.8.8.8 LEN=1 PROTO=UDP")
	if err := w.Write(first); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := w.Write(second); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if strings.Join(records[0], "|") != strings.Join(Header[:], "|") {
		t.Errorf("first record is not the header: %q", records[0])
	}
	if records[1][3] != "myhost" || records[2][3] != "other" {
		t.Errorf("rows out of input order: %q, %q", records[1][3], records[2][3])
	}
	if records[1][34] != scenarioLine {
		t.Errorf("origin column = %q", records[1][34])
	}
}

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)

	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader returned error: %v", err)
	}
	if err := w.Write(mustParse(t, scenarioLine)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", out)
	}
	if !strings.HasPrefix(out, `{"Month":"4","Day":"11",`) {
		t.Errorf("keys are not in header order: %s", out)
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != ColumnCount {
		t.Errorf("decoded %d keys, want %d", len(decoded), ColumnCount)
	}
	if decoded["Control Bits / flags"] != "SYN ACK" {
		t.Errorf("control bits = %q", decoded["Control Bits / flags"])
	}
	if decoded["origin"] != scenarioLine {
		t.Errorf("origin = %q", decoded["origin"])
	}
}

func TestNewWriter_UnknownFormat(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, Format("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
}
