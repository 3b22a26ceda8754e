package ufw

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleBlock = "Apr 11 20:28:26 myhost kernel: [ 123.456789] [UFW BLOCK] IN=eth0 OUT= MAC=aa:bb SRC=1.2.3.4 DST=5.6.7.8 LEN=60 TTL=64 PROTO=TCP SPT=443 DPT=80 SYN ACK"

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single spaces",
			input: "Apr 11 20:28:26",
			want:  []string{"Apr", "11", "20:28:26"},
		},
		{
			name:  "padded day",
			input: "Apr  7 20:28:26",
			want:  []string{"Apr", "7", "20:28:26"},
		},
		{
			name:  "leading and trailing whitespace",
			input: "  Apr 7\t20:28:26  ",
			want:  []string{"Apr", "7", "20:28:26"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitFields(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitFields(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRemoveBrackets(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"[UFW LOG]", "UFW LOG"},
		{"UFW LOG", "UFW LOG"},
		{"[12345.678901]", "12345.678901"},
		{"[", ""},
		{"a]b[c", "abc"},
	}

	for _, tt := range tests {
		got := removeBrackets(tt.input)
		if got != tt.want {
			t.Errorf("removeBrackets(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if again := removeBrackets(got); again != got {
			t.Errorf("removeBrackets is not idempotent on %q: got %q", got, again)
		}
	}
}

func TestTokenize_Head(t *testing.T) {
	lines := []string{
		sampleBlock,
		"Apr  7 20:28:26 host-a kernel: [   21.050483] [UFW AUDIT INVALID] IN=eth0 OUT= SRC=fe80::1 DST=ff02::1 LEN=72 TC=0 HOPLIMIT=255 FLOWLBL=0 PROTO=ICMPv6 TYPE=134 CODE=0",
		"Dec 26 13:45:01 gw kernel: [12345.678901] [UFW ALLOW] IN= OUT=eth0 SRC=10.0.0.2 DST=8.8.8.8 LEN=60 PROTO=UDP SPT=5353 DPT=53",
	}

	for _, line := range lines {
		fields, err := Tokenize(line)
		if err != nil {
			t.Fatalf("Tokenize(%q) returned error: %v", line, err)
		}
		tokens := SplitFields(line)
		got := []string{fields.Month(), fields.Day(), fields.Time(), fields.Hostname()}
		if !reflect.DeepEqual(got, tokens[:4]) {
			t.Errorf("head of %q = %q, want %q", line, got, tokens[:4])
		}
	}
}

func TestTokenize_Uptime(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "bracket split from number",
			line: "Apr 11 20:28:26 h kernel: [ 12345.678901] [UFW BLOCK] SRC=1.1.1.1",
			want: "12345.678901",
		},
		{
			name: "bracket split by wide padding",
			line: "Apr 11 20:28:26 h kernel: [     21.050483] [UFW BLOCK] SRC=1.1.1.1",
			want: "21.050483",
		},
		{
			name: "single token",
			line: "Apr 11 20:28:26 h kernel: [12345.678901] [UFW BLOCK] SRC=1.1.1.1",
			want: "12345.678901",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := Tokenize(tt.line)
			if err != nil {
				t.Fatalf("Tokenize returned error: %v", err)
			}
			got, ok := fields.Uptime()
			if !ok {
				t.Fatalf("uptime not extracted from %q", tt.line)
			}
			if got != tt.want {
				t.Errorf("uptime = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenize_EventLabel(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "two tokens",
			line: sampleBlock,
			want: "UFW BLOCK",
		},
		{
			name: "three tokens",
			line: "Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK EXTRA] SRC=1.1.1.1",
			want: "UFW BLOCK EXTRA",
		},
		{
			name: "audit invalid",
			line: "Apr 11 20:28:26 h kernel: [1.0] [UFW AUDIT INVALID] SRC=1.1.1.1",
			want: "UFW AUDIT INVALID",
		},
		{
			name: "single token",
			line: "Apr 11 20:28:26 h kernel: [1.0] [UFW] SRC=1.1.1.1",
			want: "UFW",
		},
		{
			name: "no uptime",
			line: "Apr 11 20:28:26 h kernel: [UFW ALLOW] SRC=1.1.1.1",
			want: "UFW ALLOW",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := Tokenize(tt.line)
			if err != nil {
				t.Fatalf("Tokenize returned error: %v", err)
			}
			got, ok := fields.Event()
			if !ok {
				t.Fatalf("event not extracted from %q", tt.line)
			}
			if got != tt.want {
				t.Errorf("event = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenize_PairsAndFlags(t *testing.T) {
	fields, err := Tokenize(sampleBlock)
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}

	pairs := map[string]string{
		"IN":    "eth0",
		"OUT":   "",
		"MAC":   "aa:bb",
		"SRC":   "1.2.3.4",
		"DST":   "5.6.7.8",
		"PROTO": "TCP",
		"spt":   "443",
	}
	for key, want := range pairs {
		got, ok := fields.Get(key)
		if !ok {
			t.Errorf("missing pair %q", key)
			continue
		}
		if got != want {
			t.Errorf("pair %q = %q, want %q", key, got, want)
		}
	}

	if !fields.Flags().Has(FlagSYN) || !fields.Flags().Has(FlagACK) {
		t.Errorf("expected SYN and ACK flags, got %q", fields.Flags())
	}
	if fields.Flags().Has(FlagDF) {
		t.Errorf("unexpected DF flag")
	}

	m := fields.Map()
	if m["origin"] != sampleBlock {
		t.Errorf("origin = %q, want verbatim line", m["origin"])
	}
	if m["syn"] != "1" || m["ack"] != "1" {
		t.Errorf("flag entries = syn:%q ack:%q, want \"1\"", m["syn"], m["ack"])
	}
	if _, ok := m["kernel:"]; ok {
		t.Errorf("unrecognized token should be dropped")
	}
}

func TestTokenize_ValueKeepsLaterEquals(t *testing.T) {
	fields, err := Tokenize("Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] MARK=a=b")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if got, _ := fields.Get("MARK"); got != "a=b" {
		t.Errorf("MARK = %q, want %q", got, "a=b")
	}
}

func TestTokenize_RepeatedKeyLastWins(t *testing.T) {
	fields, err := Tokenize("Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] SRC=1.1.1.1 src=2.2.2.2")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if fields.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", fields.Len())
	}
	if got, _ := fields.Get("SRC"); got != "2.2.2.2" {
		t.Errorf("SRC = %q, want the later value", got)
	}
}

func TestTokenize_KeysInLineOrder(t *testing.T) {
	fields, err := Tokenize("Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] IN=eth0 SRC=1.1.1.1 DST=2.2.2.2 in=eth1 LEN=60")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	got := strings.Join(fields.Keys(), " ")
	if want := "SRC DST in LEN"; got != want {
		t.Errorf("Keys() = %q, want %q", got, want)
	}
}

func TestTokenize_FlagOrderIndependent(t *testing.T) {
	a, err := Tokenize("Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] SYN ACK")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Tokenize("Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] ACK SYN SYN")
	if err != nil {
		t.Fatal(err)
	}
	if a.Flags() != b.Flags() {
		t.Errorf("flags differ: %q vs %q", a.Flags(), b.Flags())
	}
	if got := b.Flags().String(); got != "SYN ACK" {
		t.Errorf("Flags.String() = %q, want %q", got, "SYN ACK")
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "empty", line: ""},
		{name: "short head", line: "Apr 11 20:28:26"},
		{name: "unterminated label", line: "Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK SRC=1.1.1.1 DST=2.2.2.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.line)
			if err == nil {
				t.Fatalf("Tokenize(%q) expected error", tt.line)
			}
			if !errors.Is(err, ErrStructural) {
				t.Errorf("error = %v, want ErrStructural", err)
			}
			var se *StructuralError
			if !errors.As(err, &se) || se.Line != tt.line {
				t.Errorf("expected *StructuralError carrying the line, got %#v", err)
			}
		})
	}
}
