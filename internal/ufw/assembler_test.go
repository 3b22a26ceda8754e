package ufw

import (
	"errors"
	"reflect"
	"testing"

	"github.com/SteelMorgan/ufwlog/internal/domain"
)

func TestMonthNumber(t *testing.T) {
	tests := []struct {
		abbr    string
		want    uint8
		wantErr bool
	}{
		{abbr: "Jan", want: 1},
		{abbr: "Apr", want: 4},
		{abbr: "Dec", want: 12},
		{abbr: " Sep ", want: 9},
		{abbr: "apr", wantErr: true},
		{abbr: "April", wantErr: true},
		{abbr: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := MonthNumber(tt.abbr)
		if (err != nil) != tt.wantErr {
			t.Errorf("MonthNumber(%q) error = %v, wantErr %v", tt.abbr, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMonth) {
				t.Errorf("MonthNumber(%q) error = %v, want ErrUnknownMonth", tt.abbr, err)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("MonthNumber(%q) = %d, want %d", tt.abbr, got, tt.want)
		}
	}
}

func TestParse_Block(t *testing.T) {
	rec, err := Parse(sampleBlock)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if rec.Month != 4 || rec.Day != 11 {
		t.Errorf("date = %d/%d, want 4/11", rec.Month, rec.Day)
	}
	if rec.Time != "20:28:26" || rec.Hostname != "myhost" {
		t.Errorf("time/host = %q/%q", rec.Time, rec.Hostname)
	}
	if rec.Uptime != "123.456789" {
		t.Errorf("uptime = %q", rec.Uptime)
	}
	if rec.Event != "UFW BLOCK" {
		t.Errorf("event = %q", rec.Event)
	}
	if rec.In == nil || *rec.In != "eth0" {
		t.Errorf("in = %v, want eth0", rec.In)
	}
	if rec.Out == nil || *rec.Out != "" {
		t.Errorf("out = %v, want present and empty", rec.Out)
	}
	if rec.Src != "1.2.3.4" || rec.Dst != "5.6.7.8" {
		t.Errorf("src/dst = %q/%q", rec.Src, rec.Dst)
	}
	if rec.Len != 60 {
		t.Errorf("len = %d", rec.Len)
	}
	if rec.TTL == nil || *rec.TTL != 64 {
		t.Errorf("ttl = %v", rec.TTL)
	}
	if rec.SPT == nil || *rec.SPT != 443 || rec.DPT == nil || *rec.DPT != 80 {
		t.Errorf("ports = %v/%v", rec.SPT, rec.DPT)
	}
	if !rec.SYN || !rec.ACK || rec.FIN || rec.DF {
		t.Errorf("flags syn=%v ack=%v fin=%v df=%v", rec.SYN, rec.ACK, rec.FIN, rec.DF)
	}
	if rec.Window != nil || rec.URGP != nil || rec.TOS != nil {
		t.Errorf("absent optional fields should be nil")
	}
	if rec.Origin != sampleBlock {
		t.Errorf("origin not preserved")
	}
}

func TestParse_IPv6ICMP(t *testing.T) {
	line := "Apr  7 20:28:26 host kernel: [   21.050483] [UFW AUDIT INVALID] IN=eth0 OUT= MAC=33:33:00:00:00:01 SRC=fe80::1 DST=ff02::1 LEN=72 TC=0 HOPLIMIT=255 FLOWLBL=0 PROTO=ICMPv6 TYPE=134 CODE=0"

	rec, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if rec.Day != 7 {
		t.Errorf("day = %d, want 7", rec.Day)
	}
	if rec.HopLimit == nil || *rec.HopLimit != 255 {
		t.Errorf("hoplimit = %v", rec.HopLimit)
	}
	if rec.TC == nil || *rec.TC != 0 {
		t.Errorf("tc = %v", rec.TC)
	}
	if rec.FlowLabel == nil || *rec.FlowLabel != 0 {
		t.Errorf("flowlbl = %v", rec.FlowLabel)
	}
	if rec.Type == nil || *rec.Type != 134 || rec.Code == nil || *rec.Code != 0 {
		t.Errorf("icmp type/code = %v/%v", rec.Type, rec.Code)
	}
	if rec.Event != "UFW AUDIT INVALID" {
		t.Errorf("event = %q", rec.Event)
	}
}

func TestParse_CaseInsensitiveKeys(t *testing.T) {
	rec, err := Parse("Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] src=1.1.1.1 Dst=2.2.2.2 len=10 proto=UDP Vendor=x")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if rec.Src != "1.1.1.1" || rec.Dst != "2.2.2.2" || rec.Len != 10 || rec.Proto != "UDP" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestParse_URGP(t *testing.T) {
	tests := []struct {
		name      string
		tail      string
		wantSet   bool
		wantKnown bool
	}{
		{name: "absent", tail: "SYN", wantKnown: false},
		{name: "zero", tail: "SYN URGP=0", wantKnown: true, wantSet: false},
		{name: "non-zero", tail: "SYN URGP=1", wantKnown: true, wantSet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Parse("Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] SRC=1.1.1.1 " + tt.tail)
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			set, known := rec.URGPresent()
			if set != tt.wantSet || known != tt.wantKnown {
				t.Errorf("URGPresent() = (%v, %v), want (%v, %v)", set, known, tt.wantSet, tt.wantKnown)
			}
		})
	}
}

func TestParse_CoercionErrors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantField string
		wantValue string
	}{
		{
			name:      "non-numeric length",
			line:      "Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] LEN=abc",
			wantField: "len",
			wantValue: "abc",
		},
		{
			name:      "port overflow",
			line:      "Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] SPT=70000",
			wantField: "spt",
			wantValue: "70000",
		},
		{
			name:      "empty ttl",
			line:      "Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] TTL=",
			wantField: "ttl",
			wantValue: "",
		},
		{
			name:      "bad day",
			line:      "Apr x1 20:28:26 h kernel: [1.0] [UFW BLOCK]",
			wantField: "day",
			wantValue: "x1",
		},
		{
			name:      "day out of range",
			line:      "Apr 32 20:28:26 h kernel: [1.0] [UFW BLOCK]",
			wantField: "day",
			wantValue: "32",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.line)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.line)
			}
			if !errors.Is(err, ErrCoercion) {
				t.Errorf("error = %v, want ErrCoercion", err)
			}
			var ce *CoercionError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CoercionError, got %T", err)
			}
			if ce.Field != tt.wantField || ce.Value != tt.wantValue {
				t.Errorf("CoercionError = %s=%q, want %s=%q", ce.Field, ce.Value, tt.wantField, tt.wantValue)
			}
		})
	}
}

func TestParse_FirstBadFieldReported(t *testing.T) {
	const line = "Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] SRC=1.1.1.1 TTL=x LEN=60 SPT=y WINDOW=z"

	// pairs live in a map; the report must not depend on its iteration order
	for i := 0; i < 50; i++ {
		_, err := Parse(line)
		var ce *CoercionError
		if !errors.As(err, &ce) {
			t.Fatalf("expected *CoercionError, got %v", err)
		}
		if ce.Field != "ttl" || ce.Value != "x" {
			t.Fatalf("attempt %d reported %s=%q, want ttl=\"x\"", i, ce.Field, ce.Value)
		}
	}
}

func TestParse_UnknownMonth(t *testing.T) {
	_, err := Parse("Foo 11 20:28:26 h kernel: [1.0] [UFW BLOCK] SRC=1.1.1.1")
	if !errors.Is(err, ErrUnknownMonth) {
		t.Fatalf("error = %v, want ErrUnknownMonth", err)
	}
}

func TestParseLine_AnnotatesLineNumber(t *testing.T) {
	res := ParseLine(7, "short line")
	if res.Err == nil || res.Record != nil {
		t.Fatalf("expected error result, got %+v", res)
	}
	if res.LineNum != 7 {
		t.Errorf("LineNum = %d, want 7", res.LineNum)
	}
	if !errors.Is(res.Err, ErrStructural) {
		t.Errorf("error = %v, want ErrStructural", res.Err)
	}

	ok := ParseLine(1, sampleBlock)
	if ok.Err != nil || ok.Record == nil {
		t.Fatalf("expected record, got %+v", ok)
	}
}

func TestMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "complete tcp line",
			line: "Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] SRC=1.1.1.1 DST=2.2.2.2 LEN=60 PROTO=TCP SPT=1 DPT=2 RES=0x00 SYN",
		},
		{
			name: "udp line needs no res",
			line: "Apr 11 20:28:26 h kernel: [1.0] [UFW ALLOW] SRC=1.1.1.1 DST=2.2.2.2 LEN=52 PROTO=UDP SPT=53 DPT=53",
		},
		{
			name: "tcp line without res",
			line: "Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] SRC=1.1.1.1 DST=2.2.2.2 LEN=60 PROTO=TCP SPT=1 DPT=2",
			want: []string{"res"},
		},
		{
			name: "source only",
			line: "Apr 11 20:28:26 h kernel: [1.0] [UFW BLOCK] SRC=1.1.1.1",
			want: []string{"dst", "len", "proto"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Parse(tt.line)
			if err != nil {
				t.Fatal(err)
			}
			if got := rec.MissingRequired(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MissingRequired() = %v, want %v", got, tt.want)
			}
		})
	}

	var empty domain.LogRecord
	if got := empty.MissingRequired(); len(got) != 7 {
		t.Errorf("zero record MissingRequired() = %v, want every required field", got)
	}
}
