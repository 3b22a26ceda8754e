// Package export turns parsed UFW records into fixed-column rows and
// writes them out as CSV or JSON Lines.
package export

import (
	"strconv"
	"strings"

	"github.com/SteelMorgan/ufwlog/internal/domain"
)

// Header is the fixed column layout. Downstream consumers address columns
// by position, so the order must not change.
var Header = [ColumnCount]string{
	"Month",
	"Day",
	"Time",
	"hostname",
	"uptime",
	"action",
	"IN",
	"OUT",
	"MAC",
	"SRC",
	"DST",
	"LEN",
	"TOS",
	"PREC",
	"TTL",
	"ID",
	"DF",
	"PROTO",
	"SPT",
	"DPT",
	"WINDOW",
	"RES",
	"Control Bits / flags",
	"URGP",
	"TC",
	"HOPLIMIT",
	"FLOWLBL",
	"TYPE",
	"CODE",
	"SEQ",
	"MTU",
	"MARK",
	"PHYSIN",
	"PHYOUT",
	"origin",
}

// ColumnCount is the number of columns in every row.
const ColumnCount = 35

// HeaderRow returns a copy of Header as a slice.
func HeaderRow() []string {
	row := make([]string, ColumnCount)
	copy(row, Header[:])
	return row
}

// Row renders a record in Header order. Absent optional values become "".
func Row(rec *domain.LogRecord) []string {
	return []string{
		strconv.FormatUint(uint64(rec.Month), 10),
		strconv.FormatUint(uint64(rec.Day), 10),
		rec.Time,
		rec.Hostname,
		rec.Uptime,
		rec.Event,
		str(rec.In),
		str(rec.Out),
		str(rec.MAC),
		rec.Src,
		rec.Dst,
		strconv.FormatUint(uint64(rec.Len), 10),
		str(rec.TOS),
		str(rec.Prec),
		num(rec.TTL),
		num(rec.ID),
		dfColumn(rec.DF),
		rec.Proto,
		num(rec.SPT),
		num(rec.DPT),
		num(rec.Window),
		rec.Res,
		ControlBits(rec),
		urgpColumn(rec),
		num(rec.TC),
		num(rec.HopLimit),
		num(rec.FlowLabel),
		num(rec.Type),
		num(rec.Code),
		num(rec.Seq),
		num(rec.MTU),
		str(rec.Mark),
		str(rec.PhysIn),
		str(rec.PhysOut),
		rec.Origin,
	}
}

// ControlBits joins the set TCP control bits in the fixed order
// SYN ACK FIN RST PSH CWR. ECE, URGP and DF have their own semantics
// and are not listed.
func ControlBits(rec *domain.LogRecord) string {
	bits := make([]string, 0, 6)
	for _, b := range []struct {
		set  bool
		name string
	}{
		{rec.SYN, "SYN"},
		{rec.ACK, "ACK"},
		{rec.FIN, "FIN"},
		{rec.RST, "RST"},
		{rec.PSH, "PSH"},
		{rec.CWR, "CWR"},
	} {
		if b.set {
			bits = append(bits, b.name)
		}
	}
	return strings.Join(bits, " ")
}

// dfColumn renders the literal label, not a numeric boolean.
func dfColumn(df bool) string {
	if df {
		return "DF"
	}
	return ""
}

// urgpColumn renders "1"/"0" when the urgent pointer is known, "" otherwise.
func urgpColumn(rec *domain.LogRecord) string {
	set, known := rec.URGPresent()
	switch {
	case !known:
		return ""
	case set:
		return "1"
	default:
		return "0"
	}
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func num[T ~uint8 | ~uint16 | ~uint32](v *T) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*v), 10)
}
