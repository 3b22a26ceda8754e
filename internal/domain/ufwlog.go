package domain

import "strings"

// LogRecord represents a single parsed UFW kernel log line.
//
// Field meanings follow the netfilter LOG target output:
// https://help.ubuntu.com/community/UFW#Interpreting_Log_Entries
//
// Optional fields are nil when the line did not carry them (log verbosity
// and protocol decide which keys appear).
type LogRecord struct {
	// Head fields (present on every line)
	Month    uint8 // 1-12
	Day      uint8 // 1-31
	Time     string
	Hostname string
	Uptime   string // kernel uptime counter, kept verbatim
	Event    string // e.g. "UFW BLOCK", "UFW AUDIT INVALID"

	In  *string
	Out *string
	MAC *string

	Src   string
	Dst   string
	Len   uint32
	TOS   *string // type of service, hex
	Prec  *string // precedence, hex
	TTL   *uint16
	ID    *uint32
	Proto string

	SPT    *uint16 // source port
	DPT    *uint16 // destination port
	Window *uint32 // receive window
	Res    string  // reserved bits, hex

	// TCP control bits
	SYN bool
	ACK bool
	FIN bool
	RST bool
	PSH bool
	CWR bool
	ECE bool

	DF bool // don't fragment
	CE bool // congestion experienced

	// URGP is the urgent pointer. nil means the line carried no URGP key.
	URGP *uint16

	// IPv6
	TC        *uint8 // traffic class
	HopLimit  *uint8
	FlowLabel *uint32

	// ICMP
	Type *uint8
	Code *uint8
	Seq  *uint32
	MTU  *uint16

	Mark    *string
	PhysIn  *string
	PhysOut *string

	// Origin is the verbatim source line
	Origin string
}

// URGPresent reports whether the urgent pointer is known and, if so, whether it is set.
func (r *LogRecord) URGPresent() (set bool, known bool) {
	if r.URGP == nil {
		return false, false
	}
	return *r.URGP != 0, true
}

// MissingRequired returns the names of required fields that were absent
// from the source line and defaulted to empty or zero. RES is only logged
// for TCP packets, so it is required on TCP lines alone.
func (r *LogRecord) MissingRequired() []string {
	var missing []string
	check := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	check("time", r.Time)
	check("hostname", r.Hostname)
	check("event", r.Event)
	check("src", r.Src)
	check("dst", r.Dst)
	if r.Len == 0 {
		missing = append(missing, "len")
	}
	check("proto", r.Proto)
	if strings.EqualFold(r.Proto, "TCP") {
		check("res", r.Res)
	}
	return missing
}
