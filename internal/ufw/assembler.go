package ufw

import (
	"strconv"
	"strings"

	"github.com/SteelMorgan/ufwlog/internal/domain"
)

// months is the calendar table used to turn the syslog month
// abbreviation into its 1-based ordinal.
var months = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthNumber returns the 1-based ordinal of a three-letter month abbreviation.
func MonthNumber(abbr string) (uint8, error) {
	abbr = strings.TrimSpace(abbr)
	for i, m := range months {
		if m == abbr {
			return uint8(i + 1), nil
		}
	}
	return 0, &UnknownMonthError{Value: abbr}
}

// Assemble converts raw fields into a typed record.
// Unknown keys are ignored; a value that does not parse as its field's
// type fails the whole line.
func Assemble(fields *RawFields) (*domain.LogRecord, error) {
	rec := &domain.LogRecord{
		Origin:   fields.Origin(),
		Time:     fields.Time(),
		Hostname: fields.Hostname(),
	}

	month, err := MonthNumber(fields.Month())
	if err != nil {
		return nil, err
	}
	rec.Month = month

	day, err := parseUint[uint8]("day", fields.Day(), 8)
	if err != nil {
		return nil, err
	}
	if day < 1 || day > 31 {
		return nil, &CoercionError{Field: "day", Value: fields.Day()}
	}
	rec.Day = day

	rec.Uptime, _ = fields.Uptime()
	rec.Event, _ = fields.Event()

	// token order, so the first bad field on the line is the one reported
	for _, key := range fields.Keys() {
		if err := assignPair(rec, strings.ToLower(key), fields.pairs[key]); err != nil {
			return nil, err
		}
	}

	flags := fields.Flags()
	rec.SYN = flags.Has(FlagSYN)
	rec.ACK = flags.Has(FlagACK)
	rec.FIN = flags.Has(FlagFIN)
	rec.RST = flags.Has(FlagRST)
	rec.PSH = flags.Has(FlagPSH)
	rec.CWR = flags.Has(FlagCWR)
	rec.ECE = flags.Has(FlagECE)
	rec.DF = flags.Has(FlagDF)
	rec.CE = flags.Has(FlagCE)

	return rec, nil
}

// assignPair stores one key=value pair on the record. key is lowercase.
func assignPair(rec *domain.LogRecord, key, value string) error {
	var err error
	switch key {
	case "in":
		rec.In = &value
	case "out":
		rec.Out = &value
	case "mac":
		rec.MAC = &value
	case "src":
		rec.Src = value
	case "dst":
		rec.Dst = value
	case "len":
		rec.Len, err = parseUint[uint32](key, value, 32)
	case "tos":
		rec.TOS = &value
	case "prec":
		rec.Prec = &value
	case "ttl":
		rec.TTL, err = optionalUint[uint16](key, value, 16)
	case "id":
		rec.ID, err = optionalUint[uint32](key, value, 32)
	case "proto":
		rec.Proto = value
	case "spt":
		rec.SPT, err = optionalUint[uint16](key, value, 16)
	case "dpt":
		rec.DPT, err = optionalUint[uint16](key, value, 16)
	case "window":
		rec.Window, err = optionalUint[uint32](key, value, 32)
	case "res":
		rec.Res = value
	case "urgp":
		rec.URGP, err = optionalUint[uint16](key, value, 16)
	case "tc":
		rec.TC, err = optionalUint[uint8](key, value, 8)
	case "hoplimit":
		rec.HopLimit, err = optionalUint[uint8](key, value, 8)
	case "flowlbl":
		rec.FlowLabel, err = optionalUint[uint32](key, value, 32)
	case "type":
		rec.Type, err = optionalUint[uint8](key, value, 8)
	case "code":
		rec.Code, err = optionalUint[uint8](key, value, 8)
	case "seq":
		rec.Seq, err = optionalUint[uint32](key, value, 32)
	case "mtu":
		rec.MTU, err = optionalUint[uint16](key, value, 16)
	case "mark":
		rec.Mark = &value
	case "physin":
		rec.PhysIn = &value
	case "physout":
		rec.PhysOut = &value
	}
	return err
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32
}

func parseUint[T unsigned](field, raw string, bits int) (T, error) {
	n, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, &CoercionError{Field: field, Value: raw, Err: err}
	}
	return T(n), nil
}

func optionalUint[T unsigned](field, raw string, bits int) (*T, error) {
	n, err := parseUint[T](field, raw, bits)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
