package ufw

import (
	"strings"
)

// Head positions of a UFW line, always in this order.
const (
	headMonth = iota
	headDay
	headTime
	headHostname
	headLen
)

// RawFields holds what the tokenizer extracted from one line, before any
// type coercion. Head slots are positional, the key=value tail is kept in
// a map with keys as they appeared plus their token order, and keyword
// flags are accumulated separately from the key=value pairs.
type RawFields struct {
	origin string
	head   [headLen]string

	uptime    string
	hasUptime bool
	event     string
	hasEvent  bool

	pairs map[string]string
	keys  []string
	flags Flags
}

func newRawFields(origin string) *RawFields {
	return &RawFields{
		origin: origin,
		pairs:  make(map[string]string),
	}
}

// Origin returns the verbatim input line.
func (f *RawFields) Origin() string { return f.origin }

func (f *RawFields) Month() string    { return f.head[headMonth] }
func (f *RawFields) Day() string      { return f.head[headDay] }
func (f *RawFields) Time() string     { return f.head[headTime] }
func (f *RawFields) Hostname() string { return f.head[headHostname] }

// Uptime returns the kernel uptime counter without brackets.
func (f *RawFields) Uptime() (string, bool) { return f.uptime, f.hasUptime }

// Event returns the bracketed event/action label without brackets.
func (f *RawFields) Event() (string, bool) { return f.event, f.hasEvent }

// Flags returns the keyword flags seen on the line.
func (f *RawFields) Flags() Flags { return f.flags }

// Get looks up a key=value pair by case-insensitive key.
func (f *RawFields) Get(key string) (string, bool) {
	if v, ok := f.pairs[key]; ok {
		return v, true
	}
	for k, v := range f.pairs {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Keys returns the pair keys in the order they appeared on the line.
// A repeated key sits at its last position.
func (f *RawFields) Keys() []string { return f.keys }

// Len returns the number of key=value pairs.
func (f *RawFields) Len() int { return len(f.pairs) }

// Map renders the fields as a flat string map: head fields, uptime and
// event under lowercase names, the key=value pairs with their original
// keys, every set flag as lowercase name => "1", and origin.
func (f *RawFields) Map() map[string]string {
	m := make(map[string]string, len(f.pairs)+8)
	m["origin"] = f.origin
	m["month"] = f.Month()
	m["day"] = f.Day()
	m["time"] = f.Time()
	m["hostname"] = f.Hostname()
	if f.hasUptime {
		m["uptime"] = f.uptime
	}
	if f.hasEvent {
		m["event"] = f.event
	}
	for k, v := range f.pairs {
		m[k] = v
	}
	for _, fo := range flagOrder {
		if f.flags.Has(fo.flag) {
			m[strings.ToLower(fo.name)] = "1"
		}
	}
	return m
}

func (f *RawFields) setHead(pos int, value string) { f.head[pos] = value }

func (f *RawFields) setUptime(value string) {
	f.uptime = value
	f.hasUptime = true
}

func (f *RawFields) setEvent(value string) {
	f.event = value
	f.hasEvent = true
}

// setPair stores a pair; a later key that differs only in case replaces the earlier one.
func (f *RawFields) setPair(key, value string) {
	kept := f.keys[:0]
	for _, k := range f.keys {
		if strings.EqualFold(k, key) {
			delete(f.pairs, k)
			continue
		}
		kept = append(kept, k)
	}
	f.keys = append(kept, key)
	f.pairs[key] = value
}
