package ufw

import "strings"

// Flag is a bare keyword token that signals a boolean on the line.
type Flag uint16

const (
	FlagSYN Flag = 1 << iota
	FlagACK
	FlagFIN
	FlagRST
	FlagPSH
	FlagCWR
	FlagECE
	FlagDF
	FlagCE
)

// flagKeywords maps the exact keyword token to its flag.
var flagKeywords = map[string]Flag{
	"SYN": FlagSYN,
	"ACK": FlagACK,
	"FIN": FlagFIN,
	"RST": FlagRST,
	"PSH": FlagPSH,
	"CWR": FlagCWR,
	"ECE": FlagECE,
	"DF":  FlagDF,
	"CE":  FlagCE,
}

// flagOrder is the canonical rendering order used by Flags.String.
var flagOrder = []struct {
	flag Flag
	name string
}{
	{FlagSYN, "SYN"},
	{FlagACK, "ACK"},
	{FlagFIN, "FIN"},
	{FlagRST, "RST"},
	{FlagPSH, "PSH"},
	{FlagCWR, "CWR"},
	{FlagECE, "ECE"},
	{FlagDF, "DF"},
	{FlagCE, "CE"},
}

// Flags accumulates the keyword flags seen while scanning a line.
type Flags uint16

// Set marks f as present.
func (fs *Flags) Set(f Flag) { *fs |= Flags(f) }

// Has reports whether f was seen.
func (fs Flags) Has(f Flag) bool { return fs&Flags(f) != 0 }

// String lists the set flags in canonical order, space separated.
func (fs Flags) String() string {
	names := make([]string, 0, len(flagOrder))
	for _, fo := range flagOrder {
		if fs.Has(fo.flag) {
			names = append(names, fo.name)
		}
	}
	return strings.Join(names, " ")
}

// lookupFlag matches a token against the keyword set after trimming.
func lookupFlag(token string) (Flag, bool) {
	f, ok := flagKeywords[strings.TrimSpace(token)]
	return f, ok
}
