package ufw

import (
	"strings"
)

// eventMarker opens the bracketed event/action label, e.g. "[UFW BLOCK]".
const eventMarker = "[UFW"

// SplitFields splits a line on whitespace and drops empty tokens,
// so runs of padding collapse.
func SplitFields(line string) []string {
	return strings.Fields(line)
}

// removeBrackets strips every '[' and ']' from s.
func removeBrackets(s string) string {
	return strings.NewReplacer("[", "", "]", "").Replace(s)
}

// Tokenize extracts the raw fields of a single UFW log line.
//
// Example input:
//
//	Apr 11 20:28:26 myhost kernel: [ 123.456789] [UFW BLOCK] IN=eth0 OUT= ... SYN URGP=0
func Tokenize(line string) (*RawFields, error) {
	fields := newRawFields(line)

	tokens := SplitFields(line)
	if len(tokens) < headLen {
		return nil, &StructuralError{Reason: "line shorter than the fixed head", Line: line}
	}

	for pos := 0; pos < headLen; pos++ {
		fields.setHead(pos, tokens[pos])
	}

	for i := headLen; i < len(tokens); i++ {
		token := tokens[i]

		switch {
		case !fields.hasEvent && strings.Contains(token, eventMarker):
			label, next, ok := scanLabel(tokens, i)
			if !ok {
				return nil, &StructuralError{Reason: "unterminated event label", Line: line}
			}
			fields.setEvent(label)
			i = next

		case !fields.hasUptime && !fields.hasEvent && strings.HasPrefix(token, "["):
			// Padding inside "[   21.050483]" leaves a lone "[" token.
			if token == "[" && i+1 < len(tokens) {
				i++
				token += tokens[i]
			}
			fields.setUptime(removeBrackets(token))

		case strings.Contains(token, "="):
			key, value, _ := strings.Cut(token, "=")
			fields.setPair(strings.TrimSpace(key), value)

		default:
			if f, ok := lookupFlag(token); ok {
				fields.flags.Set(f)
			}
		}
	}

	return fields, nil
}

// scanLabel collects the label starting at tokens[start] up to and
// including the first token holding ']'. It returns the joined label and
// the index of the closing token.
func scanLabel(tokens []string, start int) (string, int, bool) {
	parts := make([]string, 0, 3)
	for i := start; i < len(tokens); i++ {
		part := tokens[i]
		// Only look for ']' after the marker in the opening token.
		closing := part
		if i == start {
			closing = part[strings.Index(part, eventMarker):]
		}
		if stripped := removeBrackets(part); stripped != "" {
			parts = append(parts, stripped)
		}
		if strings.Contains(closing, "]") {
			return strings.Join(parts, " "), i, true
		}
	}
	return "", len(tokens), false
}
