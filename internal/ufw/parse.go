package ufw

import (
	"fmt"

	"github.com/SteelMorgan/ufwlog/internal/domain"
)

// Result is the outcome of converting one input line.
// Exactly one of Record and Err is set.
type Result struct {
	LineNum int
	Record  *domain.LogRecord
	Err     error
}

// Parse tokenizes and assembles one line.
func Parse(line string) (*domain.LogRecord, error) {
	fields, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	return Assemble(fields)
}

// ParseLine is Parse with the error annotated by its 1-based line number.
func ParseLine(lineNum int, line string) Result {
	rec, err := Parse(line)
	if err != nil {
		return Result{LineNum: lineNum, Err: fmt.Errorf("line %d: %w", lineNum, err)}
	}
	return Result{LineNum: lineNum, Record: rec}
}
