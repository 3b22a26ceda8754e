package ufw

import (
	"errors"
	"fmt"
)

// Error classes returned by the tokenizer and the assembler.
// None of them is retryable: the same text fails the same way.
var (
	ErrStructural   = errors.New("structural parse error")
	ErrCoercion     = errors.New("field coercion error")
	ErrUnknownMonth = errors.New("unknown month")
)

// StructuralError reports a line whose shape cannot be tokenized:
// it is shorter than the fixed head or its event label is never closed.
type StructuralError struct {
	Reason string
	Line   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s (line %q)", ErrStructural, e.Reason, e.Line)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// CoercionError reports a field whose value does not parse as its declared type.
type CoercionError struct {
	Field string
	Value string
	Err   error
}

func (e *CoercionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: field %s=%q: %v", ErrCoercion, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: field %s=%q", ErrCoercion, e.Field, e.Value)
}

func (e *CoercionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCoercion}
	}
	return []error{ErrCoercion, e.Err}
}

// UnknownMonthError reports a month abbreviation missing from the calendar table.
type UnknownMonthError struct {
	Value string
}

func (e *UnknownMonthError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownMonth, e.Value)
}

func (e *UnknownMonthError) Unwrap() error { return ErrUnknownMonth }
