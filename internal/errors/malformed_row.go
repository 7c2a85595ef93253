package errors

import (
	stdErrors "errors"
	"fmt"
)

// MalformedRowError describes a persisted table row that could not be parsed.
// The row is skipped, never rewritten.
type MalformedRowError struct {
	File string
	Line int
	Err  error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

// NewMalformedRowError wraps a row parse failure with its location.
func NewMalformedRowError(file string, line int, err error) *MalformedRowError {
	return &MalformedRowError{File: file, Line: line, Err: err}
}

// IsMalformedRowError reports whether err is a MalformedRowError (even when wrapped).
func IsMalformedRowError(err error) bool {
	var rowErr *MalformedRowError
	return stdErrors.As(err, &rowErr)
}
