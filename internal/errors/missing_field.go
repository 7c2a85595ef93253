package errors

import (
	stdErrors "errors"
	"strings"
)

// MissingFieldReason is the rejection reason for records lacking a title,
// author key or work key.
const MissingFieldReason = "missing critical field"

// MissingFieldError rejects a raw record that lacks one or more required fields.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return MissingFieldReason + ": " + strings.Join(e.Fields, ", ")
}

// NewMissingFieldError creates a MissingFieldError naming the absent fields.
func NewMissingFieldError(fields ...string) *MissingFieldError {
	return &MissingFieldError{Fields: fields}
}

// IsMissingFieldError reports whether err is a MissingFieldError (even when wrapped).
func IsMissingFieldError(err error) bool {
	var missing *MissingFieldError
	return stdErrors.As(err, &missing)
}
