package codec

import (
	"errors"
	"fmt"
)

// ErrSkipField is returned by a Validator to discard the field it was called
// for. The cursor is rolled back to where the field started and the field is
// left out of the record.
var ErrSkipField = errors.New("skip field")

// MissingFieldError is returned when encoding a record that lacks a required
// field.
type MissingFieldError struct {
	Schema string
	Field  string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %s.%s", e.Schema, e.Field)
}

func (e MissingFieldError) Is(err error) bool {
	_, ok := err.(MissingFieldError)
	return ok
}

// ValueTypeError is returned when a value cannot be encoded as the requested
// wire type, either because of its Go type or because it is out of range.
type ValueTypeError struct {
	Want  string
	Value any
}

func (e ValueTypeError) Error() string {
	return fmt.Sprintf("cannot encode %T(%v) as %s", e.Value, e.Value, e.Want)
}

func (e ValueTypeError) Is(err error) bool {
	_, ok := err.(ValueTypeError)
	return ok
}
