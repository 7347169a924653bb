package binstruct

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	// ErrTruncated is returned when the remaining input is shorter than a
	// field's declared or required length, or when a declared count or
	// length exceeds the remaining input.
	ErrTruncated = errors.New("binstruct: truncated input")

	// ErrUnknownDiscriminant is returned by arrays and choices that find no
	// registered alternative for a tag and have no fallback.
	ErrUnknownDiscriminant = errors.New("binstruct: unknown discriminant")

	// ErrInvalidConfig is returned for conflicting or malformed definitions.
	// It only occurs at definition or construction time, never while parsing.
	ErrInvalidConfig = errors.New("binstruct: invalid configuration")

	// ErrAlignment signals a padding computation on a non-positive alignment
	// or a negative offset. It indicates a schema bug, not malformed input.
	ErrAlignment = errors.New("binstruct: alignment violation")

	// ErrUnknownField is returned when a name is neither a field nor a
	// bit sub-field of a schema.
	ErrUnknownField = errors.New("binstruct: unknown field")

	// ErrBadValue is returned when a value cannot be assigned to a field.
	ErrBadValue = errors.New("binstruct: bad value")
)

// FieldError locates a failure inside a struct.
type FieldError struct {
	Schema string
	Field  string
	// Offset is the struct-relative position of the field.
	Offset int
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s (offset %d): %v", e.Schema, e.Field, e.Offset, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Path returns the dotted field path through nested FieldErrors, e.g.
// "negotiate_request.context_list.data".
func (e *FieldError) Path() string {
	path := e.Schema + "." + e.Field
	var inner *FieldError
	if errors.As(e.Err, &inner) {
		path += "." + inner.Field
		for errors.As(inner.Err, &inner) {
			path += "." + inner.Field
		}
	}
	return path
}

func truncated(need, have int) error {
	return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, need, have)
}
