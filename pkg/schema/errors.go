package schema

import (
	"errors"
	"fmt"
)

// ErrInvalidSchemaType is matched by every schema-authoring error.
var ErrInvalidSchemaType = errors.New("invalid schema type")

// InvalidTypeError reports a declaration that matches none of the recognised
// schema forms.
type InvalidTypeError struct {
	Key    string // Dotted path of the declaration, empty at the root
	Reason string // Human-readable reason for failure
	Value  any    // The offending declaration
	Err    error  // Underlying cause, if any
}

func (e *InvalidTypeError) Error() string {
	where := e.Key
	if where == "" {
		where = "<root>"
	}
	if e.Reason != "" {
		return fmt.Sprintf("invalid schema type at %q: %s (got %T)", where, e.Reason, e.Value)
	}
	return fmt.Sprintf("invalid schema type at %q: %v (%T)", where, e.Value, e.Value)
}

// Is makes errors.Is(err, ErrInvalidSchemaType) hold.
func (e *InvalidTypeError) Is(target error) bool {
	return target == ErrInvalidSchemaType
}

func (e *InvalidTypeError) Unwrap() error {
	return e.Err
}

func invalidType(key string, value any, format string, args ...any) error {
	return &InvalidTypeError{
		Key:    key,
		Reason: fmt.Sprintf(format, args...),
		Value:  value,
	}
}
