package conform

import (
	"context"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
)

// Finding is a single validation problem.
type Finding = domain.Finding

// Type markers for schema declarations.
var (
	String   = schema.String
	Number   = schema.Number
	Boolean  = schema.Boolean
	Date     = schema.Date
	Array    = schema.Array
	Object   = schema.Object
	Function = schema.Function
)

// Severities.
const (
	SeverityError   = domain.SeverityError
	SeverityWarning = domain.SeverityWarning
)

// ErrShapeMismatch is matched by errors from Normalize when the document's
// structure contradicts the schema.
var ErrShapeMismatch = domain.ErrShapeMismatch

// ErrInvalidSchemaType is matched by errors from schemas that cannot be parsed.
var ErrInvalidSchemaType = schema.ErrInvalidSchemaType

// OneOfType declares a field that accepts any of the given types. The first
// candidate whose type matches the value is used.
func OneOfType(types ...any) *schema.Union {
	return schema.OneOfType(types...)
}

var std, _ = New()

// Validate checks doc against s with default settings.
func Validate(s any, doc map[string]any) ([]Finding, error) {
	return std.Validate(context.Background(), s, doc)
}

// Normalize renames aliased keys in doc with default settings.
func Normalize(s any, doc map[string]any) (map[string]any, error) {
	return std.Normalize(context.Background(), s, doc)
}
