package ports

import (
	"context"

	"github.com/aretw0/conform/pkg/schema"
)

// SchemaStore defines the interface for a named schema catalogue.
// Schemas are stored as plain data; callbacks are kept as names or
// expressions and resolved when the schema is parsed.
type SchemaStore interface {
	// Save persists the schema under name, replacing any previous version.
	Save(ctx context.Context, name string, data schema.Ordered) error

	// Load retrieves the schema stored under name.
	// Returns domain.ErrSchemaNotFound if the schema does not exist.
	Load(ctx context.Context, name string) (schema.Ordered, error)

	// Delete removes the schema stored under name.
	Delete(ctx context.Context, name string) error

	// List returns the stored schema names in sorted order.
	List(ctx context.Context) ([]string, error)
}
