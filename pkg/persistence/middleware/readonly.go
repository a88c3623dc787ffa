package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/ports"
	"github.com/aretw0/conform/pkg/schema"
)

type readOnlyMiddleware struct {
	next ports.SchemaStore
}

// NewReadOnlyMiddleware rejects Save and Delete with domain.ErrReadOnly.
func NewReadOnlyMiddleware() Middleware {
	return func(next ports.SchemaStore) ports.SchemaStore {
		return &readOnlyMiddleware{next: next}
	}
}

func (m *readOnlyMiddleware) Save(ctx context.Context, name string, data schema.Ordered) error {
	return fmt.Errorf("save %s: %w", name, domain.ErrReadOnly)
}

func (m *readOnlyMiddleware) Load(ctx context.Context, name string) (schema.Ordered, error) {
	return m.next.Load(ctx, name)
}

func (m *readOnlyMiddleware) Delete(ctx context.Context, name string) error {
	return fmt.Errorf("delete %s: %w", name, domain.ErrReadOnly)
}

func (m *readOnlyMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
