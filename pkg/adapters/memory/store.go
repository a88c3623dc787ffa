package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
)

// Store implements ports.SchemaStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]schema.Ordered
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with schemas.
func NewStore(seed ...map[string]schema.Ordered) *Store {
	s := &Store{
		data: make(map[string]schema.Ordered),
	}
	for _, m := range seed {
		for name, data := range m {
			s.data[name] = clone(data).(schema.Ordered)
		}
	}
	return s
}

// Save stores a copy of the schema data.
func (s *Store) Save(ctx context.Context, name string, data schema.Ordered) error {
	copied := clone(data).(schema.Ordered)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = copied
	return nil
}

// Load returns a copy of the stored schema data, so callers cannot mutate
// the catalogue through it.
func (s *Store) Load(ctx context.Context, name string) (schema.Ordered, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[name]
	if !ok {
		return nil, domain.ErrSchemaNotFound
	}
	return clone(data).(schema.Ordered), nil
}

// Delete removes the schema.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns the stored schema names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.data)), nil
}

func clone(v any) any {
	switch t := v.(type) {
	case schema.Ordered:
		out := make(schema.Ordered, len(t))
		for i, e := range t {
			out[i] = schema.Entry{Key: e.Key, Value: clone(e.Value)}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = clone(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = clone(item)
		}
		return out
	}
	return v
}
