package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/conform/pkg/ports"
	"github.com/aretw0/conform/pkg/schema"
)

type cacheEntry struct {
	data    schema.Ordered
	expires time.Time
}

type cacheMiddleware struct {
	next ports.SchemaStore
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCacheMiddleware keeps loaded schemas in memory for ttl. Writes through
// the wrapped store invalidate the entry; writes made by other processes
// become visible once it expires.
func NewCacheMiddleware(ttl time.Duration) Middleware {
	return func(next ports.SchemaStore) ports.SchemaStore {
		return &cacheMiddleware{
			next:    next,
			ttl:     ttl,
			now:     time.Now,
			entries: make(map[string]cacheEntry),
		}
	}
}

func (m *cacheMiddleware) Save(ctx context.Context, name string, data schema.Ordered) error {
	m.forget(name)
	return m.next.Save(ctx, name, data)
}

func (m *cacheMiddleware) Load(ctx context.Context, name string) (schema.Ordered, error) {
	m.mu.Lock()
	entry, ok := m.entries[name]
	m.mu.Unlock()
	if ok && m.now().Before(entry.expires) {
		return cloneOrdered(entry.data), nil
	}

	data, err := m.next.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.entries[name] = cacheEntry{data: cloneOrdered(data), expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return data, nil
}

func (m *cacheMiddleware) Delete(ctx context.Context, name string) error {
	m.forget(name)
	return m.next.Delete(ctx, name)
}

func (m *cacheMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *cacheMiddleware) forget(name string) {
	m.mu.Lock()
	delete(m.entries, name)
	m.mu.Unlock()
}

func cloneOrdered(o schema.Ordered) schema.Ordered {
	out := make(schema.Ordered, len(o))
	for i, e := range o {
		out[i] = schema.Entry{Key: e.Key, Value: cloneValue(e.Value)}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case schema.Ordered:
		return cloneOrdered(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	}
	return v
}
