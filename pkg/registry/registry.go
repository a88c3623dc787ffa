package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/conform/pkg/schema"
)

// ErrCallbackNotFound is returned when a schema names a callback that was
// never registered.
var ErrCallbackNotFound = errors.New("callback not found")

// Registry manages named test and warn callbacks, so that schemas stored as
// plain data (YAML, JSON, Redis) can refer to Go code by name.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]schema.TestFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]schema.TestFunc),
	}
}

// Register adds a callback to the registry.
// If a callback with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn schema.TestFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup returns the callback registered under name.
func (r *Registry) Lookup(name string) (schema.TestFunc, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCallbackNotFound, name)
	}
	return fn, nil
}

// Names lists registered callbacks in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve implements schema.CallbackResolver for callback names.
func (r *Registry) Resolve(spec any) (schema.TestFunc, error) {
	name, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("callback reference must be a name, got %T", spec)
	}
	return r.Lookup(name)
}
