// Package middleware decorates schema catalogues with extra behavior
// (read-only guards, caching) without touching the backends.
package middleware

import "github.com/aretw0/conform/pkg/ports"

// Middleware allows wrapping a SchemaStore to add behavior.
type Middleware func(ports.SchemaStore) ports.SchemaStore

// Chain wraps store so that the first middleware is the outermost.
func Chain(store ports.SchemaStore, mws ...Middleware) ports.SchemaStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
