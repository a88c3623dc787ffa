package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock acquired from a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes schema writes across replicas sharing one SchemaStore.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The returned UnlockFunc must be called to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
