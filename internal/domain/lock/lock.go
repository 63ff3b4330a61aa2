package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the key stays held for the whole wait.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out mutually exclusive, expiring locks by key.
type Locker interface {
	// Acquire blocks until key is held or ctx is done. The returned release
	// func only frees the lock if it is still owned by this caller.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
