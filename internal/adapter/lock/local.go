package lock

import (
	"context"
	"sync"
	"time"

	domain "tuichain-backend/internal/domain/lock"
)

// Local is an in-process Locker for single-instance deployments and tests.
// The ttl is ignored: a lock is held until released.
type Local struct {
	mu      sync.Mutex
	held    map[string]chan struct{}
	maxWait time.Duration
}

var _ domain.Locker = (*Local)(nil)

func NewLocal(maxWait time.Duration) *Local {
	return &Local{held: make(map[string]chan struct{}), maxWait: maxWait}
}

func (l *Local) Acquire(ctx context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()
	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			mine := make(chan struct{})
			l.held[key] = mine
			l.mu.Unlock()
			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(mine)
				})
				return nil
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, domain.ErrNotAcquired
		}
	}
}
