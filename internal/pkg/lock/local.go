package lock

import (
	"context"
	"sync"
)

// Local is an in-process Locker.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (l *Local) tryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *Local) unlock(key string) {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
}

// Exec runs fn holding key. The TTL option does not apply in process.
func (l *Local) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := newExecOptions(opts)

	if err := acquire(ctx, o.wait, func(context.Context) (bool, error) {
		return l.tryLock(key), nil
	}); err != nil {
		return err
	}
	defer l.unlock(key)

	return fn(ctx)
}
