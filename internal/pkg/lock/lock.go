// Package lock serializes work on a key, in process or across processes
// through Redis.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

var (
	// ErrNotAcquired is returned when the lock is still held after the wait.
	ErrNotAcquired = errors.New("lock not acquired")
	// ErrUnknownDriver is returned by NewFromDriver.
	ErrUnknownDriver = errors.New("unknown lock driver")
)

const (
	DriverLocal = "local"
	DriverRedis = "redis"
)

const (
	defaultTTL       = 10 * time.Second
	defaultWait      = 3 * time.Second
	defaultRetryStep = 25 * time.Millisecond
)

// Locker runs fn while holding the lock for key.
type Locker interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

type Option func(*execOptions)

type execOptions struct {
	ttl  time.Duration
	wait time.Duration
}

// WithTTL bounds how long a crashed holder keeps the lock.
func WithTTL(ttl time.Duration) Option {
	return func(o *execOptions) {
		o.ttl = ttl
	}
}

// WithWait bounds how long Exec waits for a held lock; zero tries once.
func WithWait(wait time.Duration) Option {
	return func(o *execOptions) {
		o.wait = wait
	}
}

func newExecOptions(opts []Option) *execOptions {
	o := &execOptions{ttl: defaultTTL, wait: defaultWait}
	for _, opt := range opts {
		opt(o)
	}
	if o.ttl <= 0 {
		o.ttl = defaultTTL
	}
	if o.wait < 0 {
		o.wait = 0
	}
	return o
}

// acquire calls try until it succeeds or the wait is over.
func acquire(ctx context.Context, wait time.Duration, try func(ctx context.Context) (bool, error)) error {
	b := retry.NewConstant(defaultRetryStep)
	b = retry.WithMaxDuration(wait, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(ErrNotAcquired)
		}
		return nil
	})
}
