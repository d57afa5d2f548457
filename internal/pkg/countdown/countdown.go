// Package countdown notifies listeners about the time left until the next
// TOTP state change.
package countdown

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shandysiswandi/authvault/internal/pkg/clock"
	"github.com/shandysiswandi/authvault/internal/pkg/otp"
	"go.uber.org/atomic"
)

// DefaultPeriod is the poll period used when Config.Period is zero.
const DefaultPeriod = 100 * time.Millisecond

var (
	// ErrStopped is returned by Start on a scheduler that was stopped.
	ErrStopped = errors.New("countdown: scheduler stopped")
	// ErrStarted is returned by Start on a scheduler that is already running.
	ErrStarted = errors.New("countdown: scheduler already started")
	// ErrNoListener is returned by New without a listener.
	ErrNoListener = errors.New("countdown: listener is required")
	// ErrRejected is returned by Start when the Runner refuses the poll loop.
	ErrRejected = errors.New("countdown: runner rejected scheduler")
)

// Listener receives scheduler notifications. Callbacks run on the
// scheduler goroutine and must not block or call Stop.
type Listener interface {
	// CounterChanged is called once for every new counter value.
	CounterChanged(value int64)
	// TimeRemaining is called on every tick with the time left in the current value.
	TimeRemaining(remaining time.Duration)
}

// Runner starts background work, e.g. *goroutine.Manager. Go reports
// false when f will never run.
type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error) bool
}

// Config configures a Scheduler.
type Config struct {
	Counter  otp.Counter
	Clock    clock.Clocker
	Period   time.Duration
	Listener Listener
	Runner   Runner
}

// Scheduler polls a counter and notifies its listener. It is single use:
// once stopped it cannot be started again.
type Scheduler struct {
	counter  otp.Counter
	clock    clock.Clocker
	period   time.Duration
	listener Listener
	runner   Runner

	started *atomic.Bool
	stopped *atomic.Bool
	stopCh  chan struct{}
	once    sync.Once

	// mu is held while callbacks run
	mu      sync.Mutex
	hasLast bool
	last    int64
}

// New returns a Scheduler for cfg.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Listener == nil {
		return nil, ErrNoListener
	}
	if cfg.Counter.TimeStep() <= 0 {
		return nil, otp.ErrInvalidCounter
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}

	return &Scheduler{
		counter:  cfg.Counter,
		clock:    cfg.Clock,
		period:   cfg.Period,
		listener: cfg.Listener,
		runner:   cfg.Runner,
		started:  atomic.NewBool(false),
		stopped:  atomic.NewBool(false),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start notifies the listener immediately and then once per period until
// Stop is called or ctx is done. A refused Runner leaves the scheduler
// unstarted and returns ErrRejected.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	if !s.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	if s.runner != nil {
		if !s.runner.Go(ctx, s.run) {
			s.started.Store(false)
			return ErrRejected
		}
		return nil
	}

	go func() {
		//nolint:errcheck // run never fails
		s.run(ctx)
	}()

	return nil
}

// Stop ends the scheduler. No callback runs after Stop returns.
// It is safe to call from any goroutine and more than once.
func (s *Scheduler) Stop() {
	s.stopped.Store(true)
	s.once.Do(func() { close(s.stopCh) })

	// wait for an in-flight tick
	s.mu.Lock()
	//nolint:staticcheck // empty critical section is the barrier
	s.mu.Unlock()
}

// Stopped reports whether Stop was called.
func (s *Scheduler) Stopped() bool {
	return s.stopped.Load()
}

func (s *Scheduler) run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.tick()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped.Load() {
		return
	}

	now := s.clock.Now()
	value := s.counter.ValueAtTime(now)
	if !s.hasLast || value != s.last {
		s.hasLast = true
		s.last = value
		s.listener.CounterChanged(value)
	}

	next := time.Unix(s.counter.StartTimeOf(value+1), 0)
	s.listener.TimeRemaining(next.Sub(now))
}
