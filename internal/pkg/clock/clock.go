package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Corrected shifts a base clock by an offset that is read on every call,
// so a reloaded setting takes effect without rebuilding the clock.
type Corrected struct {
	base   Clocker
	offset func() time.Duration
}

// NewCorrected returns a clock reporting base.Now() plus offset().
// A nil base uses the system clock and a nil offset means no correction.
func NewCorrected(base Clocker, offset func() time.Duration) *Corrected {
	if base == nil {
		base = New()
	}
	if offset == nil {
		offset = func() time.Duration { return 0 }
	}

	return &Corrected{base: base, offset: offset}
}

// Now returns the corrected time.
func (c *Corrected) Now() time.Time {
	return c.base.Now().Add(c.offset())
}
