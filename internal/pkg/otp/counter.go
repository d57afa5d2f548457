package otp

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTimeStep is the TOTP interval used by authenticator apps.
const DefaultTimeStep int64 = 30

// ErrInvalidCounter is returned for a non-positive time step or a negative start time.
var ErrInvalidCounter = errors.New("otp: invalid counter")

// Counter maps a time in seconds since the epoch to a passcode state.
type Counter struct {
	timeStep  int64
	startTime int64
}

// NewCounter returns a Counter with the given step and start time, both in seconds.
func NewCounter(timeStep, startTime int64) (Counter, error) {
	if timeStep <= 0 {
		return Counter{}, fmt.Errorf("%w: time step %d", ErrInvalidCounter, timeStep)
	}
	if startTime < 0 {
		return Counter{}, fmt.Errorf("%w: start time %d", ErrInvalidCounter, startTime)
	}

	return Counter{timeStep: timeStep, startTime: startTime}, nil
}

// TimeStep returns the counter step in seconds.
func (c Counter) TimeStep() int64 {
	return c.timeStep
}

// StartTime returns the counter epoch in seconds.
func (c Counter) StartTime() int64 {
	return c.startTime
}

// ValueAt returns the state at t seconds since the epoch.
//
// It panics if t is negative.
func (c Counter) ValueAt(t int64) int64 {
	if t < 0 {
		panic(fmt.Sprintf("otp: negative time %d", t))
	}

	d := t - c.startTime
	if d >= 0 {
		return d / c.timeStep
	}

	// floor for negative dividends; Go division truncates toward zero
	return (d - (c.timeStep - 1)) / c.timeStep
}

// ValueAtTime is ValueAt for a time.Time.
func (c Counter) ValueAtTime(t time.Time) int64 {
	return c.ValueAt(t.Unix())
}

// StartTimeOf returns the first second, since the epoch, of state value.
func (c Counter) StartTimeOf(value int64) int64 {
	return c.startTime + value*c.timeStep
}
