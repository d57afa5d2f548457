// Package clock provides a tiny time abstraction.
//
// Production code depends on the Clocker interface instead of calling
// time.Now() directly, so passcode logic can be tested with a fixed time and
// a user-provided correction can be applied in one place.
package clock
