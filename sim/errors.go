package sim

import "errors"

var (
	// ErrNegativeDelay is returned when an event is scheduled before the current time.
	ErrNegativeDelay = errors.New("sim: negative scheduling delay")
	// ErrNonFiniteDelay is returned for NaN or -Inf scheduling delays.
	ErrNonFiniteDelay = errors.New("sim: non-finite scheduling delay")
	// ErrClockReversal is returned when the calendar yields an event earlier than the clock.
	ErrClockReversal = errors.New("sim: event time precedes simulation clock")
	// ErrInvalidConfig is returned for executive configuration errors.
	ErrInvalidConfig = errors.New("sim: invalid configuration")
	// ErrNotRunnable is returned when Run or Step is called in a state that does not allow it.
	ErrNotRunnable = errors.New("sim: executive not runnable")
	// ErrNilAction is returned when an event is scheduled without an action.
	ErrNilAction = errors.New("sim: nil event action")
)
