package sim

import (
	"fmt"
	"math"
)

// Priorities for events scheduled at the same time. Lower values run first.
const (
	// WarmUpPriority runs the warm-up marker ahead of ordinary events at the same time.
	WarmUpPriority int32 = 5
	// DefaultPriority is used when Schedule is called without WithPriority.
	DefaultPriority int32 = 10
	// EndReplicationPriority is the priority reported by the end-of-replication
	// marker. The marker sorts after every other event at the same time, whatever
	// their priority.
	EndReplicationPriority int32 = math.MaxInt32
)

// Never is the delay sentinel for "this never completes". Scheduling with it
// returns a handle that is already canceled and is not placed on the calendar.
var Never = math.Inf(1)

// Action is the logic an event runs when the executive pops it.
type Action func(exec *Executive, e *Event)

// Event is a scheduled (time, action) pair. Time, priority and sequence are fixed
// at creation; only the canceled flag changes afterwards.
type Event struct {
	time     float64
	priority int32
	seq      uint64
	action   Action
	name     string
	message  any

	canceled bool
	executed bool
	queued   bool // physically held by a calendar
	last     bool // end marker: after every same-time event
}

// EventOption customizes an event at scheduling time.
type EventOption func(*Event)

// WithPriority sets the tie-break priority for events at the same time.
func WithPriority(p int32) EventOption {
	return func(e *Event) { e.priority = p }
}

// WithMessage attaches an arbitrary payload to the event.
func WithMessage(msg any) EventOption {
	return func(e *Event) { e.message = msg }
}

// WithName labels the event for logs and traces.
func WithName(name string) EventOption {
	return func(e *Event) { e.name = name }
}

// Time returns the scheduled simulation time.
func (e *Event) Time() float64 { return e.time }

// Priority returns the tie-break priority.
func (e *Event) Priority() int32 { return e.priority }

// Sequence returns the creation order within the replication.
func (e *Event) Sequence() uint64 { return e.seq }

// Name returns the event label (may be empty).
func (e *Event) Name() string { return e.name }

// Message returns the attached payload (may be nil).
func (e *Event) Message() any { return e.message }

// Canceled reports whether the event was canceled before execution.
func (e *Event) Canceled() bool { return e.canceled }

// Executed reports whether the event's action has run.
func (e *Event) Executed() bool { return e.executed }

// Pending reports whether the event may still execute.
func (e *Event) Pending() bool { return !e.canceled && !e.executed }

// before is the calendar's total order: time, then the end marker last, then
// priority, then sequence.
func (e *Event) before(o *Event) bool {
	if e.time != o.time {
		return e.time < o.time
	}
	if e.last != o.last {
		return o.last
	}
	if e.priority != o.priority {
		return e.priority < o.priority
	}
	return e.seq < o.seq
}

// lastAtTime marks the end-of-replication marker.
func lastAtTime(e *Event) { e.last = true }

func (e *Event) String() string {
	name := e.name
	if name == "" {
		name = "event"
	}
	return fmt.Sprintf("%s#%d(t=%g, pri=%d)", name, e.seq, e.time, e.priority)
}
