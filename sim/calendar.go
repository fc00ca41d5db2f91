package sim

import "container/heap"

// eventQueue implements heap.Interface over the event total order.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventQueue []*Event

func (q eventQueue) Len() int           { return len(q) }
func (q eventQueue) Less(i, j int) bool { return q[i].before(q[j]) }
func (q eventQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(*Event))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Calendar is the ordered container of pending events.
//
// Cancellation is lazy: a canceled event stays in the heap as a tombstone until it
// is popped, so Len and IsEmpty count canceled-but-unpopped events. Callers that
// pop must discard canceled events themselves; the Executive does.
type Calendar struct {
	events   eventQueue
	canceled int
}

// NewCalendar creates an empty calendar.
func NewCalendar() *Calendar {
	c := &Calendar{events: make(eventQueue, 0)}
	heap.Init(&c.events)
	return c
}

// Add inserts an event in O(log n).
func (c *Calendar) Add(e *Event) {
	e.queued = true
	heap.Push(&c.events, e)
	if e.canceled {
		c.canceled++
	}
}

// Next removes and returns the minimum event, canceled or not.
// The second result is false when the calendar is empty.
func (c *Calendar) Next() (*Event, bool) {
	if len(c.events) == 0 {
		return nil, false
	}
	e := heap.Pop(&c.events).(*Event)
	e.queued = false
	if e.canceled {
		c.canceled--
	}
	return e, true
}

// Peek returns the minimum event without removing it.
func (c *Calendar) Peek() (*Event, bool) {
	if len(c.events) == 0 {
		return nil, false
	}
	return c.events[0], true
}

// Cancel marks e canceled in O(1). It is a no-op for events that already executed
// or were already canceled.
func (c *Calendar) Cancel(e *Event) {
	if e == nil || e.canceled || e.executed {
		return
	}
	e.canceled = true
	if e.queued {
		c.canceled++
	}
}

// Clear discards every event. The calendar stays usable.
func (c *Calendar) Clear() {
	for i := range c.events {
		c.events[i].queued = false
		c.events[i] = nil
	}
	c.events = c.events[:0]
	c.canceled = 0
}

// Len returns the physical number of events, including canceled tombstones.
func (c *Calendar) Len() int { return len(c.events) }

// IsEmpty reports whether no events, live or canceled, remain.
func (c *Calendar) IsEmpty() bool { return len(c.events) == 0 }

// Canceled returns the number of tombstones currently held.
func (c *Calendar) Canceled() int { return c.canceled }
