package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/simkernel/sim/trace"
)

// State is the replication lifecycle of an Executive.
type State int

const (
	// StateCreated is a new executive that has never been initialized.
	StateCreated State = iota
	// StateInitialized has a reset clock and calendar but has not executed an event.
	StateInitialized
	// StateRunning is executing events before the warm-up marker.
	StateRunning
	// StateWarmedUp is executing events after the warm-up marker.
	StateWarmedUp
	// StateEnded has finished the replication; Initialize starts a new one.
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateWarmedUp:
		return "warmed-up"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EndReason records why the run loop stopped.
type EndReason string

const (
	// EndNone means the replication has not ended.
	EndNone EndReason = ""
	// EndCalendarEmpty means no live events were left.
	EndCalendarEmpty EndReason = "calendar-empty"
	// EndLengthReached means the end-of-replication marker fired.
	EndLengthReached EndReason = "length-reached"
	// EndStopped means an action called Stop.
	EndStopped EndReason = "stopped"
	// EndCanceled means the context passed to RunContext was done.
	EndCanceled EndReason = "canceled"
	// EndFailed means an action aborted or the clock went backwards.
	EndFailed EndReason = "failed"
)

// Executive owns the simulation clock and the event calendar of one replication
// and drives the event loop. It is single-threaded: actions run one at a time to
// completion, and may schedule or cancel events but must not call Run or Step.
//
// Thread-safety: NOT thread-safe. Parallel replications need one Executive each.
type Executive struct {
	cfg      ExecutiveConfig
	clock    float64
	calendar *Calendar
	state    State
	nextSeq  uint64
	model    Model
	tracer   *trace.EventTrace

	warmedUp  bool
	executed  int64
	skipped   int64
	stopped   bool
	stopNote  string
	abortErr  error
	endReason EndReason
}

// NewExecutive creates an Executive in StateCreated.
func NewExecutive(cfg ExecutiveConfig) (*Executive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Executive{
		cfg:      cfg,
		calendar: NewCalendar(),
		state:    StateCreated,
	}, nil
}

// Now returns the current simulation time.
func (x *Executive) Now() float64 { return x.clock }

// State returns the lifecycle state.
func (x *Executive) State() State { return x.state }

// WarmedUp reports whether the warm-up marker has fired in this replication.
func (x *Executive) WarmedUp() bool { return x.warmedUp }

// EndReason returns why the last run stopped (EndNone while running).
func (x *Executive) EndReason() EndReason { return x.endReason }

// EventsExecuted returns the number of actions run in this replication, markers included.
func (x *Executive) EventsExecuted() int64 { return x.executed }

// EventsSkipped returns the number of canceled events discarded by the pop loop.
func (x *Executive) EventsSkipped() int64 { return x.skipped }

// Calendar gives collaborators read access to pending events. Inserting events
// directly bypasses delay validation; the run loop still rejects clock reversals.
func (x *Executive) Calendar() *Calendar { return x.calendar }

// Config returns the replication boundaries.
func (x *Executive) Config() ExecutiveConfig { return x.cfg }

// SetTracer attaches an execution trace (nil detaches).
func (x *Executive) SetTracer(t *trace.EventTrace) { x.tracer = t }

// Tracer returns the attached trace, possibly nil.
func (x *Executive) Tracer() *trace.EventTrace { return x.tracer }

// Schedule places action on the calendar delay time units from now.
//
// A negative delay fails with ErrNegativeDelay and NaN or -Inf with
// ErrNonFiniteDelay. A delay of Never (+Inf) means the event never happens: the
// returned handle is already canceled and nothing is added to the calendar.
func (x *Executive) Schedule(delay float64, action Action, opts ...EventOption) (*Event, error) {
	switch {
	case math.IsNaN(delay) || math.IsInf(delay, -1):
		return nil, fmt.Errorf("%w: %v", ErrNonFiniteDelay, delay)
	case delay < 0:
		return nil, fmt.Errorf("%w: %v at t=%v", ErrNegativeDelay, delay, x.clock)
	}
	t := x.clock + delay
	if math.IsInf(t, 1) && !math.IsInf(delay, 1) {
		return nil, fmt.Errorf("%w: delay %v overflows at t=%v", ErrNonFiniteDelay, delay, x.clock)
	}
	return x.schedule(t, action, opts)
}

// ScheduleAt places action on the calendar at absolute time t >= Now().
func (x *Executive) ScheduleAt(t float64, action Action, opts ...EventOption) (*Event, error) {
	switch {
	case math.IsNaN(t) || math.IsInf(t, -1):
		return nil, fmt.Errorf("%w: time %v", ErrNonFiniteDelay, t)
	case t < x.clock:
		return nil, fmt.Errorf("%w: time %v is before t=%v", ErrNegativeDelay, t, x.clock)
	}
	return x.schedule(t, action, opts)
}

func (x *Executive) schedule(t float64, action Action, opts []EventOption) (*Event, error) {
	if action == nil {
		return nil, ErrNilAction
	}
	x.nextSeq++
	e := &Event{
		time:     t,
		priority: DefaultPriority,
		seq:      x.nextSeq,
		action:   action,
	}
	for _, opt := range opts {
		opt(e)
	}
	if math.IsInf(t, 1) {
		e.canceled = true
		return e, nil
	}
	x.calendar.Add(e)
	return e, nil
}

// Cancel marks e so that it never executes. Canceling an executed event is a no-op.
func (x *Executive) Cancel(e *Event) {
	x.calendar.Cancel(e)
}

// Stop ends the replication once the current action returns. End-of-replication
// hooks still run.
func (x *Executive) Stop(reason string) {
	x.stopped = true
	x.stopNote = reason
}

// Abort ends the replication with err once the current action returns. Run and
// Step return err; end-of-replication hooks do not run.
func (x *Executive) Abort(err error) {
	if err != nil && x.abortErr == nil {
		x.abortErr = err
	}
}

// Initialize resets the clock and calendar, schedules the warm-up and
// end-of-replication markers, and calls model.Initialize.
func (x *Executive) Initialize(model Model) error {
	if x.state == StateRunning || x.state == StateWarmedUp {
		return fmt.Errorf("%w: Initialize called while %s", ErrNotRunnable, x.state)
	}
	if model == nil {
		model = ModelFuncs{}
	}
	x.clock = 0
	x.calendar.Clear()
	x.nextSeq = 0
	x.model = model
	x.warmedUp = false
	x.executed = 0
	x.skipped = 0
	x.stopped = false
	x.stopNote = ""
	x.abortErr = nil
	x.endReason = EndNone
	x.state = StateInitialized

	if x.cfg.WarmUpLength > 0 {
		if _, err := x.ScheduleAt(x.cfg.WarmUpLength, (*Executive).warmUp,
			WithPriority(WarmUpPriority), WithName("warm-up")); err != nil {
			return err
		}
	}
	if x.cfg.Bounded() {
		if _, err := x.ScheduleAt(x.cfg.ReplicationLength, (*Executive).endReplication,
			WithPriority(EndReplicationPriority), WithName("end-replication"), lastAtTime); err != nil {
			return err
		}
	}

	if err := model.Initialize(x); err != nil {
		x.state = StateEnded
		x.endReason = EndFailed
		return fmt.Errorf("sim: model initialization: %w", err)
	}
	logrus.Debugf("[t=%.4f] Replication initialized with %d pending events", x.clock, x.calendar.Len())
	return nil
}

// ctxCheckInterval is the number of events executed between context checks.
const ctxCheckInterval = 1024

// Run initializes the replication and executes events until the calendar empties,
// the replication length is reached, Stop is called, or an action aborts.
func (x *Executive) Run(model Model) error {
	if err := x.Initialize(model); err != nil {
		return err
	}
	return x.RunToEnd()
}

// RunContext is Run that also ends when ctx is done. The context is checked
// every ctxCheckInterval events; on cancellation the replication ends with
// EndCanceled, end-of-replication hooks do not run, and ctx.Err() is returned.
func (x *Executive) RunContext(ctx context.Context, model Model) error {
	if err := x.Initialize(model); err != nil {
		return err
	}
	for i := 0; x.state != StateEnded; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				x.state = StateEnded
				x.endReason = EndCanceled
				logrus.Warnf("[t=%.4f] Replication canceled after %d events: %v", x.clock, x.executed, err)
				return err
			}
		}
		if _, err := x.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunToEnd continues an initialized replication until it ends.
func (x *Executive) RunToEnd() error {
	for x.state != StateEnded {
		if _, err := x.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes the next live event. It returns false once the replication has ended.
func (x *Executive) Step() (bool, error) {
	switch x.state {
	case StateInitialized:
		x.state = StateRunning
	case StateRunning, StateWarmedUp:
	case StateEnded:
		return false, nil
	default:
		return false, fmt.Errorf("%w: Step called while %s", ErrNotRunnable, x.state)
	}

	if x.stopped {
		x.finish(EndStopped)
		return false, nil
	}

	e, ok := x.nextLive()
	if !ok {
		x.finish(EndCalendarEmpty)
		return false, nil
	}
	if e.time < x.clock {
		err := fmt.Errorf("%w: %s popped at t=%v", ErrClockReversal, e, x.clock)
		x.fail(err)
		return false, err
	}
	if x.cfg.Bounded() && e.time > x.cfg.ReplicationLength {
		// only reachable when the end marker was removed by direct calendar access
		x.clock = x.cfg.ReplicationLength
		x.finish(EndLengthReached)
		return false, nil
	}

	x.clock = e.time
	e.executed = true
	x.executed++
	x.tracer.RecordEvent(trace.EventRecord{Clock: e.time, Priority: e.priority, Sequence: e.seq, Name: e.name})
	logrus.Debugf("[t=%12.4f] Executing %s", x.clock, e)

	e.action(x, e)

	if x.abortErr != nil {
		err := x.abortErr
		x.fail(err)
		return false, err
	}
	if x.stopped && x.state != StateEnded {
		x.finish(EndStopped)
	}
	return x.state != StateEnded, nil
}

// nextLive pops events until a non-canceled one is found.
func (x *Executive) nextLive() (*Event, bool) {
	for {
		e, ok := x.calendar.Next()
		if !ok {
			return nil, false
		}
		if !e.canceled {
			return e, true
		}
		x.skipped++
		x.tracer.RecordEvent(trace.EventRecord{Clock: e.time, Priority: e.priority, Sequence: e.seq, Name: e.name, Canceled: true})
	}
}

func (x *Executive) warmUp(_ *Event) {
	x.warmedUp = true
	x.state = StateWarmedUp
	logrus.Debugf("[t=%.4f] Warm-up period ended", x.clock)
	x.model.WarmUp(x)
}

func (x *Executive) endReplication(_ *Event) {
	x.finish(EndLengthReached)
}

func (x *Executive) finish(reason EndReason) {
	if x.state == StateEnded {
		return
	}
	x.state = StateEnded
	x.endReason = reason
	if reason == EndStopped && x.stopNote != "" {
		logrus.Infof("[t=%.4f] Replication stopped: %s", x.clock, x.stopNote)
	}
	logrus.Debugf("[t=%.4f] Replication ended (%s) after %d events", x.clock, reason, x.executed)
	x.model.EndReplication(x)
}

func (x *Executive) fail(err error) {
	x.state = StateEnded
	x.endReason = EndFailed
	logrus.Errorf("[t=%.4f] Replication aborted: %v", x.clock, err)
}
