package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/simkernel/sim/rng"
	"github.com/inference-sim/simkernel/sim/trace"
)

func mustExecutive(t *testing.T, cfg ExecutiveConfig) *Executive {
	t.Helper()
	exec, err := NewExecutive(cfg)
	require.NoError(t, err)
	return exec
}

// initModel returns a Model whose Initialize runs fn.
func initModel(fn func(exec *Executive) error) Model {
	return ModelFuncs{InitializeFunc: fn}
}

// TestExecutive_PopOrderScenario schedules t=10/p5, t=10/p1, t=5/p5 from t=0
// and expects 5/5, 10/1, 10/5.
func TestExecutive_PopOrderScenario(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())

	type popped struct {
		time float64
		pri  int32
	}
	var got []popped
	record := func(x *Executive, e *Event) {
		got = append(got, popped{x.Now(), e.Priority()})
	}

	err := exec.Run(initModel(func(x *Executive) error {
		for _, s := range []struct {
			delay float64
			pri   int32
		}{{10, 5}, {10, 1}, {5, 5}} {
			if _, err := x.Schedule(s.delay, record, WithPriority(s.pri)); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, err)
	assert.Equal(t, []popped{{5, 5}, {10, 1}, {10, 5}}, got)
	assert.Equal(t, EndCalendarEmpty, exec.EndReason())
	assert.Equal(t, StateEnded, exec.State())
}

// TestExecutive_FIFOAmongEqualTimeAndPriority verifies creation order breaks ties,
// including events scheduled from inside an action at the current time.
func TestExecutive_FIFOAmongEqualTimeAndPriority(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	var order []string
	mark := func(name string) Action {
		return func(*Executive, *Event) { order = append(order, name) }
	}

	err := exec.Run(initModel(func(x *Executive) error {
		_, _ = x.Schedule(1, func(x *Executive, _ *Event) {
			order = append(order, "a")
			_, _ = x.Schedule(0, mark("a-child"))
		})
		_, _ = x.Schedule(1, mark("b"))
		_, _ = x.Schedule(1, mark("c"))
		return nil
	}))

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "a-child"}, order)
}

func TestExecutive_Schedule_RejectsInvalidDelays(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	require.NoError(t, exec.Initialize(nil))

	tests := []struct {
		name  string
		delay float64
		want  error
	}{
		{"negative", -1, ErrNegativeDelay},
		{"tiny negative", -1e-12, ErrNegativeDelay},
		{"NaN", math.NaN(), ErrNonFiniteDelay},
		{"negative infinity", math.Inf(-1), ErrNonFiniteDelay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := exec.Schedule(tt.delay, noop)
			assert.Nil(t, e)
			if !errors.Is(err, tt.want) {
				t.Errorf("Schedule(%v) error = %v, want %v", tt.delay, err, tt.want)
			}
		})
	}
	assert.Equal(t, 0, exec.Calendar().Len(), "invalid delays must not reach the calendar")
}

// TestExecutive_Schedule_NeverSentinel verifies +Inf yields a canceled handle
// that is never placed on the calendar.
func TestExecutive_Schedule_NeverSentinel(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	require.NoError(t, exec.Initialize(nil))

	e, err := exec.Schedule(Never, noop, WithName("forever"))

	require.NoError(t, err)
	assert.True(t, e.Canceled())
	assert.False(t, e.Pending())
	assert.True(t, exec.Calendar().IsEmpty())
}

// TestExecutive_Schedule_OverflowingDelay verifies a finite delay whose sum with
// the clock overflows is rejected rather than treated as Never.
func TestExecutive_Schedule_OverflowingDelay(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	var e *Event
	var schedErr error

	err := exec.Run(initModel(func(x *Executive) error {
		_, err := x.ScheduleAt(math.MaxFloat64, func(x *Executive, _ *Event) {
			e, schedErr = x.Schedule(math.MaxFloat64, noop)
		})
		return err
	}))

	require.NoError(t, err)
	assert.Nil(t, e)
	assert.ErrorIs(t, schedErr, ErrNonFiniteDelay)
}

func TestExecutive_Schedule_NilAction(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	_, err := exec.Schedule(1, nil)
	assert.ErrorIs(t, err, ErrNilAction)
}

func TestExecutive_ScheduleAt(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	var at float64
	var lateErr error

	err := exec.Run(initModel(func(x *Executive) error {
		_, err := x.ScheduleAt(4, func(x *Executive, _ *Event) {
			at = x.Now()
			_, lateErr = x.ScheduleAt(3, noop)
		})
		return err
	}))

	require.NoError(t, err)
	assert.Equal(t, 4.0, at)
	assert.ErrorIs(t, lateErr, ErrNegativeDelay)
}

func TestExecutive_MessageAndName(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	var msg any
	var name string

	err := exec.Run(initModel(func(x *Executive) error {
		_, err := x.Schedule(1, func(_ *Executive, e *Event) {
			msg = e.Message()
			name = e.Name()
		}, WithMessage(42), WithName("payload"))
		return err
	}))

	require.NoError(t, err)
	assert.Equal(t, 42, msg)
	assert.Equal(t, "payload", name)
}

// TestExecutive_Cancel_BeforePop verifies a canceled event never runs and the
// pop loop discards it.
func TestExecutive_Cancel_BeforePop(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	ran := false

	err := exec.Run(initModel(func(x *Executive) error {
		victim, err := x.Schedule(5, func(*Executive, *Event) { ran = true })
		if err != nil {
			return err
		}
		_, err = x.Schedule(1, func(x *Executive, _ *Event) { x.Cancel(victim) })
		return err
	}))

	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, int64(1), exec.EventsExecuted())
	assert.Equal(t, int64(1), exec.EventsSkipped())
	assert.Equal(t, 1.0, exec.Now(), "the clock never advances to a canceled event")
}

func TestExecutive_Cancel_AfterExecutionIsNoop(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	var first *Event
	count := 0

	err := exec.Run(initModel(func(x *Executive) error {
		var err error
		first, err = x.Schedule(1, func(*Executive, *Event) { count++ })
		if err != nil {
			return err
		}
		_, err = x.Schedule(2, func(x *Executive, _ *Event) { x.Cancel(first) })
		return err
	}))

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, first.Executed())
	assert.False(t, first.Canceled())
}

// TestExecutive_ClockNeverDecreases drives a self-rescheduling model with random
// delays and checks the clock across consecutive pops.
func TestExecutive_ClockNeverDecreases(t *testing.T) {
	exec := mustExecutive(t, NewExecutiveConfig(500, 0))
	stream := rng.NewProvider().DefaultStream()
	last := -1.0
	violations := 0

	var tick Action
	tick = func(x *Executive, _ *Event) {
		if x.Now() < last {
			violations++
		}
		last = x.Now()
		_, _ = x.Schedule(-math.Log(stream.RandU01()), tick, WithPriority(int32(stream.RandInt(0, 3))))
	}

	err := exec.Run(initModel(func(x *Executive) error {
		for i := 0; i < 5; i++ {
			if _, err := x.Schedule(stream.RandU01(), tick); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, err)
	assert.Zero(t, violations)
	assert.Greater(t, exec.EventsExecuted(), int64(1000))
}

// TestExecutive_LengthBoundary verifies an event at exactly the length runs and
// one strictly after does not.
func TestExecutive_LengthBoundary(t *testing.T) {
	exec := mustExecutive(t, NewExecutiveConfig(100, 0))
	var ran []float64
	ended := 0
	model := ModelFuncs{
		InitializeFunc: func(x *Executive) error {
			for _, d := range []float64{50, 100, 100.0000001} {
				if _, err := x.Schedule(d, func(x *Executive, _ *Event) { ran = append(ran, x.Now()) }); err != nil {
					return err
				}
			}
			// lowest-urgency user priority still precedes the end marker
			_, err := x.Schedule(100, func(x *Executive, _ *Event) { ran = append(ran, -x.Now()) },
				WithPriority(EndReplicationPriority-1))
			return err
		},
		EndReplicationFunc: func(*Executive) { ended++ },
	}

	require.NoError(t, exec.Run(model))

	assert.Equal(t, []float64{50, 100, -100}, ran)
	assert.Equal(t, EndLengthReached, exec.EndReason())
	assert.Equal(t, 100.0, exec.Now())
	assert.Equal(t, 1, ended)
	assert.Equal(t, 1, exec.Calendar().Len(), "the late event stays unexecuted on the calendar")
}

// TestExecutive_LengthBoundary_MaxPriorityStillRuns verifies the end marker
// sorts after a same-time event even when both carry the largest priority.
func TestExecutive_LengthBoundary_MaxPriorityStillRuns(t *testing.T) {
	// GIVEN an event at exactly the length with priority math.MaxInt32,
	// scheduled after the end marker
	exec := mustExecutive(t, NewExecutiveConfig(100, 0))
	ran := false

	// WHEN the replication runs
	err := exec.Run(initModel(func(x *Executive) error {
		_, err := x.Schedule(100, func(*Executive, *Event) { ran = true }, WithPriority(math.MaxInt32))
		return err
	}))

	// THEN the event executes before the replication ends
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, EndLengthReached, exec.EndReason())
	assert.Equal(t, int64(2), exec.EventsExecuted())
}

func TestExecutive_WarmUp(t *testing.T) {
	exec := mustExecutive(t, NewExecutiveConfig(20, 5))
	var warmAt float64
	warmCalls := 0
	var statesSeen []State

	model := ModelFuncs{
		InitializeFunc: func(x *Executive) error {
			for _, d := range []float64{1, 5, 10} {
				if _, err := x.Schedule(d, func(x *Executive, _ *Event) {
					statesSeen = append(statesSeen, x.State())
				}); err != nil {
					return err
				}
			}
			return nil
		},
		WarmUpFunc: func(x *Executive) {
			warmCalls++
			warmAt = x.Now()
		},
	}

	require.NoError(t, exec.Run(model))

	assert.Equal(t, 1, warmCalls)
	assert.Equal(t, 5.0, warmAt)
	assert.True(t, exec.WarmedUp())
	// the marker's priority puts it ahead of the ordinary event at t=5
	assert.Equal(t, []State{StateRunning, StateWarmedUp, StateWarmedUp}, statesSeen)
}

func TestExecutive_Stop(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	count := 0
	ended := false

	var tick Action
	tick = func(x *Executive, _ *Event) {
		count++
		if count == 3 {
			x.Stop("enough")
		}
		_, _ = x.Schedule(1, tick)
	}
	model := ModelFuncs{
		InitializeFunc: func(x *Executive) error {
			_, err := x.Schedule(0, tick)
			return err
		},
		EndReplicationFunc: func(*Executive) { ended = true },
	}

	require.NoError(t, exec.Run(model))

	assert.Equal(t, 3, count)
	assert.Equal(t, EndStopped, exec.EndReason())
	assert.True(t, ended)
}

// TestExecutive_RunContext_CanceledMidReplication verifies an endless model
// stops once its context is canceled.
func TestExecutive_RunContext_CanceledMidReplication(t *testing.T) {
	// GIVEN an unbounded replication whose calendar never empties and an action
	// that cancels the context after 5000 events
	exec := mustExecutive(t, UnboundedConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ended := false
	count := 0

	var tick Action
	tick = func(x *Executive, _ *Event) {
		count++
		if count == 5000 {
			cancel()
		}
		_, _ = x.Schedule(1, tick)
	}
	model := ModelFuncs{
		InitializeFunc: func(x *Executive) error {
			_, err := x.Schedule(0, tick)
			return err
		},
		EndReplicationFunc: func(*Executive) { ended = true },
	}

	// WHEN it runs under the context
	err := exec.RunContext(ctx, model)

	// THEN the run returns the context error within one check interval
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, EndCanceled, exec.EndReason())
	assert.Equal(t, StateEnded, exec.State())
	assert.False(t, ended)
	assert.Less(t, count, 5000+ctxCheckInterval+1)
}

func TestExecutive_RunContext_MatchesRun(t *testing.T) {
	model := initModel(func(x *Executive) error {
		for _, d := range []float64{1, 2, 3} {
			if _, err := x.Schedule(d, noop); err != nil {
				return err
			}
		}
		return nil
	})
	a := mustExecutive(t, NewExecutiveConfig(10, 0))
	b := mustExecutive(t, NewExecutiveConfig(10, 0))

	require.NoError(t, a.Run(model))
	require.NoError(t, b.RunContext(context.Background(), model))

	assert.Equal(t, a.EventsExecuted(), b.EventsExecuted())
	assert.Equal(t, a.Now(), b.Now())
	assert.Equal(t, a.EndReason(), b.EndReason())
}

func TestExecutive_Abort(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	boom := errors.New("boom")
	ended := false
	after := false

	model := ModelFuncs{
		InitializeFunc: func(x *Executive) error {
			_, _ = x.Schedule(1, func(x *Executive, _ *Event) { x.Abort(boom) })
			_, _ = x.Schedule(2, func(*Executive, *Event) { after = true })
			return nil
		},
		EndReplicationFunc: func(*Executive) { ended = true },
	}

	err := exec.Run(model)

	assert.ErrorIs(t, err, boom)
	assert.False(t, after)
	assert.False(t, ended)
	assert.Equal(t, EndFailed, exec.EndReason())
}

// TestExecutive_ClockReversal_IsFatal inserts an event in the past by direct
// calendar access and expects the run to abort.
func TestExecutive_ClockReversal_IsFatal(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	laterRan := false

	err := exec.Run(initModel(func(x *Executive) error {
		_, _ = x.Schedule(10, func(x *Executive, _ *Event) {
			x.Calendar().Add(&Event{time: 5, priority: DefaultPriority, seq: 999, action: noop})
		})
		_, _ = x.Schedule(20, func(*Executive, *Event) { laterRan = true })
		return nil
	}))

	assert.ErrorIs(t, err, ErrClockReversal)
	assert.False(t, laterRan)
	assert.Equal(t, EndFailed, exec.EndReason())
}

func TestExecutive_InitializeError(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	bad := errors.New("bad model")

	err := exec.Run(initModel(func(*Executive) error { return bad }))

	assert.ErrorIs(t, err, bad)
	assert.Equal(t, StateEnded, exec.State())
}

// TestExecutive_Rerun_ResetsClockAndCalendar runs twice and expects identical
// executions, with the leftover calendar discarded.
func TestExecutive_Rerun_ResetsClockAndCalendar(t *testing.T) {
	exec := mustExecutive(t, NewExecutiveConfig(10, 0))
	var times []float64
	model := initModel(func(x *Executive) error {
		for _, d := range []float64{3, 7, 30} {
			if _, err := x.Schedule(d, func(x *Executive, _ *Event) { times = append(times, x.Now()) }); err != nil {
				return err
			}
		}
		return nil
	})

	require.NoError(t, exec.Run(model))
	first := append([]float64(nil), times...)
	times = nil
	require.NoError(t, exec.Run(model))

	assert.Equal(t, first, times)
	assert.Equal(t, []float64{3, 7}, times)
}

func TestExecutive_Step(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())

	_, err := exec.Step()
	assert.ErrorIs(t, err, ErrNotRunnable, "Step before Initialize")

	require.NoError(t, exec.Initialize(initModel(func(x *Executive) error {
		_, _ = x.Schedule(1, noop)
		_, _ = x.Schedule(2, noop)
		return nil
	})))
	assert.Equal(t, StateInitialized, exec.State())

	more, err := exec.Step()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, 1.0, exec.Now())
	assert.Equal(t, StateRunning, exec.State())

	more, err = exec.Step()
	require.NoError(t, err)
	assert.True(t, more)

	more, err = exec.Step()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, EndCalendarEmpty, exec.EndReason())
}

func TestExecutive_Trace(t *testing.T) {
	exec := mustExecutive(t, UnboundedConfig())
	tr := trace.NewEventTrace(trace.TraceLevelAll)
	exec.SetTracer(tr)

	require.NoError(t, exec.Run(initModel(func(x *Executive) error {
		e, _ := x.Schedule(2, noop, WithName("dropped"))
		x.Cancel(e)
		_, _ = x.Schedule(1, noop, WithName("kept"))
		return nil
	})))

	summary := trace.Summarize(tr)
	assert.Equal(t, 1, summary.ExecutedEvents)
	assert.Equal(t, 1, summary.SkippedEvents)
	assert.Equal(t, 1, summary.NameCounts["kept"])
}

func TestNewExecutive_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  ExecutiveConfig
	}{
		{"zero length", NewExecutiveConfig(0, 0)},
		{"negative length", NewExecutiveConfig(-5, 0)},
		{"NaN length", NewExecutiveConfig(math.NaN(), 0)},
		{"negative warm-up", NewExecutiveConfig(10, -1)},
		{"warm-up at length", NewExecutiveConfig(10, 10)},
		{"infinite warm-up", NewExecutiveConfig(math.Inf(1), math.Inf(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExecutive(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "warmed-up", StateWarmedUp.String())
	assert.Equal(t, "State(42)", State(42).String())
}
