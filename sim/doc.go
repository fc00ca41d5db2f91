// Package sim provides the discrete-event simulation kernel: events, the event
// calendar and the executive that owns the simulation clock.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - event.go: Event ordering (time, then priority, then scheduling sequence) and handles
//   - calendar.go: The pending-event heap with lazy cancellation
//   - executive.go: The event loop, replication lifecycle and warm-up/end markers
//
// # Architecture
//
// The sim package owns scheduling; randomness and experiment control live in
// sub-packages:
//   - sim/rng/: MRG32k3a streams and the stream provider
//   - sim/variate/: Random variates by inversion over a bound stream
//   - sim/replication/: Independent, common-random-number and antithetic replications
//   - sim/trace/: Executed-event and draw recording for determinism checks
//
// A model plugs in through the Model interface (or ModelFuncs) and schedules
// Actions on the Executive. Actions run one at a time to completion; an action
// that must wait schedules a continuation instead of blocking.
//
// # Determinism
//
// Two runs with the same model, the same streams and the same configuration
// execute the same events in the same order at the same times. Events with equal
// time and priority run in the order they were scheduled.
package sim
