package trace

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TraceLevel controls the verbosity of execution tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents records every executed event.
	TraceLevelEvents TraceLevel = "events"
	// TraceLevelAll also records canceled events skipped by the pop loop.
	TraceLevelAll TraceLevel = "all"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	TraceLevelAll:    true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// EventTrace collects event and draw records during one replication.
type EventTrace struct {
	Level  TraceLevel    `json:"level"`
	Events []EventRecord `json:"events"`
	Draws  []DrawRecord  `json:"draws,omitempty"`
}

// NewEventTrace creates an EventTrace ready for recording.
func NewEventTrace(level TraceLevel) *EventTrace {
	return &EventTrace{
		Level:  level,
		Events: make([]EventRecord, 0),
	}
}

// Enabled reports whether records are kept at all.
func (et *EventTrace) Enabled() bool {
	return et != nil && et.Level != TraceLevelNone && et.Level != ""
}

// RecordEvent appends an event record. Skipped tombstones are kept only at TraceLevelAll.
func (et *EventTrace) RecordEvent(record EventRecord) {
	if !et.Enabled() {
		return
	}
	if record.Canceled && et.Level != TraceLevelAll {
		return
	}
	et.Events = append(et.Events, record)
}

// RecordDraw appends a draw record.
func (et *EventTrace) RecordDraw(record DrawRecord) {
	if !et.Enabled() {
		return
	}
	et.Draws = append(et.Draws, record)
}

// Reset drops all records, keeping the level.
func (et *EventTrace) Reset() {
	et.Events = et.Events[:0]
	et.Draws = nil
}

// WriteJSON writes the trace as a single JSON document.
func (et *EventTrace) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(et)
}
