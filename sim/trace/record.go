// Package trace provides execution-trace recording for the event kernel.
// It has no dependencies on sim/ and stores pure data types.
package trace

// EventRecord captures one event popped from the calendar.
type EventRecord struct {
	Clock    float64 `json:"clock"`
	Priority int32   `json:"priority"`
	Sequence uint64  `json:"sequence"`
	Name     string  `json:"name,omitempty"`
	Canceled bool    `json:"canceled,omitempty"` // popped as a tombstone and skipped
}

// DrawRecord captures one uniform consumed by a model, tagged with the stream number.
type DrawRecord struct {
	Clock  float64 `json:"clock"`
	Stream int     `json:"stream"`
	Value  float64 `json:"value"`
}
