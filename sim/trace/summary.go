package trace

// TraceSummary aggregates statistics from an EventTrace.
type TraceSummary struct {
	ExecutedEvents int            `json:"executed_events"`
	SkippedEvents  int            `json:"skipped_events"`
	FirstClock     float64        `json:"first_clock"`
	LastClock      float64        `json:"last_clock"`
	Draws          int            `json:"draws"`
	NameCounts     map[string]int `json:"name_counts"` // event name → executed count
	Monotonic      bool           `json:"monotonic"`   // clock never decreased across executed events
}

// Summarize computes aggregate statistics from an EventTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(et *EventTrace) *TraceSummary {
	summary := &TraceSummary{
		NameCounts: make(map[string]int),
		Monotonic:  true,
	}
	if et == nil {
		return summary
	}

	first := true
	for _, e := range et.Events {
		if e.Canceled {
			summary.SkippedEvents++
			continue
		}
		if first {
			summary.FirstClock = e.Clock
			first = false
		} else if e.Clock < summary.LastClock {
			summary.Monotonic = false
		}
		summary.LastClock = e.Clock
		summary.ExecutedEvents++
		summary.NameCounts[e.Name]++
	}
	summary.Draws = len(et.Draws)

	return summary
}
