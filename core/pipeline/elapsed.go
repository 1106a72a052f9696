package pipeline

import "time"

// elapsedTimeCapacity bounds how many recent run durations feed the
// completion estimate. Older runs stop describing the task.
const elapsedTimeCapacity = 8

// ElapsedTimeHistory is a bounded ring of the most recent run durations for
// one task identity. It exists only to estimate when the next run completes.
// At most one run per task identity may feed it at a time.
type ElapsedTimeHistory struct {
	durations []time.Duration
}

// Add records a run duration, evicting the oldest entry when full
func (h *ElapsedTimeHistory) Add(d time.Duration) {
	if len(h.durations) == elapsedTimeCapacity {
		h.durations = h.durations[1:]
	}
	h.durations = append(h.durations, d)
}

// Average returns the mean recorded duration. The second return value is
// false when no runs have been recorded yet.
func (h *ElapsedTimeHistory) Average() (time.Duration, bool) {
	if len(h.durations) == 0 {
		return 0, false
	}

	var total time.Duration
	for _, d := range h.durations {
		total += d
	}
	return total / time.Duration(len(h.durations)), true
}

// Len returns the number of recorded durations
func (h *ElapsedTimeHistory) Len() int {
	return len(h.durations)
}
