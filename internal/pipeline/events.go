package pipeline

import (
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// ErrorCounts holds the rolling error counts of one machine at one grid
// point, category order per the configured error set.
type ErrorCounts struct {
	MachineID int
	Timestamp time.Time
	Counts    []float64
}

// EventCounter rolls up the sparse error stream into per-category counts
// over the long window, reported at the right edge of each grid bin. The
// sparse stream is folded over the machine's dense timeline with a sliding
// per-category tally instead of reshaping tables: events enter the tally
// when the window's right edge passes them and leave when the left edge
// does. Simultaneous events of distinct categories both count; duplicate
// events of the same category add up, they do not clamp.
type EventCounter struct {
	grid   GridAligner
	window time.Duration
	set    CategorySet
}

func NewEventCounter(cfg Config) *EventCounter {
	return &EventCounter{
		grid:   NewGridAligner(cfg.BinWidth),
		window: cfg.LongWindow,
		set:    cfg.ErrorSet,
	}
}

// Count produces a counts row for every grid point of the machine's native
// timeline [start, end]. Events are the machine's error stream, sorted by
// timestamp; start and end come from the telemetry range, which is the
// primary clock.
func (c *EventCounter) Count(machineID int, events []types.ErrorEvent, start, end time.Time) ([]ErrorCounts, error) {
	idx := make([]int, len(events))
	for i, e := range events {
		if i > 0 && e.Timestamp.Before(events[i-1].Timestamp) {
			return nil, &ValidationError{
				Stage:     "event counter",
				MachineID: machineID,
				Timestamp: e.Timestamp,
				Reason:    "error events out of chronological order",
			}
		}
		k, ok := c.set.Index(e.Category)
		if !ok {
			return nil, &UnknownCategoryError{Kind: "error", Category: e.Category, MachineID: machineID}
		}
		idx[i] = k
	}

	points := c.grid.Points(start, end)
	out := make([]ErrorCounts, 0, len(points))

	tally := make([]float64, len(c.set))
	head, tail := 0, 0

	for _, t := range points {
		// admit events with timestamp <= t
		for tail < len(events) && !events[tail].Timestamp.After(t) {
			tally[idx[tail]]++
			tail++
		}
		// evict events with timestamp <= t-W, window is (t-W, t]
		left := t.Add(-c.window)
		for head < tail && !events[head].Timestamp.After(left) {
			tally[idx[head]]--
			head++
		}

		counts := make([]float64, len(c.set))
		copy(counts, tally)
		out = append(out, ErrorCounts{MachineID: machineID, Timestamp: t, Counts: counts})
	}
	return out, nil
}
