package pipeline

import (
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

const hoursPerDay = 24

// ComponentRecency holds days since the last replacement of each component
// for one machine at one grid point, order per the configured component set.
type ComponentRecency struct {
	MachineID int
	Timestamp time.Time
	Days      []float64
}

// RecencyTracker turns the sparse replacement stream into "time since last
// replacement" via one ordered scan that carries the last event timestamp
// per component forward. Recency is undefined, not zero, before a machine's
// first event of a component; a row is emitted only once every component has
// been seen, so the emitted vector is always fully defined.
type RecencyTracker struct {
	grid GridAligner
	set  CategorySet
}

func NewRecencyTracker(cfg Config) *RecencyTracker {
	return &RecencyTracker{
		grid: NewGridAligner(cfg.BinWidth),
		set:  cfg.ComponentSet,
	}
}

// Track produces recency rows on the machine's grid points in [start, end].
// The replacement stream may begin well before start; earlier events seed
// the last-seen state. A replacement at a grid point resets that component's
// recency to zero exactly there.
func (r *RecencyTracker) Track(machineID int, events []types.MaintenanceEvent, start, end time.Time) ([]ComponentRecency, error) {
	idx := make([]int, len(events))
	for i, e := range events {
		if i > 0 && e.Timestamp.Before(events[i-1].Timestamp) {
			return nil, &ValidationError{
				Stage:     "recency tracker",
				MachineID: machineID,
				Timestamp: e.Timestamp,
				Reason:    "maintenance events out of chronological order",
			}
		}
		k, ok := r.set.Index(e.Component)
		if !ok {
			return nil, &UnknownCategoryError{Kind: "component", Category: e.Component, MachineID: machineID}
		}
		idx[i] = k
	}

	lastSeen := make([]time.Time, len(r.set))
	undefined := len(r.set)

	var out []ComponentRecency
	next := 0
	for _, t := range r.grid.Points(start, end) {
		for next < len(events) && !events[next].Timestamp.After(t) {
			if lastSeen[idx[next]].IsZero() {
				undefined--
			}
			lastSeen[idx[next]] = events[next].Timestamp
			next++
		}
		if undefined > 0 {
			continue
		}

		days := make([]float64, len(r.set))
		for k, seen := range lastSeen {
			days[k] = t.Sub(seen).Hours() / hoursPerDay
		}
		out = append(out, ComponentRecency{MachineID: machineID, Timestamp: t, Days: days})
	}
	return out, nil
}
