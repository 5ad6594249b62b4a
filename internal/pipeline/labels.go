package pipeline

import (
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// LabelBuilder joins failures onto the fused table by exact grid key and
// propagates each failure's component backward across the horizon. The
// propagation is an explicit reverse scan: walking from the latest row down,
// the most recently passed failure is always the chronologically next one,
// so a row between two failures gets the nearer category, never the farther
// one.
type LabelBuilder struct {
	grid    GridAligner
	set     CategorySet
	horizon int
}

func NewLabelBuilder(cfg Config) *LabelBuilder {
	return &LabelBuilder{
		grid:    NewGridAligner(cfg.BinWidth),
		set:     cfg.ComponentSet,
		horizon: cfg.HorizonSteps,
	}
}

// Label labels one machine's fused rows, sorted ascending by timestamp. The
// horizon window of a failure at F covers the H grid steps ending at F
// inclusive, i.e. timestamps in [F-(H-1)·B, F].
func (b *LabelBuilder) Label(records []types.FeatureRecord, failures []types.FailureEvent) ([]types.LabelledRecord, error) {
	failAt := make(map[time.Time]string, len(failures))
	for _, f := range failures {
		if !b.set.Contains(f.Component) {
			return nil, &UnknownCategoryError{Kind: "component", Category: f.Component, MachineID: f.MachineID}
		}
		if !b.grid.OnGrid(f.Timestamp) {
			return nil, &ValidationError{
				Stage:     "label builder",
				MachineID: f.MachineID,
				Timestamp: f.Timestamp,
				Reason:    "failure timestamp off the grid",
			}
		}
		if prev, ok := failAt[f.Timestamp]; ok {
			if prev == f.Component {
				// byte-identical duplicate row, nothing ambiguous
				continue
			}
			return nil, &DuplicateFailureError{
				MachineID:  f.MachineID,
				Timestamp:  f.Timestamp,
				Categories: [2]string{prev, f.Component},
			}
		}
		failAt[f.Timestamp] = f.Component
	}

	reach := time.Duration(b.horizon-1) * b.grid.Bin

	out := make([]types.LabelledRecord, len(records))
	var nextFail time.Time
	var nextComp string
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if comp, ok := failAt[r.Timestamp]; ok {
			nextFail, nextComp = r.Timestamp, comp
		}

		label := types.LabelNone
		if !nextFail.IsZero() && !r.Timestamp.Before(nextFail.Add(-reach)) {
			label = nextComp
		}
		out[i] = types.LabelledRecord{FeatureRecord: r, Label: label}
	}
	return out, nil
}
