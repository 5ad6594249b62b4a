package pipeline

import (
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// FeatureFuser joins the aggregate, count and recency streams of one machine
// on the grid timestamp and broadcasts the static attributes. Telemetry is
// the primary clock: a row exists only where the long lookback window was
// complete. Rows before the machine's recency start are dropped (recency is
// undefined there); any other missing join key is a fatal validation
// failure, never imputed.
type FeatureFuser struct {
	models CategorySet
}

func NewFeatureFuser(cfg Config) *FeatureFuser {
	return &FeatureFuser{models: cfg.ModelSet}
}

func (f *FeatureFuser) Fuse(
	machine types.Machine,
	tele []TelemetryFeatures,
	counts []ErrorCounts,
	recs []ComponentRecency,
) ([]types.FeatureRecord, error) {
	model, ok := f.models.Index(machine.Model)
	if !ok {
		return nil, &UnknownCategoryError{Kind: "model", Category: machine.Model, MachineID: machine.MachineID}
	}
	oneHot := make([]float64, len(f.models))
	oneHot[model] = 1

	countsAt := make(map[time.Time]ErrorCounts, len(counts))
	for _, c := range counts {
		countsAt[c.Timestamp] = c
	}
	recAt := make(map[time.Time]ComponentRecency, len(recs))
	var recStart time.Time
	for i, r := range recs {
		if i == 0 {
			recStart = r.Timestamp
		}
		recAt[r.Timestamp] = r
	}

	out := make([]types.FeatureRecord, 0, len(tele))
	for _, t := range tele {
		rec, ok := recAt[t.Timestamp]
		if !ok {
			if recStart.IsZero() || t.Timestamp.Before(recStart) {
				// recency undefined before the first replacement of some component
				continue
			}
			return nil, &ValidationError{
				Stage:     "feature fuser",
				MachineID: machine.MachineID,
				Timestamp: t.Timestamp,
				Reason:    "missing recency row inside the defined range",
			}
		}

		c, ok := countsAt[t.Timestamp]
		if !ok {
			return nil, &ValidationError{
				Stage:     "feature fuser",
				MachineID: machine.MachineID,
				Timestamp: t.Timestamp,
				Reason:    "missing error-count row for telemetry grid point",
			}
		}

		out = append(out, types.FeatureRecord{
			MachineID:   machine.MachineID,
			Timestamp:   t.Timestamp,
			ShortMean:   t.ShortMean,
			ShortSD:     t.ShortSD,
			LongMean:    t.LongMean,
			LongSD:      t.LongSD,
			ErrorCounts: c.Counts,
			Recency:     rec.Days,
			Model:       machine.Model,
			ModelOneHot: oneHot,
			Age:         machine.Age,
		})
	}
	return out, nil
}
