package pipeline

import (
	"math"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// TelemetryFeatures holds the rolling aggregates of one machine at one grid
// point, field order per types.TelemetryFieldNames.
type TelemetryFeatures struct {
	MachineID int
	Timestamp time.Time
	ShortMean [4]float64
	ShortSD   [4]float64
	LongMean  [4]float64
	LongSD    [4]float64
}

// WindowAggregator computes trailing mean and standard deviation over the
// short and long windows, reported at the right edge of each grid bin. Grid
// points without a complete long-window lookback are dropped, not imputed: a
// partial window has different statistical properties and must not silently
// enter the feature set.
type WindowAggregator struct {
	grid   GridAligner
	step   time.Duration
	nShort int
	nLong  int
}

func NewWindowAggregator(cfg Config) *WindowAggregator {
	return &WindowAggregator{
		grid:   NewGridAligner(cfg.BinWidth),
		step:   cfg.NativeStep,
		nShort: int(cfg.ShortWindow / cfg.NativeStep),
		nLong:  int(cfg.LongWindow / cfg.NativeStep),
	}
}

// Aggregate processes one machine's chronologically sorted readings. The
// window ending at grid point t covers the native samples in (t-W, t]; with
// one reading per native step that is exactly W/step samples, and anything
// less means the lookback is incomplete.
func (a *WindowAggregator) Aggregate(readings []types.TelemetryReading) ([]TelemetryFeatures, error) {
	if err := a.validate(readings); err != nil {
		return nil, err
	}

	var out []TelemetryFeatures
	for i, r := range readings {
		if !a.grid.OnGrid(r.Timestamp) {
			continue
		}
		if i+1 < a.nLong {
			// leading partial long window, expected drop
			continue
		}

		f := TelemetryFeatures{
			MachineID: r.MachineID,
			Timestamp: r.Timestamp,
		}
		for field := 0; field < 4; field++ {
			f.ShortMean[field], f.ShortSD[field] = meanSD(readings[i+1-a.nShort:i+1], field)
			f.LongMean[field], f.LongSD[field] = meanSD(readings[i+1-a.nLong:i+1], field)
		}
		out = append(out, f)
	}
	return out, nil
}

func (a *WindowAggregator) validate(readings []types.TelemetryReading) error {
	for i := 1; i < len(readings); i++ {
		if d := readings[i].Timestamp.Sub(readings[i-1].Timestamp); d != a.step {
			return &ValidationError{
				Stage:     "window aggregator",
				MachineID: readings[i].MachineID,
				Timestamp: readings[i].Timestamp,
				Reason:    "telemetry not sampled at one reading per native step",
			}
		}
	}
	return nil
}

// meanSD returns the mean and sample standard deviation of one field over a
// window of readings.
func meanSD(window []types.TelemetryReading, field int) (float64, float64) {
	n := len(window)
	sum := 0.0
	for _, r := range window {
		sum += r.Fields()[field]
	}
	mean := sum / float64(n)

	if n < 2 {
		return mean, 0
	}

	ss := 0.0
	for _, r := range window {
		d := r.Fields()[field] - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}
